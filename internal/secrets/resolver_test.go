package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sealenv/sealenv/internal/configs"
	serrors "github.com/sealenv/sealenv/internal/errors"
	"github.com/sealenv/sealenv/internal/secretfile"
)

func seedFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to seed %s: %v", path, err)
	}
}

func TestResolverGet(t *testing.T) {
	t.Run("EnvVarWins", func(t *testing.T) {
		path := tempSecretsPath(t)
		seedFile(t, path, "GREETING=from-file\n")
		t.Setenv("GREETING", "from-env")

		r := NewResolver(path)
		got, err := r.Get("GREETING")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "from-env" {
			t.Errorf("got %q, want the environment value", got)
		}
	})

	t.Run("EmptyEnvVarStillWins", func(t *testing.T) {
		path := tempSecretsPath(t)
		seedFile(t, path, "GREETING=from-file\n")
		t.Setenv("GREETING", "")

		r := NewResolver(path)
		got, err := r.Get("GREETING")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "" {
			t.Errorf("got %q, want the empty environment value", got)
		}
	})

	t.Run("PlaintextFromFile", func(t *testing.T) {
		path := tempSecretsPath(t)
		seedFile(t, path, "DB_HOST=localhost\nDB_PORT=5432\n")

		r := NewResolver(path)
		got, err := r.Get("DB_PORT")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "5432" {
			t.Errorf("got %q, want %q", got, "5432")
		}
	})

	t.Run("EncryptedValueDecrypts", func(t *testing.T) {
		testStoreHome(t)
		newStoreIdentity(t)
		path := tempSecretsPath(t)
		if err := SetKeyEncrypted(path, "API_KEY", "hunter2"); err != nil {
			t.Fatalf("SetKeyEncrypted failed: %v", err)
		}

		r := NewResolver(path)
		got, err := r.Get("API_KEY")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "hunter2" {
			t.Errorf("got %q, want the decrypted value", got)
		}
	})

	t.Run("EncryptedValueWithoutIdentity", func(t *testing.T) {
		testStoreHome(t)
		peer := newPeerIdentity(t)
		path := tempSecretsPath(t)
		stored, err := EncryptValue("x", []string{PublicKey(peer)})
		if err != nil {
			t.Fatalf("EncryptValue failed: %v", err)
		}
		seedFile(t, path, "API_KEY="+stored+"\n")

		r := NewResolver(path)
		_, err = r.Get("API_KEY")
		if !errors.Is(err, serrors.ErrIdentityNotFound) {
			t.Errorf("got %v, want a wrapped ErrIdentityNotFound", err)
		}
	})

	t.Run("MissingKey", func(t *testing.T) {
		path := tempSecretsPath(t)
		seedFile(t, path, "PRESENT=yes\n")

		r := NewResolver(path)
		_, err := r.Get("ABSENT")
		if !errors.Is(err, serrors.ErrSecretNotFound) {
			t.Errorf("got %v, want ErrSecretNotFound", err)
		}
	})

	t.Run("MetadataKeysNeverResolve", func(t *testing.T) {
		path := tempSecretsPath(t)
		seedFile(t, path, secretfile.RecipientKey+"=age1testvalue\nREAL=1\n")

		r := NewResolver(path)
		if _, err := r.Get(secretfile.RecipientKey); !errors.Is(err, serrors.ErrSecretNotFound) {
			t.Errorf("got %v for a metadata key, want ErrSecretNotFound", err)
		}
		if _, err := r.Get("_ANYTHING"); !errors.Is(err, serrors.ErrSecretNotFound) {
			t.Errorf("got %v for an underscore key, want ErrSecretNotFound", err)
		}
	})
}

func TestResolverCaching(t *testing.T) {
	t.Run("SnapshotReusedWhileStatUnchanged", func(t *testing.T) {
		path := tempSecretsPath(t)
		seedFile(t, path, "KEY=aaaa\n")

		r := NewResolver(path)
		if got, err := r.Get("KEY"); err != nil || got != "aaaa" {
			t.Fatalf("first Get: %q, %v", got, err)
		}

		// Rewrite with identical size and restore the mtime: the stat
		// pair cannot distinguish the files, so the snapshot is reused.
		st, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat failed: %v", err)
		}
		seedFile(t, path, "KEY=bbbb\n")
		if err := os.Chtimes(path, st.ModTime(), st.ModTime()); err != nil {
			t.Fatalf("chtimes failed: %v", err)
		}

		if got, err := r.Get("KEY"); err != nil || got != "aaaa" {
			t.Errorf("got %q, %v; want the cached value", got, err)
		}

		r.Invalidate()
		if got, err := r.Get("KEY"); err != nil || got != "bbbb" {
			t.Errorf("got %q, %v after Invalidate; want the on-disk value", got, err)
		}
	})

	t.Run("SizeChangeTriggersReload", func(t *testing.T) {
		path := tempSecretsPath(t)
		seedFile(t, path, "KEY=v1\n")

		r := NewResolver(path)
		if got, err := r.Get("KEY"); err != nil || got != "v1" {
			t.Fatalf("first Get: %q, %v", got, err)
		}

		seedFile(t, path, "KEY=a-longer-second-value\n")
		if got, err := r.Get("KEY"); err != nil || got != "a-longer-second-value" {
			t.Errorf("got %q, %v; want the rewritten value without Invalidate", got, err)
		}
	})

	t.Run("FileAppearingAfterMiss", func(t *testing.T) {
		path := tempSecretsPath(t)

		r := NewResolver(path)
		if _, err := r.Get("KEY"); !errors.Is(err, serrors.ErrSecretNotFound) {
			t.Fatalf("got %v for a missing file, want ErrSecretNotFound", err)
		}

		seedFile(t, path, "KEY=late\n")
		if got, err := r.Get("KEY"); err != nil || got != "late" {
			t.Errorf("got %q, %v after the file appeared", got, err)
		}
	})
}

func TestResolverVaultRefs(t *testing.T) {
	t.Run("ResolvesThroughVault", func(t *testing.T) {
		testStoreHome(t)
		newStoreIdentity(t)
		if err := OpenVault().Set("SHARED_TOKEN", "v1"); err != nil {
			t.Fatalf("vault Set failed: %v", err)
		}
		path := tempSecretsPath(t)
		seedFile(t, path, "TOKEN="+secretfile.VaultPrefix+"SHARED_TOKEN\n")

		r := NewResolver(path)
		got, err := r.Get("TOKEN")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "v1" {
			t.Errorf("got %q, want the vault value", got)
		}
	})

	t.Run("ServedFreshNotCached", func(t *testing.T) {
		testStoreHome(t)
		newStoreIdentity(t)
		if err := OpenVault().Set("SHARED_TOKEN", "v1"); err != nil {
			t.Fatalf("vault Set failed: %v", err)
		}
		path := tempSecretsPath(t)
		seedFile(t, path, "TOKEN="+secretfile.VaultPrefix+"SHARED_TOKEN\n")

		r := NewResolver(path)
		if got, err := r.Get("TOKEN"); err != nil || got != "v1" {
			t.Fatalf("first Get: %q, %v", got, err)
		}

		// The project file never changes; only the vault does. A longer
		// value guarantees the vault file size moves.
		if err := OpenVault().Set("SHARED_TOKEN", "rotated-longer-value"); err != nil {
			t.Fatalf("vault update failed: %v", err)
		}
		if got, err := r.Get("TOKEN"); err != nil || got != "rotated-longer-value" {
			t.Errorf("got %q, %v; want the updated vault value", got, err)
		}
	})

	t.Run("MissingVaultKey", func(t *testing.T) {
		testStoreHome(t)
		newStoreIdentity(t)
		path := tempSecretsPath(t)
		seedFile(t, path, "TOKEN="+secretfile.VaultPrefix+"NEVER_SET\n")

		r := NewResolver(path)
		_, err := r.Get("TOKEN")
		if !errors.Is(err, serrors.ErrVaultKeyNotFound) {
			t.Errorf("got %v, want ErrVaultKeyNotFound", err)
		}
	})
}

func TestResolverHas(t *testing.T) {
	testStoreHome(t)
	peer := newPeerIdentity(t)
	path := tempSecretsPath(t)
	stored, err := EncryptValue("x", []string{PublicKey(peer)})
	if err != nil {
		t.Fatalf("EncryptValue failed: %v", err)
	}
	seedFile(t, path, "PLAIN=1\nSEALED="+stored+"\n"+secretfile.RecipientKey+"=age1testvalue\n")
	t.Setenv("FROM_ENV_ONLY", "x")

	r := NewResolver(path)
	if !r.Has("PLAIN") {
		t.Error("Has missed a plaintext key")
	}
	// No identity exists, so a positive answer proves Has never decrypts.
	if !r.Has("SEALED") {
		t.Error("Has missed an encrypted key")
	}
	if !r.Has("FROM_ENV_ONLY") {
		t.Error("Has missed an environment variable")
	}
	if r.Has(secretfile.RecipientKey) {
		t.Error("Has reported a metadata key")
	}
	if r.Has("ABSENT") {
		t.Error("Has reported a key that exists nowhere")
	}
}

func TestResolverKeys(t *testing.T) {
	path := tempSecretsPath(t)
	seedFile(t, path, "# header\n"+secretfile.RecipientKey+"=age1testvalue\nB_KEY=1\nA_KEY=2\nC_KEY=3\n")

	r := NewResolver(path)
	keys, err := r.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	want := []string{"B_KEY", "A_KEY", "C_KEY"}
	if len(keys) != len(want) {
		t.Fatalf("got %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("got %v, want file order %v", keys, want)
		}
	}
}

func TestResolverDiscovery(t *testing.T) {
	t.Run("FileOverrideEnvVar", func(t *testing.T) {
		testStoreHome(t)
		path := tempSecretsPath(t)
		seedFile(t, path, "KEY=via-override\n")
		t.Setenv(configs.EnvFile, path)

		r := NewDiscoveringResolver()
		if got, err := r.Get("KEY"); err != nil || got != "via-override" {
			t.Fatalf("got %q, %v", got, err)
		}

		// Retargeting the override is picked up on the next access.
		other := tempSecretsPath(t)
		seedFile(t, other, "KEY=second-project\n")
		t.Setenv(configs.EnvFile, other)
		if got, err := r.Get("KEY"); err != nil || got != "second-project" {
			t.Errorf("got %q, %v after retarget", got, err)
		}
	})

	t.Run("WalksUpFromWorkingDirectory", func(t *testing.T) {
		testStoreHome(t)
		base := t.TempDir()
		project := filepath.Join(base, "app")
		deep := filepath.Join(project, "src", "deep")
		if err := os.MkdirAll(deep, 0o755); err != nil {
			t.Fatalf("mkdir failed: %v", err)
		}
		secretsPath := filepath.Join(project, configs.DefaultSecretsFileName)
		seedFile(t, secretsPath, "KEY=walked-up\n")

		// Bound the upward walk at the test sandbox.
		t.Setenv("HOME", base)
		orig, err := os.Getwd()
		if err != nil {
			t.Fatalf("getwd failed: %v", err)
		}
		t.Cleanup(func() { _ = os.Chdir(orig) })
		if err := os.Chdir(deep); err != nil {
			t.Fatalf("chdir failed: %v", err)
		}

		r := NewDiscoveringResolver()
		if got, err := r.Get("KEY"); err != nil || got != "walked-up" {
			t.Errorf("got %q, %v", got, err)
		}
		p, err := r.Path()
		if err != nil {
			t.Fatalf("Path failed: %v", err)
		}
		// Temp dirs can be reached through symlinks; compare resolved paths.
		wantResolved, _ := filepath.EvalSymlinks(secretsPath)
		gotResolved, _ := filepath.EvalSymlinks(p)
		if gotResolved != wantResolved {
			t.Errorf("Path returned %q, want %q", p, secretsPath)
		}
	})

	t.Run("NoProjectAnywhere", func(t *testing.T) {
		testStoreHome(t)
		base := t.TempDir()
		t.Setenv("HOME", base)
		orig, err := os.Getwd()
		if err != nil {
			t.Fatalf("getwd failed: %v", err)
		}
		t.Cleanup(func() { _ = os.Chdir(orig) })
		if err := os.Chdir(base); err != nil {
			t.Fatalf("chdir failed: %v", err)
		}
		t.Setenv("ONLY_IN_ENV", "still-works")

		r := NewDiscoveringResolver()
		if got, err := r.Get("ONLY_IN_ENV"); err != nil || got != "still-works" {
			t.Errorf("got %q, %v; environment lookup must survive a missing project", got, err)
		}
		if _, err := r.Get("ANYTHING_ELSE"); !errors.Is(err, serrors.ErrSecretNotFound) {
			t.Errorf("got %v, want ErrSecretNotFound", err)
		}
	})
}
