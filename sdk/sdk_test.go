package sdk

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sealenv/sealenv/internal/configs"
	"github.com/sealenv/sealenv/internal/secrets"
)

// testStoreHome points the store home at a fresh temp directory and
// clears ambient overrides so tests never touch the developer's store.
func testStoreHome(t *testing.T) {
	t.Helper()

	t.Cleanup(func() {
		_ = configs.ReloadUserSettings()
	})

	t.Setenv(configs.EnvHome, t.TempDir())
	t.Setenv(configs.EnvIdentity, "")
	os.Unsetenv(configs.EnvIdentity)
	t.Setenv(configs.EnvFile, "")
	os.Unsetenv(configs.EnvFile)

	if err := configs.ReloadUserSettings(); err != nil {
		t.Fatalf("failed to reload settings: %v", err)
	}
}

func seedFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to seed %s: %v", path, err)
	}
}

func TestClientGet(t *testing.T) {
	t.Run("PlaintextAndMissing", func(t *testing.T) {
		testStoreHome(t)
		path := filepath.Join(t.TempDir(), ".env.sealed")
		seedFile(t, path, "A=plain\n")

		client := OpenFile(path)

		got, err := client.Get("A")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "plain" {
			t.Errorf("got %q, want %q", got, "plain")
		}

		if _, err := client.Get("C"); !errors.Is(err, ErrSecretNotFound) {
			t.Errorf("got %v, want ErrSecretNotFound", err)
		}
	})

	t.Run("EncryptedValueDecrypts", func(t *testing.T) {
		testStoreHome(t)
		if _, err := secrets.CreateIdentity(); err != nil {
			t.Fatalf("CreateIdentity failed: %v", err)
		}
		path := filepath.Join(t.TempDir(), ".env.sealed")
		if err := secrets.SetKeyEncrypted(path, "B", "secret"); err != nil {
			t.Fatalf("SetKeyEncrypted failed: %v", err)
		}

		got, err := OpenFile(path).Get("B")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "secret" {
			t.Errorf("got %q, want the decrypted value", got)
		}
	})

	t.Run("EnvironmentWins", func(t *testing.T) {
		testStoreHome(t)
		path := filepath.Join(t.TempDir(), ".env.sealed")
		seedFile(t, path, "HOST=file\n")
		t.Setenv("HOST", "env")

		got, err := OpenFile(path).Get("HOST")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "env" {
			t.Errorf("got %q, want the environment value", got)
		}
	})
}

func TestClientHasAndKeys(t *testing.T) {
	testStoreHome(t)
	path := filepath.Join(t.TempDir(), ".env.sealed")
	seedFile(t, path, "A=1\nB=2\n_RECIPIENT=age1notreal\n")

	client := OpenFile(path)

	if !client.Has("A") {
		t.Error("Has(A) = false, want true")
	}
	if client.Has("MISSING") {
		t.Error("Has(MISSING) = true, want false")
	}
	if client.Has("_RECIPIENT") {
		t.Error("Has(_RECIPIENT) = true, metadata keys must never resolve")
	}

	keys, err := client.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "A" || keys[1] != "B" {
		t.Errorf("Keys() = %v, want [A B]", keys)
	}
}

func TestClientStaleness(t *testing.T) {
	testStoreHome(t)
	path := filepath.Join(t.TempDir(), ".env.sealed")
	seedFile(t, path, "A=old\n")

	client := OpenFile(path)
	if got, _ := client.Get("A"); got != "old" {
		t.Fatalf("got %q, want %q", got, "old")
	}

	// Rewrite with different size and mtime; the next Get must observe
	// the new content without an explicit Invalidate.
	seedFile(t, path, "A=brand-new\n")
	newTime := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, newTime, newTime); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	got, err := client.Get("A")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "brand-new" {
		t.Errorf("got %q, want the rewritten value", got)
	}
}

func TestClientInvalidate(t *testing.T) {
	testStoreHome(t)
	path := filepath.Join(t.TempDir(), ".env.sealed")
	seedFile(t, path, "A=1\n")

	client := OpenFile(path)
	if _, err := client.Get("A"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	client.Invalidate()

	if got, err := client.Get("A"); err != nil || got != "1" {
		t.Fatalf("Get after Invalidate = %q, %v; want 1, nil", got, err)
	}
}
