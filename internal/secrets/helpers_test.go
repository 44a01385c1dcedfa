package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"filippo.io/age"

	"github.com/sealenv/sealenv/internal/configs"
)

// unsetenv clears key for the test, restoring the original value after.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

// testStoreHome points the store home at a fresh temp directory and
// clears ambient identity/file overrides so tests cannot touch or
// observe the developer's real store.
func testStoreHome(t *testing.T) string {
	t.Helper()

	t.Cleanup(func() {
		_ = configs.ReloadUserSettings()
	})

	home := t.TempDir()
	t.Setenv(configs.EnvHome, home)
	unsetenv(t, configs.EnvIdentity)
	unsetenv(t, configs.EnvFile)

	if err := configs.ReloadUserSettings(); err != nil {
		t.Fatalf("failed to reload settings: %v", err)
	}
	return home
}

// newStoreIdentity creates the store-home identity.
func newStoreIdentity(t *testing.T) *age.X25519Identity {
	t.Helper()
	id, err := CreateIdentity()
	if err != nil {
		t.Fatalf("CreateIdentity failed: %v", err)
	}
	return id
}

// newPeerIdentity generates an in-memory identity representing another
// party.
func newPeerIdentity(t *testing.T) *age.X25519Identity {
	t.Helper()
	id, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity failed: %v", err)
	}
	return id
}

// tempSecretsPath returns a secrets file path in a fresh directory.
func tempSecretsPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "secrets.env")
}
