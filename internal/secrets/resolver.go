package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"filippo.io/age"

	"github.com/sealenv/sealenv/internal/configs"
	serrors "github.com/sealenv/sealenv/internal/errors"
	"github.com/sealenv/sealenv/internal/secretfile"
	"github.com/sealenv/sealenv/internal/utils"
	"github.com/sealenv/sealenv/internal/validate"
)

// Resolver is the read path over one project's secrets. Process
// environment variables take precedence over the file; encrypted values
// decrypt through the local identity; vault references resolve through
// the user vault. It holds no cross-process resource: reads never take
// the file lock, and the atomic-rename write convention guarantees a
// reader sees the old or new file, never a partial one.
type Resolver struct {
	resolvePath func() (string, error)

	mu       sync.Mutex
	path     string
	exists   bool
	mtime    time.Time
	size     int64
	snapshot *secretfile.File
	cache    map[string]string
	id       *age.X25519Identity
	vault    *Vault
}

// NewResolver pins the resolver to one secrets file.
func NewResolver(path string) *Resolver {
	return &Resolver{
		resolvePath: func() (string, error) {
			return filepath.Abs(path)
		},
	}
}

// NewDiscoveringResolver re-discovers the secrets file on every access:
// the file override environment variable when set, else the nearest
// secrets file walking up from the current directory. A working
// directory change between calls is picked up like any other staleness.
func NewDiscoveringResolver() *Resolver {
	return &Resolver{resolvePath: discoverSecretsFile}
}

func discoverSecretsFile() (string, error) {
	if override := os.Getenv(configs.EnvFile); override != "" {
		return filepath.Abs(override)
	}
	return utils.FindSecretsFile(configs.SecretsFileName())
}

// Get resolves key. Environment variables win; plaintext and decrypted
// values are cached until the file changes; vault references are served
// from the vault on every call and never cached here, since their
// lifetime is governed by the vault, not this file. Metadata keys are
// never resolvable.
func (r *Resolver) Get(key string) (string, error) {
	if strings.HasPrefix(key, validate.MetadataPrefix) {
		return "", fmt.Errorf("%w: %s", serrors.ErrSecretNotFound, key)
	}
	if val, ok := os.LookupEnv(key); ok {
		return val, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.refresh(); err != nil {
		return "", err
	}
	if val, ok := r.cache[key]; ok {
		return val, nil
	}

	entry, ok := r.snapshot.Lookup(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", serrors.ErrSecretNotFound, key)
	}

	switch entry.Kind {
	case secretfile.KindPlain:
		r.cache[key] = entry.Value
		return entry.Value, nil

	case secretfile.KindEncrypted:
		id, err := r.identity()
		if err != nil {
			return "", err
		}
		val, err := DecryptValue(entry.Value, id)
		if err != nil {
			return "", fmt.Errorf("failed to decrypt %s: %w", key, err)
		}
		r.cache[key] = val
		return val, nil

	default:
		vaultKey, _ := secretfile.VaultKey(entry.Value)
		return r.vaultStore().Get(vaultKey)
	}
}

// Has reports whether key would resolve: present in the environment or
// in the file's user key set. It never decrypts.
func (r *Resolver) Has(key string) bool {
	if strings.HasPrefix(key, validate.MetadataPrefix) {
		return false
	}
	if _, ok := os.LookupEnv(key); ok {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.refresh(); err != nil {
		return false
	}
	return r.snapshot.Has(key)
}

// Keys returns the file's user key set in file order.
func (r *Resolver) Keys() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.refresh(); err != nil {
		return nil, err
	}
	return r.snapshot.Keys(), nil
}

// Path returns the currently resolved secrets file path, empty when no
// project is found.
func (r *Resolver) Path() (string, error) {
	return r.resolvePath()
}

// Invalidate discards the snapshot and every cached value; the next
// access re-reads from disk. The vault snapshot is dropped with it.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drop()
	r.path = ""
	if r.vault != nil {
		r.vault.Invalidate()
	}
}

func (r *Resolver) drop() {
	r.snapshot = nil
	r.cache = nil
	r.exists = false
	r.mtime, r.size = time.Time{}, 0
}

// refresh re-stats the resolved file and reloads the snapshot when the
// path, modification time, or size changed since the last parse.
func (r *Resolver) refresh() error {
	path, err := r.resolvePath()
	if err != nil {
		return err
	}
	if path != r.path {
		r.drop()
		r.path = path
	}

	if path == "" {
		// No project file found; only environment variables resolve.
		if r.snapshot == nil {
			empty, err := secretfile.Parse(nil)
			if err != nil {
				return err
			}
			r.snapshot = empty
			r.cache = make(map[string]string)
		}
		return nil
	}

	st, err := os.Stat(path)
	if err != nil && !os.IsNotExist(err) {
		return &serrors.FileError{Message: fmt.Sprintf("failed to stat %s", path), Err: err}
	}
	exists := err == nil

	if r.snapshot != nil && exists == r.exists &&
		(!exists || (st.ModTime().Equal(r.mtime) && st.Size() == r.size)) {
		return nil
	}

	r.cache = make(map[string]string)
	if !exists {
		empty, err := secretfile.Parse(nil)
		if err != nil {
			return err
		}
		r.snapshot = empty
		r.exists = false
		return nil
	}

	f, err := secretfile.Load(path)
	if err != nil {
		r.snapshot = nil
		return err
	}
	r.snapshot = f
	r.exists = true
	r.mtime, r.size = st.ModTime(), st.Size()
	return nil
}

// identity loads the local identity once per resolver.
func (r *Resolver) identity() (*age.X25519Identity, error) {
	if r.id != nil {
		return r.id, nil
	}
	id, err := LoadIdentity()
	if err != nil {
		return nil, err
	}
	r.id = id
	return id, nil
}

// vaultStore opens the user vault once per resolver.
func (r *Resolver) vaultStore() *Vault {
	if r.vault == nil {
		r.vault = OpenVault()
	}
	return r.vault
}
