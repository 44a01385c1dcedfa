package secrets

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"filippo.io/age"

	"github.com/sealenv/sealenv/internal/atomicfile"
	"github.com/sealenv/sealenv/internal/configs"
	serrors "github.com/sealenv/sealenv/internal/errors"
	"github.com/sealenv/sealenv/internal/lockfile"
	"github.com/sealenv/sealenv/internal/secretfile"
	"github.com/sealenv/sealenv/internal/validate"
)

// Vault is the per-user encrypted store for values shared across
// projects. The whole store is one blob encrypted to the owner identity
// alone; reads decrypt it into an in-memory snapshot reused until the
// file's (mtime, size) pair changes. Mutations clear the snapshot and
// re-derive it under the file lock, so read-modify-write always starts
// from the freshest on-disk state.
type Vault struct {
	path string

	mu       sync.Mutex
	loaded   bool
	snapshot map[string]string
	mtime    time.Time
	size     int64
}

// OpenVault returns the vault at the store-home location.
func OpenVault() *Vault {
	return VaultAt(configs.UserSealenvSettings.VaultPath)
}

// VaultAt returns a vault backed by an explicit file path.
func VaultAt(path string) *Vault {
	return &Vault{path: path}
}

// Get returns the value for key.
func (v *Vault) Get(key string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.refresh(); err != nil {
		return "", err
	}
	val, ok := v.snapshot[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", serrors.ErrVaultKeyNotFound, key)
	}
	return val, nil
}

// List returns all vault keys, sorted.
func (v *Vault) List() ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.refresh(); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(v.snapshot))
	for k := range v.snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Set writes key=value into the vault.
func (v *Vault) Set(key, value string) error {
	if err := validate.UserKey(key); err != nil {
		return err
	}
	if err := validate.Value(value); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := configs.EnsureStoreHome(); err != nil {
		return err
	}
	id, err := LoadIdentity()
	if err != nil {
		return &serrors.VaultError{Op: "set", Err: err}
	}

	return lockfile.WithLock(v.path, func() error {
		v.loaded = false
		if err := v.refresh(); err != nil {
			return err
		}
		v.snapshot[key] = value
		return v.persist(id)
	})
}

// Delete removes key from the vault.
func (v *Vault) Delete(key string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := configs.EnsureStoreHome(); err != nil {
		return err
	}
	id, err := LoadIdentity()
	if err != nil {
		return &serrors.VaultError{Op: "delete", Err: err}
	}

	return lockfile.WithLock(v.path, func() error {
		v.loaded = false
		if err := v.refresh(); err != nil {
			return err
		}
		if _, ok := v.snapshot[key]; !ok {
			return fmt.Errorf("%w: %s", serrors.ErrVaultKeyNotFound, key)
		}
		delete(v.snapshot, key)
		return v.persist(id)
	})
}

// Invalidate drops the in-memory snapshot; the next access re-derives
// it from disk.
func (v *Vault) Invalidate() {
	v.mu.Lock()
	v.loaded = false
	v.snapshot = nil
	v.mu.Unlock()
}

// refresh reloads the snapshot when it is missing or the vault file's
// (mtime, size) pair changed. A missing vault file is an empty vault.
func (v *Vault) refresh() error {
	st, err := os.Stat(v.path)
	if err != nil {
		if os.IsNotExist(err) {
			v.snapshot = make(map[string]string)
			v.loaded = true
			v.mtime, v.size = time.Time{}, 0
			return nil
		}
		return &serrors.VaultError{Op: "stat", Err: err}
	}

	if v.loaded && v.snapshot != nil && st.ModTime().Equal(v.mtime) && st.Size() == v.size {
		return nil
	}

	snap, err := v.decryptBlob()
	if err != nil {
		return err
	}
	v.snapshot = snap
	v.mtime, v.size = st.ModTime(), st.Size()
	v.loaded = true
	return nil
}

// decryptBlob reads the vault file and decrypts it into a key/value
// map. The blob is a single ciphertext value whose plaintext is plain
// KEY=VALUE lines, no metadata.
func (v *Vault) decryptBlob() (map[string]string, error) {
	data, err := os.ReadFile(v.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, &serrors.VaultError{Op: "read", Err: err}
	}

	blob := strings.TrimSpace(string(data))
	if blob == "" {
		return make(map[string]string), nil
	}

	id, err := LoadIdentity()
	if err != nil {
		return nil, &serrors.VaultError{Op: "decrypt", Err: err}
	}
	plaintext, err := DecryptValue(blob, id)
	if err != nil {
		return nil, &serrors.VaultError{Op: "decrypt", Err: err}
	}

	f, err := secretfile.Parse([]byte(plaintext))
	if err != nil {
		return nil, &serrors.VaultError{Op: "parse", Err: err}
	}
	snap := make(map[string]string, f.Len())
	for _, e := range f.Entries() {
		snap[e.Key] = e.Value
	}
	return snap, nil
}

// persist encrypts the snapshot to the owner identity alone and
// rewrites the vault blob. Caller holds the vault lock.
func (v *Vault) persist(id *age.X25519Identity) error {
	keys := make([]string, 0, len(v.snapshot))
	for k := range v.snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v.snapshot[k])
		b.WriteByte('\n')
	}

	stored, err := EncryptValue(b.String(), []string{PublicKey(id)})
	if err != nil {
		return &serrors.VaultError{Op: "encrypt", Err: err}
	}
	if err := atomicfile.WriteFile(v.path, []byte(stored+"\n"), 0600); err != nil {
		return &serrors.VaultError{Op: "write", Err: err}
	}

	if st, err := os.Stat(v.path); err == nil {
		v.mtime, v.size = st.ModTime(), st.Size()
		v.loaded = true
	} else {
		v.loaded = false
	}
	return nil
}
