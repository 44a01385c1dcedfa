package secrets

import (
	"errors"
	"fmt"
	"os"

	"github.com/sealenv/sealenv/internal/atomicfile"
	"github.com/sealenv/sealenv/internal/audit"
	"github.com/sealenv/sealenv/internal/configs"
	serrors "github.com/sealenv/sealenv/internal/errors"
	"github.com/sealenv/sealenv/internal/lockfile"
	"github.com/sealenv/sealenv/internal/secretfile"
	"github.com/sealenv/sealenv/internal/validate"
)

// secretsFileMode keeps the project file readable by the owner only.
// Encrypted values are safe to share anyway, but plaintext values and
// the audit trail are not.
const secretsFileMode = 0600

// currentActor derives the audit actor from the local identity. A
// missing identity never blocks a mutation.
func currentActor() string {
	id, err := LoadIdentity()
	if err != nil {
		return audit.UnknownActor
	}
	return PublicKey(id)
}

// SetKey writes key=value in plaintext, replacing the key's line in
// place or appending a new one. The whole read-modify-write runs under
// the file lock; concurrent writers to different keys both land.
func SetKey(path, key, value string) error {
	if err := validate.UserKey(key); err != nil {
		return err
	}
	if err := validate.Value(value); err != nil {
		return err
	}

	return lockfile.WithLock(path, func() error {
		f, err := secretfile.Load(path)
		if err != nil {
			return err
		}
		f.Set(key, value)
		audit.AppendToFile(f, audit.ActionSet, key, currentActor())
		return atomicfile.WriteFile(path, f.Render(), secretsFileMode)
	})
}

// SetKeyEncrypted encrypts value to the file's recipient set and writes
// the ciphertext. A file with no recorded recipients bootstraps with
// the local identity's own public key, recorded alongside the value so
// the recipient set is never empty while ciphertext exists.
func SetKeyEncrypted(path, key, value string) error {
	if err := validate.UserKey(key); err != nil {
		return err
	}
	if err := validate.Value(value); err != nil {
		return err
	}

	return lockfile.WithLock(path, func() error {
		f, err := secretfile.Load(path)
		if err != nil {
			return err
		}

		recipients := f.Recipients()
		if len(recipients) == 0 {
			id, err := LoadIdentity()
			if err != nil {
				return err
			}
			own := PublicKey(id)
			f.AddRecipient(own)
			recipients = []string{own}
		}

		stored, err := EncryptValue(value, recipients)
		if err != nil {
			return err
		}
		f.Set(key, stored)
		audit.AppendToFile(f, audit.ActionSet, key, currentActor())
		return atomicfile.WriteFile(path, f.Render(), secretsFileMode)
	})
}

// DeleteKey removes the key's line, leaving all other lines in their
// relative order.
func DeleteKey(path, key string) error {
	if err := validate.UserKey(key); err != nil {
		return err
	}

	return lockfile.WithLock(path, func() error {
		f, err := secretfile.Load(path)
		if err != nil {
			return err
		}
		if !f.Delete(key) {
			return fmt.Errorf("%w: %s", serrors.ErrSecretNotFound, key)
		}
		audit.AppendToFile(f, audit.ActionDelete, key, currentActor())
		return atomicfile.WriteFile(path, f.Render(), secretsFileMode)
	})
}

// InitResult reports what project initialization created.
type InitResult struct {
	Path            string
	PublicKey       string
	CreatedIdentity bool
}

// InitProject creates the secrets file at path with the local identity
// as its first recipient, generating the identity on first use. An
// existing file is never touched.
func InitProject(path string) (*InitResult, error) {
	res := &InitResult{Path: path}

	id, err := LoadIdentity()
	if errors.Is(err, serrors.ErrIdentityNotFound) {
		id, err = CreateIdentity()
		if err != nil {
			return nil, err
		}
		res.CreatedIdentity = true
	} else if err != nil {
		return nil, err
	}
	res.PublicKey = PublicKey(id)

	err = lockfile.WithLock(path, func() error {
		if _, statErr := os.Stat(path); statErr == nil {
			return fmt.Errorf("%w: %s", serrors.ErrAlreadyInitialized, path)
		}

		f, err := secretfile.Parse(nil)
		if err != nil {
			return err
		}
		f.AddRecipient(res.PublicKey)
		audit.AppendToFile(f, audit.ActionInit, audit.NoKey, res.PublicKey)
		return atomicfile.WriteFile(path, f.Render(), secretsFileMode)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ImportEntry is one key/value pair staged for import.
type ImportEntry struct {
	Key   string
	Value string
}

// ImportStats reports what a batch import landed.
type ImportStats struct {
	Added    int
	Replaced int
}

// ImportEntries writes a batch of entries in one locked rewrite with a
// single IMPORT audit record. With encrypt set, every value is
// encrypted to the file's recipient set, bootstrapping with the local
// identity when the set is empty.
func ImportEntries(path string, entries []ImportEntry, encrypt bool) (*ImportStats, error) {
	for _, e := range entries {
		if err := validate.UserKey(e.Key); err != nil {
			return nil, err
		}
		if err := validate.Value(e.Value); err != nil {
			return nil, err
		}
	}

	stats := &ImportStats{}
	err := lockfile.WithLock(path, func() error {
		f, err := secretfile.Load(path)
		if err != nil {
			return err
		}

		var recipients []string
		if encrypt {
			recipients = f.Recipients()
			if len(recipients) == 0 {
				id, err := LoadIdentity()
				if err != nil {
					return err
				}
				own := PublicKey(id)
				f.AddRecipient(own)
				recipients = []string{own}
			}
		}

		for _, e := range entries {
			stored := e.Value
			if encrypt {
				stored, err = EncryptValue(e.Value, recipients)
				if err != nil {
					return err
				}
			}
			if f.Has(e.Key) {
				stats.Replaced++
			} else {
				stats.Added++
			}
			f.Set(e.Key, stored)
		}

		audit.AppendToFile(f, audit.ActionImport, audit.NoKey, currentActor())
		return atomicfile.WriteFile(path, f.Render(), secretsFileMode)
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// RecordAction appends a standalone audit record for actions that do
// not rewrite secret entries themselves, export among them.
func RecordAction(path, action, key string) error {
	return audit.Append(path, action, key, currentActor())
}

// DefaultSecretsPath resolves the project secrets file for the current
// process: the file override environment variable when set, else the
// nearest secrets file walking up from the working directory. Empty
// when no project is found.
func DefaultSecretsPath() (string, error) {
	if err := configs.InitProjectSettings(); err != nil {
		return "", err
	}
	return configs.ProjectSealenvSettings.SecretsFilePath, nil
}
