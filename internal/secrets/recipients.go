package secrets

import (
	"fmt"
	"slices"

	"filippo.io/age"

	"github.com/sealenv/sealenv/internal/atomicfile"
	"github.com/sealenv/sealenv/internal/audit"
	serrors "github.com/sealenv/sealenv/internal/errors"
	"github.com/sealenv/sealenv/internal/lockfile"
	"github.com/sealenv/sealenv/internal/secretfile"
)

// TrustResult reports the outcome of adding a recipient.
type TrustResult struct {
	PublicKey      string
	AlreadyTrusted bool
	Recipients     int
	Reencrypted    int
}

// UntrustResult reports the outcome of removing a recipient.
type UntrustResult struct {
	PublicKey   string
	Recipients  int
	Reencrypted int
}

// RotateResult reports the outcome of a convergence pass.
type RotateResult struct {
	Recipients  int
	Reencrypted int
}

// Trust grants pub access to every encrypted value. The recipient set
// is persisted first, then each encrypted value is decrypted with the
// local identity and rewritten to the full new set, one atomic write
// per key. A file with no recorded recipients bootstraps with the local
// identity's own public key. Trusting an already-trusted key is a
// signalled no-op.
func Trust(path, pub string) (*TrustResult, error) {
	if _, err := ParseRecipient(pub); err != nil {
		return nil, err
	}

	res := &TrustResult{PublicKey: pub}
	err := lockfile.WithLock(path, func() error {
		f, err := secretfile.Load(path)
		if err != nil {
			return err
		}

		current := f.Recipients()
		bootstrap := ""
		if len(current) == 0 {
			id, err := LoadIdentity()
			if err != nil {
				return err
			}
			bootstrap = PublicKey(id)
			current = []string{bootstrap}
		}

		if slices.Contains(current, pub) {
			res.AlreadyTrusted = true
			res.Recipients = len(current)
			return nil
		}

		newSet := append(slices.Clone(current), pub)
		if bootstrap != "" {
			f.AddRecipient(bootstrap)
		}
		f.AddRecipient(pub)
		audit.AppendToFile(f, audit.ActionTrust, pub, currentActor())
		if err := atomicfile.WriteFile(path, f.Render(), secretsFileMode); err != nil {
			return err
		}

		n, err := reencryptAll(path, f, newSet)
		res.Reencrypted = n
		res.Recipients = len(newSet)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Untrust revokes pub. Removing the last recipient is refused before
// any side effect: encrypted data must always remain decryptable by at
// least one party. Remaining values are rewritten to the reduced set so
// the revoked key cannot decrypt anything written from now on.
func Untrust(path, pub string) (*UntrustResult, error) {
	res := &UntrustResult{PublicKey: pub}
	err := lockfile.WithLock(path, func() error {
		f, err := secretfile.Load(path)
		if err != nil {
			return err
		}

		current := f.Recipients()
		if !slices.Contains(current, pub) {
			return fmt.Errorf("%w: %s", serrors.ErrRecipientNotFound, pub)
		}
		if len(current) == 1 {
			return fmt.Errorf("%w: refusing to remove %s", serrors.ErrLastRecipient, pub)
		}

		remaining := make([]string, 0, len(current)-1)
		for _, r := range current {
			if r != pub {
				remaining = append(remaining, r)
			}
		}

		f.RemoveRecipient(pub)
		audit.AppendToFile(f, audit.ActionUntrust, pub, currentActor())
		if err := atomicfile.WriteFile(path, f.Render(), secretsFileMode); err != nil {
			return err
		}

		n, err := reencryptAll(path, f, remaining)
		res.Reencrypted = n
		res.Recipients = len(remaining)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Rotate rewrites every encrypted value to the recorded recipient set.
// Re-encryption during trust and untrust is one write per key, so a
// crash can leave values split between the old and new sets; Rotate is
// the idempotent convergence pass that repairs such a file.
func Rotate(path string) (*RotateResult, error) {
	res := &RotateResult{}
	err := lockfile.WithLock(path, func() error {
		f, err := secretfile.Load(path)
		if err != nil {
			return err
		}

		set := f.Recipients()
		if len(set) == 0 {
			if f.EncryptedCount() == 0 {
				return nil
			}
			id, err := LoadIdentity()
			if err != nil {
				return err
			}
			own := PublicKey(id)
			f.AddRecipient(own)
			set = []string{own}
		}

		audit.AppendToFile(f, audit.ActionRotate, audit.NoKey, currentActor())
		if err := atomicfile.WriteFile(path, f.Render(), secretsFileMode); err != nil {
			return err
		}

		n, err := reencryptAll(path, f, set)
		res.Reencrypted = n
		res.Recipients = len(set)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// reencryptAll rewrites every encrypted value to the given recipient
// set, one atomic write per key, and returns how many values landed.
// The caller holds the file lock. Not transactional across keys: a
// crash leaves keys written so far on the new set and the rest on the
// old one, which Rotate converges.
func reencryptAll(path string, f *secretfile.File, recipients []string) (int, error) {
	var id *age.X25519Identity

	count := 0
	for _, entry := range f.Entries() {
		if entry.Kind != secretfile.KindEncrypted {
			continue
		}

		if id == nil {
			loaded, err := LoadIdentity()
			if err != nil {
				return count, err
			}
			id = loaded
		}

		plaintext, err := DecryptValue(entry.Value, id)
		if err != nil {
			return count, fmt.Errorf("failed to re-encrypt %s: %w", entry.Key, err)
		}
		stored, err := EncryptValue(plaintext, recipients)
		if err != nil {
			return count, fmt.Errorf("failed to re-encrypt %s: %w", entry.Key, err)
		}

		f.Set(entry.Key, stored)
		if err := atomicfile.WriteFile(path, f.Render(), secretsFileMode); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}
