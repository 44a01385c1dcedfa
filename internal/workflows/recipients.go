package workflows

import (
	"context"

	"github.com/sealenv/sealenv/internal/secretfile"
	"github.com/sealenv/sealenv/internal/secrets"
)

// RecipientsOptions configures the recipients workflow.
type RecipientsOptions struct {
	// Path is the secrets file. If empty, the project file is discovered.
	Path string
}

// RecipientsResult contains the outcome of a recipients operation.
type RecipientsResult struct {
	// Path is the secrets file that was read.
	Path string

	// Recipients are the trusted public keys in file order.
	Recipients []string

	// Own marks which entry is the local identity's key, or -1 when the
	// local identity is absent or not trusted.
	Own int

	// EncryptedValues is how many values are encrypted to this set.
	EncryptedValues int
}

// Recipients lists the file's trusted public keys.
//
// Returns ErrProjectNotFound if no secrets file can be located.
func Recipients(ctx context.Context, opts RecipientsOptions) (*RecipientsResult, error) {
	path, err := resolveSecretsPath(opts.Path)
	if err != nil {
		return nil, err
	}

	f, err := secretfile.Load(path)
	if err != nil {
		return nil, err
	}

	res := &RecipientsResult{
		Path:            path,
		Recipients:      f.Recipients(),
		Own:             -1,
		EncryptedValues: f.EncryptedCount(),
	}

	if id, err := secrets.LoadIdentity(); err == nil {
		own := secrets.PublicKey(id)
		for i, r := range res.Recipients {
			if r == own {
				res.Own = i
				break
			}
		}
	}

	return res, nil
}
