package workflows

import (
	"context"

	"github.com/sealenv/sealenv/internal/secrets"
)

// TrustOptions configures the trust workflow.
type TrustOptions struct {
	// Path is the secrets file. If empty, the project file is discovered.
	Path string

	// PublicKey is the age recipient key to grant access.
	PublicKey string
}

// TrustResult contains the outcome of a trust operation.
type TrustResult struct {
	// Path is the secrets file that was written.
	Path string

	// PublicKey is the granted recipient key.
	PublicKey string

	// AlreadyTrusted reports that the key was in the set and nothing
	// was written.
	AlreadyTrusted bool

	// Recipients is the size of the recipient set afterwards.
	Recipients int

	// Reencrypted is how many values were rewritten to the new set.
	Reencrypted int
}

// Trust grants a recipient access to every encrypted value. The
// recipient record and its TRUST audit entry land first; each value is
// then re-encrypted to the new set, one atomic write per key.
//
// Returns ErrProjectNotFound if no secrets file can be located.
// Returns ErrInvalidRecipient if the key is not a valid age public key.
// Returns ErrIdentityNotFound if re-encryption needs the local identity
// and none exists.
func Trust(ctx context.Context, opts TrustOptions) (*TrustResult, error) {
	path, err := resolveSecretsPath(opts.Path)
	if err != nil {
		return nil, err
	}

	res, err := secrets.Trust(path, opts.PublicKey)
	if err != nil {
		return nil, err
	}

	return &TrustResult{
		Path:           path,
		PublicKey:      res.PublicKey,
		AlreadyTrusted: res.AlreadyTrusted,
		Recipients:     res.Recipients,
		Reencrypted:    res.Reencrypted,
	}, nil
}
