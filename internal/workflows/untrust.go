package workflows

import (
	"context"

	"github.com/sealenv/sealenv/internal/secrets"
)

// UntrustOptions configures the untrust workflow.
type UntrustOptions struct {
	// Path is the secrets file. If empty, the project file is discovered.
	Path string

	// PublicKey is the age recipient key to revoke.
	PublicKey string
}

// UntrustResult contains the outcome of an untrust operation.
type UntrustResult struct {
	// Path is the secrets file that was written.
	Path string

	// PublicKey is the revoked recipient key.
	PublicKey string

	// Recipients is the size of the recipient set afterwards.
	Recipients int

	// Reencrypted is how many values were rewritten to the reduced set.
	Reencrypted int
}

// Untrust revokes a recipient and re-encrypts every value to the
// reduced set so the revoked key cannot read anything written from now
// on. Values the revoked key already saw must be considered known to
// it; rotation of the underlying secrets is a human decision.
//
// Returns ErrProjectNotFound if no secrets file can be located.
// Returns ErrRecipientNotFound if the key is not in the recipient set.
// Returns ErrLastRecipient if removal would leave encrypted data with
// no recipient; nothing is written in that case.
func Untrust(ctx context.Context, opts UntrustOptions) (*UntrustResult, error) {
	path, err := resolveSecretsPath(opts.Path)
	if err != nil {
		return nil, err
	}

	res, err := secrets.Untrust(path, opts.PublicKey)
	if err != nil {
		return nil, err
	}

	return &UntrustResult{
		Path:        path,
		PublicKey:   res.PublicKey,
		Recipients:  res.Recipients,
		Reencrypted: res.Reencrypted,
	}, nil
}
