package workflows

import (
	"context"

	"github.com/sealenv/sealenv/internal/secrets"
)

// RotateOptions configures the rotate workflow.
type RotateOptions struct {
	// Path is the secrets file. If empty, the project file is discovered.
	Path string
}

// RotateResult contains the outcome of a rotate operation.
type RotateResult struct {
	// Path is the secrets file that was written.
	Path string

	// Recipients is the size of the recipient set.
	Recipients int

	// Reencrypted is how many values were rewritten.
	Reencrypted int
}

// Rotate re-encrypts every encrypted value to the recorded recipient
// set. Trust and untrust rewrite values one atomic write per key, so a
// crash mid-change leaves values split between the old and new sets;
// rotate is the idempotent convergence pass that repairs such a file.
//
// Returns ErrProjectNotFound if no secrets file can be located.
// Returns ErrIdentityNotFound if encrypted values exist and no identity
// is available to re-encrypt them.
func Rotate(ctx context.Context, opts RotateOptions) (*RotateResult, error) {
	path, err := resolveSecretsPath(opts.Path)
	if err != nil {
		return nil, err
	}

	res, err := secrets.Rotate(path)
	if err != nil {
		return nil, err
	}

	return &RotateResult{
		Path:        path,
		Recipients:  res.Recipients,
		Reencrypted: res.Reencrypted,
	}, nil
}
