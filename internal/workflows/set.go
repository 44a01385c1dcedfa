package workflows

import (
	"context"

	"github.com/sealenv/sealenv/internal/secrets"
)

// SetOptions configures the set workflow.
type SetOptions struct {
	// Path is the secrets file. If empty, the project file is discovered.
	Path string

	// Key is the secret key to write.
	Key string

	// Value is the secret value.
	Value string

	// Plaintext stores the value unencrypted when true. The default is
	// to encrypt to the file's recipient set.
	Plaintext bool
}

// SetResult contains the outcome of a set operation.
type SetResult struct {
	// Path is the secrets file that was written.
	Path string

	// Key is the key that was set.
	Key string

	// Encrypted reports whether the stored value is ciphertext.
	Encrypted bool
}

// Set writes one key, replacing it in place or appending it, under the
// file lock with a chained SET audit record.
//
// Returns ErrProjectNotFound if no secrets file can be located.
// Returns ErrIdentityNotFound if encryption needs an identity to
// bootstrap the recipient set and none exists.
func Set(ctx context.Context, opts SetOptions) (*SetResult, error) {
	path, err := resolveSecretsPath(opts.Path)
	if err != nil {
		return nil, err
	}

	if opts.Plaintext {
		err = secrets.SetKey(path, opts.Key, opts.Value)
	} else {
		err = secrets.SetKeyEncrypted(path, opts.Key, opts.Value)
	}
	if err != nil {
		return nil, err
	}

	return &SetResult{Path: path, Key: opts.Key, Encrypted: !opts.Plaintext}, nil
}
