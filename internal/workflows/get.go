package workflows

import (
	"context"

	"github.com/sealenv/sealenv/internal/secrets"
)

// GetOptions configures the get workflow.
type GetOptions struct {
	// Path pins the secrets file. If empty, the project file is
	// discovered on access.
	Path string

	// Key is the secret key to resolve.
	Key string
}

// GetResult contains the outcome of a get operation.
type GetResult struct {
	// Key is the resolved key.
	Key string

	// Value is the resolved plaintext value.
	Value string
}

// Get resolves one key the same way the SDK does: process environment
// variables win, then the file, decrypting ciphertext and following
// vault references.
//
// Returns ErrSecretNotFound if the key resolves nowhere.
// Returns ErrIdentityNotFound if the value is encrypted and no identity
// is available.
func Get(ctx context.Context, opts GetOptions) (*GetResult, error) {
	var r *secrets.Resolver
	if opts.Path != "" {
		r = secrets.NewResolver(opts.Path)
	} else {
		r = secrets.NewDiscoveringResolver()
	}

	value, err := r.Get(opts.Key)
	if err != nil {
		return nil, err
	}
	return &GetResult{Key: opts.Key, Value: value}, nil
}
