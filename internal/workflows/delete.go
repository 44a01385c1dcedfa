package workflows

import (
	"context"

	"github.com/sealenv/sealenv/internal/secrets"
)

// DeleteOptions configures the delete workflow.
type DeleteOptions struct {
	// Path is the secrets file. If empty, the project file is discovered.
	Path string

	// Key is the secret key to remove.
	Key string
}

// DeleteResult contains the outcome of a delete operation.
type DeleteResult struct {
	// Path is the secrets file that was written.
	Path string

	// Key is the key that was removed.
	Key string
}

// Delete removes one key under the file lock with a chained DELETE
// audit record. All other lines keep their relative order.
//
// Returns ErrProjectNotFound if no secrets file can be located.
// Returns ErrSecretNotFound if the key is not in the file.
func Delete(ctx context.Context, opts DeleteOptions) (*DeleteResult, error) {
	path, err := resolveSecretsPath(opts.Path)
	if err != nil {
		return nil, err
	}

	if err := secrets.DeleteKey(path, opts.Key); err != nil {
		return nil, err
	}

	return &DeleteResult{Path: path, Key: opts.Key}, nil
}
