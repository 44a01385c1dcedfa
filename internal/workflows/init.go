package workflows

import (
	"context"

	"github.com/sealenv/sealenv/internal/configs"
	"github.com/sealenv/sealenv/internal/secrets"
)

// InitOptions configures the init workflow.
type InitOptions struct {
	// Path is the secrets file to create. If empty, uses the file
	// override variable or the configured name in the working directory.
	Path string
}

// InitResult contains the outcome of an init operation.
type InitResult struct {
	// Path is the created secrets file.
	Path string

	// PublicKey is the owner's recipient key recorded in the file.
	PublicKey string

	// CreatedIdentity reports whether a new identity was generated.
	CreatedIdentity bool

	// IdentityPath is where the identity lives on disk.
	IdentityPath string
}

// Init creates a new secrets file with the local identity as its first
// recipient, generating the identity on first use. The file starts with
// a verified INIT audit record.
//
// Returns ErrAlreadyInitialized if the file already exists.
func Init(ctx context.Context, opts InitOptions) (*InitResult, error) {
	path, err := initTargetPath(opts.Path)
	if err != nil {
		return nil, err
	}

	res, err := secrets.InitProject(path)
	if err != nil {
		return nil, err
	}

	return &InitResult{
		Path:            res.Path,
		PublicKey:       res.PublicKey,
		CreatedIdentity: res.CreatedIdentity,
		IdentityPath:    configs.UserSealenvSettings.IdentityPath,
	}, nil
}
