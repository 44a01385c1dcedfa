package workflows

import (
	"context"

	"github.com/sealenv/sealenv/internal/secretfile"
)

// KindPlain, KindEncrypted, and KindVault label how a listed value is
// stored.
const (
	KindPlain     = "plain"
	KindEncrypted = "encrypted"
	KindVault     = "vault"
)

// ListEntry describes one secret without exposing its value.
type ListEntry struct {
	// Key is the secret key.
	Key string

	// Kind labels the storage form: plain, encrypted, or vault.
	Kind string
}

// ListOptions configures the list workflow.
type ListOptions struct {
	// Path is the secrets file. If empty, the project file is discovered.
	Path string
}

// ListResult contains the outcome of a list operation.
type ListResult struct {
	// Path is the secrets file that was read.
	Path string

	// Entries are the user keys in file order. Values are never included.
	Entries []ListEntry
}

// List returns the file's user keys and how each value is stored.
// Values are not decrypted or returned.
//
// Returns ErrProjectNotFound if no secrets file can be located.
func List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	path, err := resolveSecretsPath(opts.Path)
	if err != nil {
		return nil, err
	}

	f, err := secretfile.Load(path)
	if err != nil {
		return nil, err
	}

	res := &ListResult{Path: path}
	for _, e := range f.Entries() {
		res.Entries = append(res.Entries, ListEntry{Key: e.Key, Kind: kindLabel(e.Kind)})
	}
	return res, nil
}

func kindLabel(k secretfile.Kind) string {
	switch k {
	case secretfile.KindEncrypted:
		return KindEncrypted
	case secretfile.KindVaultRef:
		return KindVault
	default:
		return KindPlain
	}
}
