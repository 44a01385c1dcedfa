package workflows

import (
	"context"

	"github.com/sealenv/sealenv/internal/secrets"
)

// VaultGetOptions configures the vault get workflow.
type VaultGetOptions struct {
	// Key is the vault key to read.
	Key string
}

// VaultGetResult contains the outcome of a vault get operation.
type VaultGetResult struct {
	// Key is the resolved vault key.
	Key string

	// Value is the decrypted value.
	Value string
}

// VaultGet reads one key from the user vault.
//
// Returns ErrVaultKeyNotFound if the vault does not hold the key.
// Returns ErrIdentityNotFound (wrapped in a VaultError) if the vault
// exists but no identity is available to decrypt it.
func VaultGet(ctx context.Context, opts VaultGetOptions) (*VaultGetResult, error) {
	value, err := secrets.OpenVault().Get(opts.Key)
	if err != nil {
		return nil, err
	}
	return &VaultGetResult{Key: opts.Key, Value: value}, nil
}

// VaultSetOptions configures the vault set workflow.
type VaultSetOptions struct {
	// Key is the vault key to write.
	Key string

	// Value is the value to store.
	Value string
}

// VaultSetResult contains the outcome of a vault set operation.
type VaultSetResult struct {
	// Key is the written vault key.
	Key string
}

// VaultSet writes one key into the user vault as a lock-protected
// read-modify-write of the whole encrypted blob.
func VaultSet(ctx context.Context, opts VaultSetOptions) (*VaultSetResult, error) {
	if err := secrets.OpenVault().Set(opts.Key, opts.Value); err != nil {
		return nil, err
	}
	return &VaultSetResult{Key: opts.Key}, nil
}

// VaultDeleteOptions configures the vault delete workflow.
type VaultDeleteOptions struct {
	// Key is the vault key to remove.
	Key string
}

// VaultDeleteResult contains the outcome of a vault delete operation.
type VaultDeleteResult struct {
	// Key is the removed vault key.
	Key string
}

// VaultDelete removes one key from the user vault. Project files still
// referencing it will fail to resolve until they are updated.
//
// Returns ErrVaultKeyNotFound if the vault does not hold the key.
func VaultDelete(ctx context.Context, opts VaultDeleteOptions) (*VaultDeleteResult, error) {
	if err := secrets.OpenVault().Delete(opts.Key); err != nil {
		return nil, err
	}
	return &VaultDeleteResult{Key: opts.Key}, nil
}

// VaultListResult contains the outcome of a vault list operation.
type VaultListResult struct {
	// Keys are the vault keys, sorted. Values are never included.
	Keys []string
}

// VaultList returns the vault's keys without their values.
func VaultList(ctx context.Context) (*VaultListResult, error) {
	keys, err := secrets.OpenVault().List()
	if err != nil {
		return nil, err
	}
	return &VaultListResult{Keys: keys}, nil
}
