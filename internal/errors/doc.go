// Package errors provides typed error values for sealenv.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching. Conditions
// that carry data (parse position, failing path) are structured types
// matched with errors.As().
//
// # Error Categories
//
//   - Resolution errors: a key has no value (ErrSecretNotFound, ErrVaultKeyNotFound)
//   - Identity errors: no usable decryption identity (ErrIdentityNotFound)
//   - Crypto errors: encryption/decryption failures (ErrDecryptionFailed)
//   - Recipient errors: trusted key set violations (ErrLastRecipient)
//   - Structured errors: ParseError, FileError, ValidationError, VaultError
//
// # Usage
//
// Return errors from internal packages:
//
//	if value == "" {
//	    return "", errors.ErrSecretNotFound
//	}
//
// Handle errors in the CLI layer:
//
//	result, err := workflows.Get(ctx, opts)
//	if errors.Is(err, serrors.ErrSecretNotFound) {
//	    // Show user-friendly message
//	}
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("resolving %s: %w", key, errors.ErrSecretNotFound)
//
// Error messages never contain secret values. Only key names, paths, and
// structural details are surfaced.
package errors
