package errors

import (
	"errors"
	"fmt"
)

// Secret resolution errors indicate a key could not be resolved to a value.
var (
	// ErrSecretNotFound indicates the key is absent from both the process
	// environment and the secret file.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrProjectNotFound indicates no secret file could be located from the
	// working directory upward.
	ErrProjectNotFound = errors.New("no secret file found for this project")

	// ErrVaultKeyNotFound indicates a vault reference points at a key the
	// vault does not hold.
	ErrVaultKeyNotFound = errors.New("key not found in vault")
)

// Identity errors indicate the local decryption identity is missing or unusable.
var (
	// ErrIdentityNotFound indicates no usable identity exists on disk or in
	// the environment for an operation that needs one.
	ErrIdentityNotFound = errors.New("no identity found")

	// ErrInvalidIdentityEnv indicates the identity environment variable is
	// set but does not hold canonical base64 without whitespace.
	ErrInvalidIdentityEnv = errors.New("identity environment variable is not canonical base64")

	// ErrIdentityExists indicates an identity file is already present where
	// a new one would be generated.
	ErrIdentityExists = errors.New("identity already exists")
)

// Cryptographic errors indicate failures during encryption or decryption.
// Messages never include plaintext or ciphertext.
var (
	// ErrEncryptionFailed indicates a value could not be encrypted to the
	// recipient set.
	ErrEncryptionFailed = errors.New("failed to encrypt value")

	// ErrDecryptionFailed indicates ciphertext is present but unreadable
	// with the available identity.
	ErrDecryptionFailed = errors.New("failed to decrypt value")
)

// Recipient errors indicate problems with the trusted public key set.
var (
	// ErrInvalidRecipient indicates the string is not a valid age public key.
	ErrInvalidRecipient = errors.New("invalid recipient public key")

	// ErrLastRecipient indicates removal would leave encrypted data with no
	// recipient able to decrypt it.
	ErrLastRecipient = errors.New("cannot remove the last recipient")

	// ErrRecipientNotFound indicates the public key is not in the trusted set.
	ErrRecipientNotFound = errors.New("recipient is not trusted")
)

// File state errors indicate issues with the secret file's presence or shape.
var (
	// ErrAlreadyInitialized indicates a secret file already exists where
	// init would create one.
	ErrAlreadyInitialized = errors.New("secret file already exists")

	// ErrNoFilesFound indicates no files matched the provided patterns.
	ErrNoFilesFound = errors.New("no matching files found")

	// ErrInvalidDateFormat indicates a date filter was not in YYYY-MM-DD form.
	ErrInvalidDateFormat = errors.New("invalid date format")

	// ErrUnsupportedFormat indicates an export format other than env, toml,
	// or json was requested.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// ParseError reports malformed secret file syntax. It carries the one-based
// line number and the raw line text so the offending line can be located.
type ParseError struct {
	Line    int
	Raw     string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error on line %d: %s", e.Line, e.Message)
}

// FileError reports a filesystem-level failure: I/O, permissions, lock
// timeouts, or a rejected symlink.
type FileError struct {
	Message string
	Err     error
}

func (e *FileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// ValidationError reports a key or value that fails syntactic validation.
// It names the field but never echoes a secret value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// VaultError reports a vault load, save, or reference-resolution failure.
type VaultError struct {
	Op  string
	Err error
}

func (e *VaultError) Error() string {
	return fmt.Sprintf("vault %s: %v", e.Op, e.Err)
}

func (e *VaultError) Unwrap() error {
	return e.Err
}
