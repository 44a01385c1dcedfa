package secrets

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"filippo.io/age"

	"github.com/sealenv/sealenv/internal/atomicfile"
	"github.com/sealenv/sealenv/internal/configs"
	serrors "github.com/sealenv/sealenv/internal/errors"
)

const identityKeyPrefix = "AGE-SECRET-KEY-"

// LoadIdentity returns the local identity. The identity environment
// variable takes precedence for CI and other non-interactive
// environments: it carries the strict canonical base64 of an identity
// file's content and bypasses the store home entirely. Otherwise the
// identity file under the store home is read.
func LoadIdentity() (*age.X25519Identity, error) {
	if encoded, ok := os.LookupEnv(configs.EnvIdentity); ok {
		return identityFromEnv(encoded)
	}

	path := configs.UserSealenvSettings.IdentityPath
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no identity at %s", serrors.ErrIdentityNotFound, path)
		}
		return nil, &serrors.FileError{Message: fmt.Sprintf("failed to read identity file %s", path), Err: err}
	}

	id, err := parseIdentityText(data)
	if err != nil {
		return nil, fmt.Errorf("invalid identity file %s: %w", path, err)
	}
	return id, nil
}

// identityFromEnv decodes an environment-supplied identity. Format
// checking is strict: embedded whitespace and non-canonical base64 are
// rejected before any parse attempt.
func identityFromEnv(encoded string) (*age.X25519Identity, error) {
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty value", serrors.ErrInvalidIdentityEnv)
	}
	if strings.ContainsAny(encoded, " \t\r\n") {
		return nil, fmt.Errorf("%w: embedded whitespace", serrors.ErrInvalidIdentityEnv)
	}
	data, err := base64.StdEncoding.Strict().DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: not canonical base64", serrors.ErrInvalidIdentityEnv)
	}
	id, err := parseIdentityText(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", serrors.ErrInvalidIdentityEnv, err)
	}
	return id, nil
}

// parseIdentityText extracts the secret key from identity file content:
// comment and blank lines around a single AGE-SECRET-KEY line.
func parseIdentityText(data []byte) (*age.X25519Identity, error) {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, identityKeyPrefix) {
			id, err := age.ParseX25519Identity(line)
			if err != nil {
				return nil, fmt.Errorf("failed to parse secret key: %v", err)
			}
			return id, nil
		}
	}
	return nil, fmt.Errorf("no secret key line found")
}

// CreateIdentity generates a new identity and saves it under the store
// home with owner-only permissions, failing if one already exists.
func CreateIdentity() (*age.X25519Identity, error) {
	if err := configs.EnsureStoreHome(); err != nil {
		return nil, err
	}

	path := configs.UserSealenvSettings.IdentityPath
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", serrors.ErrIdentityExists, path)
	}

	id, err := GenerateIdentity()
	if err != nil {
		return nil, err
	}
	if err := saveIdentity(path, id); err != nil {
		return nil, err
	}
	return id, nil
}

// saveIdentity writes the identity file with the same header comments
// age-keygen produces, so the file round-trips through other age
// tooling.
func saveIdentity(path string, id *age.X25519Identity) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# created: %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "# public key: %s\n", PublicKey(id))
	fmt.Fprintf(&b, "%s\n", id.String())

	return atomicfile.WriteFile(path, []byte(b.String()), 0600)
}

// IdentityExists reports whether an identity is available from the
// environment or the store home, without validating it.
func IdentityExists() bool {
	if _, ok := os.LookupEnv(configs.EnvIdentity); ok {
		return true
	}
	_, err := os.Stat(configs.UserSealenvSettings.IdentityPath)
	return err == nil
}
