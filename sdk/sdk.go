// Package sdk is the library entry point for reading sealenv secrets
// from application code.
//
// A Client resolves keys the same way the CLI's get command does:
// process environment variables win, then the project secrets file,
// decrypting encrypted values with the local identity (or the identity
// environment variable in CI) and following vault references into the
// user vault. Resolved values are cached until the underlying file's
// path, modification time, or size changes, so repeated lookups are
// cheap while external writes are always picked up.
//
//	client := sdk.Open()
//	dbURL, err := client.Get("DATABASE_URL")
//
// A Client is safe for concurrent use and holds no cross-process
// resource: it never takes the file lock, relying on the atomic-rename
// write convention to see complete file states only.
package sdk

import (
	serrors "github.com/sealenv/sealenv/internal/errors"
	"github.com/sealenv/sealenv/internal/secrets"
)

// ErrSecretNotFound is returned by Get when a key resolves nowhere:
// not in the process environment, not in the secrets file.
var ErrSecretNotFound = serrors.ErrSecretNotFound

// ErrIdentityNotFound is returned when a value is encrypted and no
// usable identity exists on disk or in the environment.
var ErrIdentityNotFound = serrors.ErrIdentityNotFound

// Client reads secrets for one project.
type Client struct {
	resolver *secrets.Resolver
}

// Open returns a Client that discovers the project secrets file on
// every access: the file override environment variable when set, else
// the nearest secrets file walking up from the working directory.
func Open() *Client {
	return &Client{resolver: secrets.NewDiscoveringResolver()}
}

// OpenFile returns a Client pinned to an explicit secrets file path.
func OpenFile(path string) *Client {
	return &Client{resolver: secrets.NewResolver(path)}
}

// Get resolves key to its plaintext value.
//
// Returns ErrSecretNotFound if the key is absent everywhere and
// ErrIdentityNotFound if decryption is needed but no identity is
// available.
func (c *Client) Get(key string) (string, error) {
	return c.resolver.Get(key)
}

// Has reports whether key resolves, without returning its value. A key
// whose decryption fails still reports true: it exists, it is merely
// unreadable with the current identity.
func (c *Client) Has(key string) bool {
	return c.resolver.Has(key)
}

// Keys returns the user-visible secret keys of the project file, in
// file order. Environment-only variables are not included; metadata
// keys never appear.
func (c *Client) Keys() ([]string, error) {
	return c.resolver.Keys()
}

// Invalidate drops every cached value and the file snapshot. The next
// access re-reads the file. Staleness is also detected automatically
// whenever the file's path, modification time, or size changes;
// Invalidate exists for callers who need a hard cut, such as after
// rotating the vault.
func (c *Client) Invalidate() {
	c.resolver.Invalidate()
}
