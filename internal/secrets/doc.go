// Package secrets implements the domain operations over secrets files:
// identity handling, value encryption, mutations, recipient rotation,
// the user vault, and the read-side resolver.
//
// # Encryption Architecture
//
// Values are encrypted with age (x25519, multi-recipient). The file
// records who can read its ciphertexts as _RECIPIENT metadata lines;
// encrypting a value targets every recorded recipient, so any trusted
// identity can decrypt it without key exchange. The recipient set is
// never left empty while ciphertext exists: first use bootstraps it
// with the local identity's own public key.
//
// # Identity
//
// The local identity lives in one owner-only file under the store home
// and is generated on first init. Non-interactive environments supply
// it as strict base64 through the identity environment variable
// instead; that path never touches the store home.
//
// # Mutations
//
// SetKey, SetKeyEncrypted, DeleteKey, Trust, Untrust, and Rotate all
// follow the same discipline: take the file lock, re-read current
// state, rewrite atomically, and append a chained audit record in the
// same write. Trust and untrust persist the recipient change first and
// then rewrite each encrypted value individually; a crash mid-rotation
// leaves a mixed file, which Rotate converges.
//
// # Reads
//
// Resolver serves gets without ever taking the lock: environment
// variables first, then the parsed file, decrypting and caching as
// needed, with vault references delegated to the per-user Vault. Both
// caches invalidate on (mtime, size) staleness, so cross-process writes
// are picked up on the next access.
package secrets
