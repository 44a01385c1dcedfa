// Package validate holds the syntactic rules for secret keys and values.
//
// Keys match ^[A-Z_][A-Z0-9_]*$ and are capped at 256 characters. Keys
// starting with "_" are reserved for file metadata and refused for user
// operations. Values are single-line and capped at 1MB.
//
// The Schema interface lets callers swap in their own validation when
// importing external key/value sets; Rules is the default implementation.
// Validation messages name keys and limits, never values.
package validate
