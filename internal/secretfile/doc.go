// Package secretfile owns the on-disk secrets file format.
//
// A secrets file is newline-terminated UTF-8 text. Each non-blank,
// non-comment line is KEY=VALUE. Keys match ^[A-Z_][A-Z0-9_]*$ and are
// unique; keys with the "_" metadata prefix are reserved and may repeat:
//
//	_RECIPIENT=age1...            one trusted public key per line
//	_AUDIT=<hash>|<ts>|<action>|<key>|<actor>   hash-chained audit record
//
// Values are plaintext unless they carry a reserved prefix:
//
//	enc:age:<base64>   age ciphertext
//	vault:<key>        reference into the user vault
//
// File is a full line model: parsing keeps comments, blank lines, and
// ordering, so Render writes back exactly what was read apart from the
// lines an operation changed. Audit records always append at the end;
// recipient records stay grouped together.
package secretfile
