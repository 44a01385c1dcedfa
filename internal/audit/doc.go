// Package audit maintains the tamper-evident action history embedded in
// each secrets file.
//
// # Record Format
//
// Every mutating operation appends one _AUDIT metadata line:
//
//	_AUDIT=<hash>|<timestamp>|<action>|<key>|<actor>
//
// hash is the SHA-256, in hex, of the previous entry's hash joined with
// this entry's own fields by pipes. The first entry chains from an
// all-zero genesis hash. Actions are INIT, SET, DELETE, TRUST, UNTRUST,
// ROTATE, IMPORT, EXPORT; key names the affected secret, the affected
// recipient public key for TRUST/UNTRUST, or "-" for whole-file actions.
// actor is the public key of the local identity, or "unknown" when none
// is available.
//
// # Verification
//
// Read returns entries in chronological order with a Verified flag. An
// entry verifies only when its recorded hash matches the hash recomputed
// from the previous entry as read and every earlier entry verified.
// Editing, reordering, or deleting any record therefore unverifies
// everything after the damage. Records with the wrong field count are
// skipped on read; the chain break flags their successor.
//
// # Appending
//
// Mutations already holding the file lock use AppendToFile so the audit
// record lands in the same atomic write as the change it describes.
// Append is the standalone form: it takes the lock, re-reads the chain
// tail, and writes one record.
package audit
