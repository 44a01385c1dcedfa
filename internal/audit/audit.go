package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/sealenv/sealenv/internal/atomicfile"
	"github.com/sealenv/sealenv/internal/lockfile"
	"github.com/sealenv/sealenv/internal/secretfile"
)

// Actions recorded in the audit chain.
const (
	ActionInit    = "INIT"
	ActionSet     = "SET"
	ActionDelete  = "DELETE"
	ActionTrust   = "TRUST"
	ActionUntrust = "UNTRUST"
	ActionRotate  = "ROTATE"
	ActionImport  = "IMPORT"
	ActionExport  = "EXPORT"
)

// GenesisHash anchors the chain: the previous hash of the first entry.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// NoKey fills the key position for actions that affect the whole file
// rather than a single secret.
const NoKey = "-"

// UnknownActor fills the actor position when no local identity is
// available. A missing identity never blocks an audit append.
const UnknownActor = "unknown"

// TimestampFormat renders UTC with microsecond precision.
const TimestampFormat = "2006-01-02T15:04:05.000000Z"

// Entry is one audit record. Hash commits to the previous entry's hash
// and this entry's own fields. Verified is set by readers: true iff the
// recorded hash matches the recomputed one and every earlier entry
// verified. For TRUST and UNTRUST the key position records the affected
// recipient public key.
type Entry struct {
	Hash      string `json:"hash"`
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Key       string `json:"key"`
	Actor     string `json:"actor"`
	Verified  bool   `json:"verified"`
}

// Payload renders the entry's pipe-separated wire form, the part after
// "_AUDIT=". None of the fields can contain a pipe: keys are constrained
// by the key regex, actions are from a fixed set, actors are encoded
// public keys, timestamps are fixed-format.
func (e Entry) Payload() string {
	return strings.Join([]string{e.Hash, e.Timestamp, e.Action, e.Key, e.Actor}, "|")
}

// Time parses the entry's timestamp.
func (e Entry) Time() (time.Time, error) {
	return time.Parse(TimestampFormat, e.Timestamp)
}

// hashEntry commits to the previous hash and this entry's fields.
func hashEntry(prevHash, timestamp, action, key, actor string) string {
	sum := sha256.Sum256([]byte(prevHash + "|" + timestamp + "|" + action + "|" + key + "|" + actor))
	return hex.EncodeToString(sum[:])
}

// newEntry stamps and chains one entry after prevHash.
func newEntry(prevHash string, at time.Time, action, key, actor string) Entry {
	ts := at.UTC().Format(TimestampFormat)
	return Entry{
		Hash:      hashEntry(prevHash, ts, action, key, actor),
		Timestamp: ts,
		Action:    action,
		Key:       key,
		Actor:     actor,
	}
}

// parsePayload splits one wire record. Payloads with the wrong field
// count are malformed and rejected; the reader skips them, and the hash
// chain then flags the following entry.
func parsePayload(payload string) (Entry, bool) {
	fields := strings.Split(payload, "|")
	if len(fields) != 5 {
		return Entry{}, false
	}
	return Entry{
		Hash:      fields[0],
		Timestamp: fields[1],
		Action:    fields[2],
		Key:       fields[3],
		Actor:     fields[4],
	}, true
}

// AppendToFile chains one new entry onto an in-memory file, to be
// persisted by the caller in the same write as the mutation it records.
// The caller holds the file's lock.
func AppendToFile(f *secretfile.File, action, key, actor string) Entry {
	e := newEntry(tailHash(f), time.Now().UTC(), action, key, actor)
	f.AppendAuditPayload(e.Payload())
	return e
}

// tailHash returns the hash of the last parsable entry, or the genesis
// hash for an unstarted chain.
func tailHash(f *secretfile.File) string {
	payloads := f.AuditPayloads()
	for i := len(payloads) - 1; i >= 0; i-- {
		if e, ok := parsePayload(payloads[i]); ok {
			return e.Hash
		}
	}
	return GenesisHash
}

// Append records one action against the secrets file at path. It takes
// the same lock as any other mutation, re-reads the chain tail under
// the lock, and appends a single audit record atomically.
func Append(path, action, key, actor string) error {
	return lockfile.WithLock(path, func() error {
		f, err := secretfile.Load(path)
		if err != nil {
			return err
		}
		AppendToFile(f, action, key, actor)
		return atomicfile.WriteFile(path, f.Render(), 0600)
	})
}

// Read returns the audit chain of the secrets file at path in
// chronological order, each entry annotated with its verification
// result. A missing file yields an empty chain.
func Read(path string) ([]Entry, error) {
	f, err := secretfile.Load(path)
	if err != nil {
		return nil, err
	}
	return Verify(f), nil
}

// Verify walks the file's audit records in order, recomputing each
// entry's hash from the previous entry as read. An entry is verified
// only when its recorded hash matches and every entry before it
// verified, so one corrupted or removed record breaks every entry after
// it. That is the tamper signal: a gap is exactly as detectable as a
// modification.
func Verify(f *secretfile.File) []Entry {
	var entries []Entry

	prevHash := GenesisHash
	prevOK := true
	for _, payload := range f.AuditPayloads() {
		e, ok := parsePayload(payload)
		if !ok {
			continue
		}

		expected := hashEntry(prevHash, e.Timestamp, e.Action, e.Key, e.Actor)
		e.Verified = prevOK && e.Hash == expected
		entries = append(entries, e)

		prevHash = e.Hash
		prevOK = e.Verified
	}

	return entries
}
