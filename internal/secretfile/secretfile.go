package secretfile

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	serrors "github.com/sealenv/sealenv/internal/errors"
	"github.com/sealenv/sealenv/internal/utils"
	"github.com/sealenv/sealenv/internal/validate"
)

const (
	// EncPrefix marks a value as an age ciphertext, base64-encoded.
	EncPrefix = "enc:age:"

	// VaultPrefix marks a value as a reference into the user vault.
	VaultPrefix = "vault:"

	// RecipientKey is the metadata key recording one trusted public key
	// per line.
	RecipientKey = "_RECIPIENT"

	// AuditKey is the metadata key carrying one hash-chained audit
	// record per line.
	AuditKey = "_AUDIT"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Kind classifies how a user entry stores its value.
type Kind int

const (
	// KindPlain is a value stored in the clear.
	KindPlain Kind = iota

	// KindEncrypted is an age ciphertext.
	KindEncrypted

	// KindVaultRef points at a key in the user vault.
	KindVaultRef
)

// Entry is one user-visible KEY=VALUE pair. Line is 1-based and reflects
// the entry's current position in the file.
type Entry struct {
	Key   string
	Value string
	Kind  Kind
	Line  int
}

type lineKind int

const (
	lineBlank lineKind = iota
	lineComment
	lineEntry
	lineMeta
)

type fileLine struct {
	raw  string
	kind lineKind
	key  string
	val  string
}

// File is the parsed line model of one secrets file. It preserves every
// line, comments and blanks included, so a rewrite only changes the
// lines an operation touched.
type File struct {
	lines []*fileLine
	byKey map[string]*fileLine
}

// Parse builds a File from raw bytes. It is a pure function of its
// input: no clock, filesystem, or network, so it is safe to call
// speculatively for staleness checks.
//
// A leading UTF-8 BOM is stripped. Blank lines and lines whose first
// non-space character is '#' are kept but carry no meaning. Every other
// line must be KEY=VALUE: the key is everything before the first '=',
// validated by the validate package, with validator failures returned
// as-is. Keys with the metadata prefix may repeat; any other key seen
// twice is a fatal ParseError. CRLF line endings are accepted and
// normalized to LF on rewrite.
func Parse(data []byte) (*File, error) {
	f := &File{byKey: make(map[string]*fileLine)}

	text := string(bytes.TrimPrefix(data, utf8BOM))
	if len(text) == 0 {
		return f, nil
	}

	rawLines := strings.Split(text, "\n")
	if rawLines[len(rawLines)-1] == "" {
		rawLines = rawLines[:len(rawLines)-1]
	}

	for i, raw := range rawLines {
		raw = strings.TrimSuffix(raw, "\r")
		lineNo := i + 1

		trimmed := strings.TrimSpace(raw)
		switch {
		case trimmed == "":
			f.lines = append(f.lines, &fileLine{raw: raw, kind: lineBlank})

		case strings.HasPrefix(trimmed, "#"):
			f.lines = append(f.lines, &fileLine{raw: raw, kind: lineComment})

		default:
			eq := strings.Index(raw, "=")
			if eq < 0 {
				return nil, &serrors.ParseError{Line: lineNo, Raw: raw, Message: "missing '=' separator"}
			}
			key, val := raw[:eq], raw[eq+1:]
			if err := validate.Key(key); err != nil {
				return nil, err
			}

			if strings.HasPrefix(key, validate.MetadataPrefix) {
				f.lines = append(f.lines, &fileLine{raw: raw, kind: lineMeta, key: key, val: val})
				continue
			}

			if _, dup := f.byKey[key]; dup {
				return nil, &serrors.ParseError{Line: lineNo, Raw: raw, Message: fmt.Sprintf("Duplicate key '%s'", key)}
			}
			fl := &fileLine{raw: raw, kind: lineEntry, key: key, val: val}
			f.lines = append(f.lines, fl)
			f.byKey[key] = fl
		}
	}

	return f, nil
}

// Load reads and parses the secrets file at path. A missing file is the
// legitimate initial state and parses as empty; a symlink is refused.
func Load(path string) (*File, error) {
	if err := utils.RejectSymlink(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Parse(nil)
		}
		return nil, &serrors.FileError{Message: fmt.Sprintf("failed to read %s", path), Err: err}
	}
	return Parse(data)
}

// Render serializes the file back to bytes. Untouched lines come back
// byte-identical; trailing blank lines collapse into the single final
// newline. An empty file renders to no bytes.
func (f *File) Render() []byte {
	end := len(f.lines)
	for end > 0 && f.lines[end-1].kind == lineBlank {
		end--
	}
	if end == 0 {
		return nil
	}

	var b strings.Builder
	for _, ln := range f.lines[:end] {
		b.WriteString(ln.raw)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Lookup returns the user entry for key.
func (f *File) Lookup(key string) (Entry, bool) {
	fl, ok := f.byKey[key]
	if !ok {
		return Entry{}, false
	}
	for i, ln := range f.lines {
		if ln == fl {
			return Entry{Key: fl.key, Value: fl.val, Kind: Classify(fl.val), Line: i + 1}, true
		}
	}
	return Entry{}, false
}

// Has reports whether key exists as a user entry.
func (f *File) Has(key string) bool {
	_, ok := f.byKey[key]
	return ok
}

// Entries returns all user entries in file order. Metadata lines are
// never included.
func (f *File) Entries() []Entry {
	var out []Entry
	for i, ln := range f.lines {
		if ln.kind == lineEntry {
			out = append(out, Entry{Key: ln.key, Value: ln.val, Kind: Classify(ln.val), Line: i + 1})
		}
	}
	return out
}

// Keys returns the user key set in file order.
func (f *File) Keys() []string {
	var out []string
	for _, ln := range f.lines {
		if ln.kind == lineEntry {
			out = append(out, ln.key)
		}
	}
	return out
}

// Len is the number of user entries.
func (f *File) Len() int {
	return len(f.byKey)
}

// EncryptedCount counts user entries holding ciphertext.
func (f *File) EncryptedCount() int {
	n := 0
	for _, ln := range f.lines {
		if ln.kind == lineEntry && IsEncrypted(ln.val) {
			n++
		}
	}
	return n
}

// PlaintextCount counts user entries whose stored value is readable,
// vault references included.
func (f *File) PlaintextCount() int {
	return f.Len() - f.EncryptedCount()
}

// Set replaces the value of an existing entry in place, or appends a new
// entry at the end of the file. Callers validate key and value first.
func (f *File) Set(key, value string) {
	if fl, ok := f.byKey[key]; ok {
		fl.val = value
		fl.raw = key + "=" + value
		return
	}
	fl := &fileLine{raw: key + "=" + value, kind: lineEntry, key: key, val: value}
	f.lines = append(f.lines, fl)
	f.byKey[key] = fl
}

// Delete removes the entry for key, reporting whether it existed. All
// other lines keep their relative order.
func (f *File) Delete(key string) bool {
	fl, ok := f.byKey[key]
	if !ok {
		return false
	}
	delete(f.byKey, key)
	f.removeLine(fl)
	return true
}

func (f *File) removeLine(target *fileLine) {
	for i, ln := range f.lines {
		if ln == target {
			f.lines = append(f.lines[:i], f.lines[i+1:]...)
			return
		}
	}
}

// Recipients returns the recorded recipient public keys in file order.
func (f *File) Recipients() []string {
	var out []string
	for _, ln := range f.lines {
		if ln.kind == lineMeta && ln.key == RecipientKey {
			out = append(out, ln.val)
		}
	}
	return out
}

// AddRecipient appends a recipient record, grouped with any existing
// recipient records.
func (f *File) AddRecipient(pub string) {
	fl := &fileLine{raw: RecipientKey + "=" + pub, kind: lineMeta, key: RecipientKey, val: pub}

	last := -1
	for i, ln := range f.lines {
		if ln.kind == lineMeta && ln.key == RecipientKey {
			last = i
		}
	}
	if last >= 0 {
		tail := append([]*fileLine{fl}, f.lines[last+1:]...)
		f.lines = append(f.lines[:last+1], tail...)
		return
	}
	f.lines = append(f.lines, fl)
}

// RemoveRecipient deletes every recipient record for pub, reporting
// whether any existed.
func (f *File) RemoveRecipient(pub string) bool {
	removed := false
	var kept []*fileLine
	for _, ln := range f.lines {
		if ln.kind == lineMeta && ln.key == RecipientKey && ln.val == pub {
			removed = true
			continue
		}
		kept = append(kept, ln)
	}
	f.lines = kept
	return removed
}

// AuditPayloads returns the raw audit record payloads in file order,
// without the metadata key prefix.
func (f *File) AuditPayloads() []string {
	var out []string
	for _, ln := range f.lines {
		if ln.kind == lineMeta && ln.key == AuditKey {
			out = append(out, ln.val)
		}
	}
	return out
}

// AppendAuditPayload appends one audit record at the end of the file.
// Audit records are chronological and append-only.
func (f *File) AppendAuditPayload(payload string) {
	f.lines = append(f.lines, &fileLine{raw: AuditKey + "=" + payload, kind: lineMeta, key: AuditKey, val: payload})
}

// Classify reports how a raw value stores its content.
func Classify(value string) Kind {
	switch {
	case strings.HasPrefix(value, EncPrefix):
		return KindEncrypted
	case strings.HasPrefix(value, VaultPrefix):
		return KindVaultRef
	default:
		return KindPlain
	}
}

// IsEncrypted reports whether value carries the ciphertext prefix.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, EncPrefix)
}

// IsVaultRef reports whether value is a vault reference.
func IsVaultRef(value string) bool {
	return strings.HasPrefix(value, VaultPrefix)
}

// VaultKey extracts the vault key from a vault reference value.
func VaultKey(value string) (string, bool) {
	if !IsVaultRef(value) {
		return "", false
	}
	return strings.TrimPrefix(value, VaultPrefix), true
}

// WrapEncrypted builds a stored value from base64 ciphertext.
func WrapEncrypted(ciphertext string) string {
	return EncPrefix + ciphertext
}

// UnwrapEncrypted extracts the base64 ciphertext from a stored value.
func UnwrapEncrypted(value string) (string, bool) {
	if !IsEncrypted(value) {
		return "", false
	}
	return strings.TrimPrefix(value, EncPrefix), true
}
