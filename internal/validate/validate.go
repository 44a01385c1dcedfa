package validate

import (
	"fmt"
	"regexp"
	"strings"

	serrors "github.com/sealenv/sealenv/internal/errors"
)

// MetadataPrefix marks reserved keys that carry file metadata rather than
// user secrets (_RECIPIENT, _AUDIT). The key syntax admits them; user
// operations must not.
const MetadataPrefix = "_"

// Limits on key and value sizes. Values are single lines, so size is the
// only dimension worth bounding.
const (
	MaxKeyLength = 256
	MaxValueSize = 1 << 20 // 1MB
)

// keyPattern is the accepted key syntax: uppercase, digits, underscores,
// not starting with a digit.
var keyPattern = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)

// Key checks a key's syntax. Metadata keys pass; use UserKey for keys a
// caller is setting or resolving.
func Key(key string) error {
	if key == "" {
		return &serrors.ValidationError{Field: "key", Message: "key must not be empty"}
	}
	if len(key) > MaxKeyLength {
		return &serrors.ValidationError{Field: "key", Message: fmt.Sprintf("key exceeds %d characters", MaxKeyLength)}
	}
	if !keyPattern.MatchString(key) {
		return &serrors.ValidationError{Field: "key", Message: fmt.Sprintf("key %q must match %s", key, keyPattern.String())}
	}
	return nil
}

// UserKey checks a key's syntax and rejects the reserved metadata prefix.
func UserKey(key string) error {
	if err := Key(key); err != nil {
		return err
	}
	if strings.HasPrefix(key, MetadataPrefix) {
		return &serrors.ValidationError{Field: "key", Message: fmt.Sprintf("key %q uses the reserved metadata prefix %q", key, MetadataPrefix)}
	}
	return nil
}

// Value checks a value for storage. Values live on a single line of the
// secret file, so embedded line breaks are rejected alongside the size
// limit. The message never echoes the value.
func Value(value string) error {
	if len(value) > MaxValueSize {
		return &serrors.ValidationError{Field: "value", Message: fmt.Sprintf("value exceeds %d bytes", MaxValueSize)}
	}
	if strings.ContainsAny(value, "\r\n") {
		return &serrors.ValidationError{Field: "value", Message: "value must not contain line breaks"}
	}
	return nil
}

// Problem describes a single validation failure for one key. Messages name
// keys, never values.
type Problem struct {
	Key     string
	Message string
}

// Schema validates a raw key/value mapping and returns the accepted subset.
// Callers may supply their own implementation; Rules is the default.
type Schema interface {
	Validate(raw map[string]string) (map[string]string, []Problem)
}

// Rules is the default Schema: every pair must pass UserKey and Value.
type Rules struct{}

// Validate applies the default key and value rules to every pair. Pairs
// that fail are reported as Problems and omitted from the result.
func (Rules) Validate(raw map[string]string) (map[string]string, []Problem) {
	accepted := make(map[string]string, len(raw))
	var problems []Problem

	for key, value := range raw {
		if err := UserKey(key); err != nil {
			problems = append(problems, Problem{Key: key, Message: err.Error()})
			continue
		}
		if err := Value(value); err != nil {
			problems = append(problems, Problem{Key: key, Message: err.Error()})
			continue
		}
		accepted[key] = value
	}

	return accepted, problems
}
