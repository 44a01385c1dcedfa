package workflows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sealenv/sealenv/internal/audit"
	serrors "github.com/sealenv/sealenv/internal/errors"
)

// LogOptions configures the audit log workflow.
type LogOptions struct {
	// Path is the secrets file. If empty, the project file is discovered.
	Path string

	// Limit is the maximum number of entries to return. 0 means no limit.
	Limit int

	// Reverse orders entries from most recent to oldest when true.
	Reverse bool

	// Actions filters entries by action names (comma-separated,
	// case-insensitive): set, delete, trust, and so on.
	Actions string

	// Key filters entries to one secret key or recipient key.
	Key string

	// Since filters entries at or after this date (YYYY-MM-DD).
	Since string

	// Until filters entries at or before this date (YYYY-MM-DD).
	Until string
}

// LogResult contains the outcome of an audit log operation.
type LogResult struct {
	// Path is the secrets file that was read.
	Path string

	// Entries are the filtered audit entries, each carrying its chain
	// verification result.
	Entries []audit.Entry

	// Total is the chain length before filtering.
	Total int

	// Unverified is how many entries in the whole chain fail
	// verification, regardless of filters.
	Unverified int
}

// Log reads the file's audit chain, verifies it, and applies filters.
// Verification always runs over the full chain: filters narrow the
// view, never the tamper check.
//
// Returns ErrProjectNotFound if no secrets file can be located.
// Returns ErrInvalidDateFormat if a date filter is malformed.
func Log(ctx context.Context, opts LogOptions) (*LogResult, error) {
	path, err := resolveSecretsPath(opts.Path)
	if err != nil {
		return nil, err
	}

	entries, err := audit.Read(path)
	if err != nil {
		return nil, err
	}

	result := &LogResult{Path: path, Total: len(entries)}
	for _, e := range entries {
		if !e.Verified {
			result.Unverified++
		}
	}

	filtered := entries

	if opts.Actions != "" {
		names := strings.Split(opts.Actions, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
		filtered = filterByActions(filtered, names)
	}

	if opts.Key != "" {
		filtered = filterByKey(filtered, opts.Key)
	}

	if opts.Since != "" {
		sinceTime, err := time.Parse("2006-01-02", opts.Since)
		if err != nil {
			return nil, fmt.Errorf("%w: --since must be YYYY-MM-DD", serrors.ErrInvalidDateFormat)
		}
		filtered = filterSince(filtered, sinceTime)
	}

	if opts.Until != "" {
		untilTime, err := time.Parse("2006-01-02", opts.Until)
		if err != nil {
			return nil, fmt.Errorf("%w: --until must be YYYY-MM-DD", serrors.ErrInvalidDateFormat)
		}
		// Include the whole day.
		untilTime = untilTime.Add(24*time.Hour - time.Nanosecond)
		filtered = filterUntil(filtered, untilTime)
	}

	if opts.Reverse {
		reversed := make([]audit.Entry, len(filtered))
		for i, e := range filtered {
			reversed[len(filtered)-1-i] = e
		}
		filtered = reversed
	}

	if opts.Limit > 0 && len(filtered) > opts.Limit {
		if opts.Reverse {
			// Reversed output starts with the most recent entries.
			filtered = filtered[:opts.Limit]
		} else {
			// Chronological output keeps the most recent entries.
			filtered = filtered[len(filtered)-opts.Limit:]
		}
	}

	result.Entries = filtered
	return result, nil
}

// filterByActions keeps entries whose action matches any of the given
// names, case-insensitively.
func filterByActions(entries []audit.Entry, names []string) []audit.Entry {
	nameSet := make(map[string]bool, len(names))
	for _, n := range names {
		nameSet[strings.ToUpper(n)] = true
	}

	var result []audit.Entry
	for _, e := range entries {
		if nameSet[strings.ToUpper(e.Action)] {
			result = append(result, e)
		}
	}
	return result
}

// filterByKey keeps entries whose key position matches exactly. For
// TRUST and UNTRUST that position holds the affected recipient key.
func filterByKey(entries []audit.Entry, key string) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		if e.Key == key {
			result = append(result, e)
		}
	}
	return result
}

// filterSince keeps entries at or after the given time. Entries with
// unparsable timestamps are dropped from the filtered view; they still
// count against verification.
func filterSince(entries []audit.Entry, since time.Time) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		t, err := e.Time()
		if err != nil {
			continue
		}
		if !t.Before(since) {
			result = append(result, e)
		}
	}
	return result
}

// filterUntil keeps entries at or before the given time.
func filterUntil(entries []audit.Entry, until time.Time) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		t, err := e.Time()
		if err != nil {
			continue
		}
		if !t.After(until) {
			result = append(result, e)
		}
	}
	return result
}

// FormatDateTime renders an audit timestamp as YYYY-MM-DD HH:MM:SS for
// display.
func FormatDateTime(ts string) string {
	t, err := time.Parse(audit.TimestampFormat, ts)
	if err != nil {
		if len(ts) >= 19 {
			return strings.Replace(ts[:19], "T", " ", 1)
		}
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}
