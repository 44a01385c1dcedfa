package workflows

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sealenv/sealenv/internal/secrets"
	"github.com/sealenv/sealenv/internal/validate"
)

// ImportOptions configures the import workflow.
type ImportOptions struct {
	// Path is the secrets file. If empty, the project file is discovered.
	Path string

	// Patterns are the files, directories, or globs to import from.
	// Empty means ".env" in the working directory.
	Patterns []string

	// Plaintext stores imported values unencrypted when true. The
	// default is to encrypt to the file's recipient set.
	Plaintext bool

	// Schema validates candidate entries before import. Nil uses the
	// standard key and value rules.
	Schema validate.Schema
}

// ImportResult contains the outcome of an import operation.
type ImportResult struct {
	// Path is the secrets file that was written.
	Path string

	// Files are the env files that were read, in import order.
	Files []string

	// Added is how many keys were new.
	Added int

	// Replaced is how many keys already existed and were overwritten.
	Replaced int

	// Skipped are the entries the schema rejected, with reasons.
	Skipped []validate.Problem

	// Encrypted reports whether the imported values are stored as
	// ciphertext.
	Encrypted bool
}

// Import reads dotenv-style files and writes their entries into the
// secrets file as one locked batch with a single IMPORT audit record.
// Keys are normalized to the secret key syntax (uppercased, dashes and
// dots become underscores); entries the schema rejects are skipped and
// reported, never imported silently. Later files win over earlier ones
// for duplicate keys.
//
// Returns ErrProjectNotFound if no secrets file can be located.
// Returns ErrNoFilesFound if nothing matches the patterns.
// Returns ErrIdentityNotFound if encryption needs an identity to
// bootstrap the recipient set and none exists.
func Import(ctx context.Context, opts ImportOptions) (*ImportResult, error) {
	path, err := resolveSecretsPath(opts.Path)
	if err != nil {
		return nil, err
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	files, err := secrets.ImportCandidates(opts.Patterns, wd)
	if err != nil {
		return nil, err
	}

	candidates := make(map[string]string)
	var order []string
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		for key, value := range parseDotenv(data) {
			if _, ok := candidates[key]; !ok {
				order = append(order, key)
			}
			candidates[key] = value
		}
	}

	schema := opts.Schema
	if schema == nil {
		schema = validate.Rules{}
	}
	accepted, problems := schema.Validate(candidates)

	var entries []secrets.ImportEntry
	for _, key := range order {
		if value, ok := accepted[key]; ok {
			entries = append(entries, secrets.ImportEntry{Key: key, Value: value})
		}
	}

	res := &ImportResult{
		Path:      path,
		Files:     files,
		Skipped:   problems,
		Encrypted: !opts.Plaintext,
	}
	if len(entries) == 0 {
		return res, nil
	}

	stats, err := secrets.ImportEntries(path, entries, !opts.Plaintext)
	if err != nil {
		return nil, err
	}
	res.Added = stats.Added
	res.Replaced = stats.Replaced
	return res, nil
}

// parseDotenv reads KEY=VALUE pairs from dotenv-style content. Blank
// lines and comments are skipped, an "export " prefix is dropped, keys
// are normalized to the secret key syntax, and single or double quotes
// around values are stripped. Lines without '=' are ignored; the schema
// decides what survives.
func parseDotenv(data []byte) map[string]string {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	entries := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = normalizeImportKey(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		entries[key] = unquote(strings.TrimSpace(value))
	}
	return entries
}

func normalizeImportKey(key string) string {
	key = strings.ToUpper(key)
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, ".", "_")
	return key
}

func unquote(value string) string {
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}
