package workflows

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/sealenv/sealenv/internal/audit"
	serrors "github.com/sealenv/sealenv/internal/errors"
	"github.com/sealenv/sealenv/internal/secretfile"
	"github.com/sealenv/sealenv/internal/secrets"
)

// Export formats.
const (
	FormatEnv  = "env"
	FormatTOML = "toml"
	FormatJSON = "json"
)

// ExportOptions configures the export workflow.
type ExportOptions struct {
	// Path is the secrets file. If empty, the project file is discovered.
	Path string

	// Format is the output format: env, toml, or json.
	Format string

	// OutputPath is where to write the result. If empty, the rendered
	// content is returned in the result for the caller to print.
	OutputPath string
}

// ExportResult contains the outcome of an export operation.
type ExportResult struct {
	// Path is the secrets file that was read.
	Path string

	// Format is the rendered output format.
	Format string

	// OutputPath is the written file, empty when content went to the
	// caller instead.
	OutputPath string

	// Content is the rendered output when no output path was given.
	Content []byte

	// Keys is how many secrets were exported.
	Keys int

	// Decrypted is how many of them were decrypted for export.
	Decrypted int
}

// Export renders every secret in plaintext: encrypted values are
// decrypted with the local identity and vault references are resolved
// through the user vault. The export is recorded in the audit chain.
// The output contains live secret values; treat it accordingly.
//
// Returns ErrProjectNotFound if no secrets file can be located.
// Returns ErrUnsupportedFormat for formats other than env, toml, json.
// Returns ErrIdentityNotFound if encrypted values exist and no identity
// is available.
func Export(ctx context.Context, opts ExportOptions) (*ExportResult, error) {
	format := opts.Format
	if format == "" {
		format = FormatEnv
	}
	switch format {
	case FormatEnv, FormatTOML, FormatJSON:
	default:
		return nil, fmt.Errorf("%w: %s", serrors.ErrUnsupportedFormat, format)
	}

	path, err := resolveSecretsPath(opts.Path)
	if err != nil {
		return nil, err
	}

	f, err := secretfile.Load(path)
	if err != nil {
		return nil, err
	}

	res := &ExportResult{Path: path, Format: format}

	resolved := make(map[string]string)
	var order []string
	var vault *secrets.Vault

	for _, e := range f.Entries() {
		value := e.Value
		switch e.Kind {
		case secretfile.KindEncrypted:
			id, err := secrets.LoadIdentity()
			if err != nil {
				return nil, err
			}
			value, err = secrets.DecryptValue(e.Value, id)
			if err != nil {
				return nil, fmt.Errorf("decrypting %s: %w", e.Key, err)
			}
			res.Decrypted++
		case secretfile.KindVaultRef:
			vaultKey, _ := secretfile.VaultKey(e.Value)
			if vault == nil {
				vault = secrets.OpenVault()
			}
			value, err = vault.Get(vaultKey)
			if err != nil {
				return nil, fmt.Errorf("resolving vault reference for %s: %w", e.Key, err)
			}
		}
		resolved[e.Key] = value
		order = append(order, e.Key)
	}
	res.Keys = len(order)

	content, err := renderExport(format, resolved, order)
	if err != nil {
		return nil, err
	}

	if opts.OutputPath != "" {
		if err := os.WriteFile(opts.OutputPath, content, 0600); err != nil {
			return nil, &serrors.FileError{Message: fmt.Sprintf("failed to write export to %s", opts.OutputPath), Err: err}
		}
		res.OutputPath = opts.OutputPath
	} else {
		res.Content = content
	}

	if err := secrets.RecordAction(path, audit.ActionExport, audit.NoKey); err != nil {
		return nil, err
	}
	return res, nil
}

// renderExport renders the resolved secrets. The env form keeps file
// order; toml and json sort keys through their encoders.
func renderExport(format string, resolved map[string]string, order []string) ([]byte, error) {
	switch format {
	case FormatEnv:
		var buf bytes.Buffer
		for _, k := range order {
			fmt.Fprintf(&buf, "%s=%s\n", k, resolved[k])
		}
		return buf.Bytes(), nil

	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(resolved); err != nil {
			return nil, fmt.Errorf("encoding toml: %w", err)
		}
		return buf.Bytes(), nil

	case FormatJSON:
		data, err := json.MarshalIndent(resolved, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding json: %w", err)
		}
		return append(data, '\n'), nil
	}
	return nil, fmt.Errorf("%w: %s", serrors.ErrUnsupportedFormat, format)
}
