package workflows

import (
	"context"

	"github.com/sealenv/sealenv/internal/audit"
	"github.com/sealenv/sealenv/internal/lockfile"
	"github.com/sealenv/sealenv/internal/secretfile"
	"github.com/sealenv/sealenv/internal/secrets"
	"github.com/sealenv/sealenv/internal/utils"
)

// StatusOptions configures the status workflow.
type StatusOptions struct {
	// Path is the secrets file. If empty, the project file is discovered.
	Path string
}

// StatusSummary counts the file's user keys by storage form.
type StatusSummary struct {
	Total     int `json:"total"`
	Plaintext int `json:"plaintext"`
	Encrypted int `json:"encrypted"`
	VaultRefs int `json:"vault_refs"`
}

// AuditSummary describes the file's audit chain health.
type AuditSummary struct {
	Entries    int    `json:"entries"`
	Unverified int    `json:"unverified"`
	LastAction string `json:"last_action,omitempty"`
	LastTime   string `json:"last_time,omitempty"`
}

// LockSummary describes the file's lock sidecar, if any.
type LockSummary struct {
	Held  bool `json:"held"`
	PID   int  `json:"pid,omitempty"`
	Stale bool `json:"stale,omitempty"`
}

// StatusResult contains the outcome of a status operation.
type StatusResult struct {
	// Project is the project name derived from the secrets file location.
	Project string `json:"project"`

	// Path is the secrets file that was inspected.
	Path string `json:"path"`

	// Summary counts the user keys by storage form.
	Summary StatusSummary `json:"summary"`

	// Recipients is the size of the trusted recipient set.
	Recipients int `json:"recipients"`

	// IdentityAvailable reports whether a local or environment identity
	// exists at all.
	IdentityAvailable bool `json:"identity_available"`

	// IdentityTrusted reports whether the local identity's public key is
	// in the recipient set. False when no identity is available.
	IdentityTrusted bool `json:"identity_trusted"`

	// Audit describes the audit chain.
	Audit AuditSummary `json:"audit"`

	// Lock describes the lock sidecar.
	Lock LockSummary `json:"lock"`
}

// Status inspects the project secrets file without decrypting anything:
// key counts by storage form, the recipient set, audit chain health, and
// whether a lock sidecar is present.
//
// Returns ErrProjectNotFound if no secrets file can be located.
func Status(ctx context.Context, opts StatusOptions) (*StatusResult, error) {
	path, err := resolveSecretsPath(opts.Path)
	if err != nil {
		return nil, err
	}

	f, err := secretfile.Load(path)
	if err != nil {
		return nil, err
	}

	res := &StatusResult{
		Project: utils.ProjectNameFromFile(path),
		Path:    path,
	}

	for _, e := range f.Entries() {
		res.Summary.Total++
		switch e.Kind {
		case secretfile.KindEncrypted:
			res.Summary.Encrypted++
		case secretfile.KindVaultRef:
			res.Summary.VaultRefs++
		default:
			res.Summary.Plaintext++
		}
	}

	recipients := f.Recipients()
	res.Recipients = len(recipients)

	res.IdentityAvailable = secrets.IdentityExists()
	if id, err := secrets.LoadIdentity(); err == nil {
		own := secrets.PublicKey(id)
		for _, r := range recipients {
			if r == own {
				res.IdentityTrusted = true
				break
			}
		}
	}

	entries := audit.Verify(f)
	res.Audit.Entries = len(entries)
	for _, e := range entries {
		if !e.Verified {
			res.Audit.Unverified++
		}
	}
	if len(entries) > 0 {
		last := entries[len(entries)-1]
		res.Audit.LastAction = last.Action
		res.Audit.LastTime = FormatDateTime(last.Timestamp)
	}

	if lock, err := lockfile.Inspect(path); err == nil {
		res.Lock = LockSummary{Held: lock.Held, PID: lock.PID, Stale: lock.Stale}
	}

	return res, nil
}
