package workflows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sealenv/sealenv/internal/audit"
	"github.com/sealenv/sealenv/internal/configs"
	serrors "github.com/sealenv/sealenv/internal/errors"
	"github.com/sealenv/sealenv/internal/lockfile"
	"github.com/sealenv/sealenv/internal/secretfile"
	"github.com/sealenv/sealenv/internal/secrets"
	"github.com/sealenv/sealenv/internal/utils"
)

// CheckStatus represents the result status of a health check.
type CheckStatus int

const (
	// CheckPass means the check passed.
	CheckPass CheckStatus = iota
	// CheckWarning means the check found a non-critical issue.
	CheckWarning
	// CheckError means the check found a critical issue.
	CheckError
)

// String returns a string representation of CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarning:
		return "warning"
	case CheckError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for CheckStatus.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// CheckResult holds the result of a single health check.
type CheckResult struct {
	Name       string      `json:"name"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// DoctorSummary holds counts of checks by status.
type DoctorSummary struct {
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// DoctorResult holds the complete result of the doctor workflow.
type DoctorResult struct {
	Checks      []CheckResult `json:"checks"`
	Summary     DoctorSummary `json:"summary"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// DoctorOptions configures the doctor workflow.
type DoctorOptions struct {
	// Path is the secrets file. If empty, the project file is discovered.
	Path string
}

// Doctor runs health checks on the user store and the project secrets
// file. It never mutates anything and never fails outright: problems
// are reported as warning or error check results.
//
// The checks cover:
//   - Store home existence, permissions, and symlink safety
//   - Identity availability and key file permissions
//   - Identity environment variable format
//   - Project file discovery and parse health
//   - Recipient set invariants and local trust
//   - Decryptability of encrypted values
//   - Audit chain verification
//   - Lock sidecar state
//   - Vault readability
func Doctor(ctx context.Context, opts DoctorOptions) (*DoctorResult, error) {
	path, pathErr := resolveSecretsPath(opts.Path)

	checks := []func() CheckResult{
		checkStoreHome,
		checkIdentity,
		checkIdentityEnv,
		func() CheckResult { return checkProjectFile(path, pathErr) },
		func() CheckResult { return checkRecipients(path, pathErr) },
		func() CheckResult { return checkDecryption(path, pathErr) },
		func() CheckResult { return checkAuditChain(path, pathErr) },
		func() CheckResult { return checkLock(path, pathErr) },
		checkVault,
	}

	var results []CheckResult
	for _, check := range checks {
		results = append(results, check())
	}

	summary := DoctorSummary{}
	for _, r := range results {
		switch r.Status {
		case CheckPass:
			summary.Passed++
		case CheckWarning:
			summary.Warnings++
		case CheckError:
			summary.Errors++
		}
	}

	var suggestions []string
	seen := make(map[string]bool)
	for _, r := range results {
		if r.Suggestion != "" && r.Status != CheckPass && !seen[r.Suggestion] {
			suggestions = append(suggestions, r.Suggestion)
			seen[r.Suggestion] = true
		}
	}

	return &DoctorResult{Checks: results, Summary: summary, Suggestions: suggestions}, nil
}

func checkStoreHome() CheckResult {
	name := "store home"
	home := configs.UserSealenvSettings.StoreHome

	if err := utils.RejectSymlink(home); err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("%s is a symlink", home),
			Suggestion: "Replace the symlinked store home with a real directory",
		}
	}

	info, err := os.Stat(home)
	if os.IsNotExist(err) {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("%s does not exist yet", home),
			Suggestion: "Run 'sealenv init' to create the store home",
		}
	}
	if err != nil {
		return CheckResult{Name: name, Status: CheckError, Message: err.Error()}
	}
	if !info.IsDir() {
		return CheckResult{Name: name, Status: CheckError, Message: fmt.Sprintf("%s is not a directory", home)}
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("%s has permissions %04o, expected 0700", home, perm),
			Suggestion: fmt.Sprintf("Run 'chmod 700 %s'", home),
		}
	}
	return CheckResult{Name: name, Status: CheckPass, Message: home}
}

func checkIdentity() CheckResult {
	name := "identity"
	idPath := configs.UserSealenvSettings.IdentityPath

	if !secrets.IdentityExists() {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    "no identity on disk or in the environment",
			Suggestion: "Run 'sealenv init' to generate an identity",
		}
	}

	if info, err := os.Stat(idPath); err == nil {
		if perm := info.Mode().Perm(); perm&0077 != 0 {
			return CheckResult{
				Name:       name,
				Status:     CheckWarning,
				Message:    fmt.Sprintf("%s has permissions %04o, expected 0600", idPath, perm),
				Suggestion: fmt.Sprintf("Run 'chmod 600 %s'", idPath),
			}
		}
	}

	if _, err := secrets.LoadIdentity(); err != nil {
		return CheckResult{
			Name:    name,
			Status:  CheckError,
			Message: fmt.Sprintf("identity is present but unusable: %v", err),
		}
	}
	return CheckResult{Name: name, Status: CheckPass, Message: "identity is usable"}
}

func checkIdentityEnv() CheckResult {
	name := "identity override"
	if _, ok := os.LookupEnv(configs.EnvIdentity); !ok {
		return CheckResult{Name: name, Status: CheckPass, Message: configs.EnvIdentity + " is not set"}
	}

	if _, err := secrets.LoadIdentity(); err != nil {
		if errors.Is(err, serrors.ErrInvalidIdentityEnv) {
			return CheckResult{
				Name:       name,
				Status:     CheckError,
				Message:    configs.EnvIdentity + " is not canonical base64",
				Suggestion: "Re-export the identity with 'base64 -w0' and no surrounding whitespace",
			}
		}
		return CheckResult{Name: name, Status: CheckError, Message: fmt.Sprintf("%s is set but unusable: %v", configs.EnvIdentity, err)}
	}
	return CheckResult{Name: name, Status: CheckPass, Message: configs.EnvIdentity + " is set and usable"}
}

func checkProjectFile(path string, pathErr error) CheckResult {
	name := "project file"
	if pathErr != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    "no secrets file found from the working directory upward",
			Suggestion: "Run 'sealenv init' in the project root",
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("%s does not exist", path),
			Suggestion: "Run 'sealenv init' in the project root",
		}
	}

	if _, err := secretfile.Load(path); err != nil {
		var parseErr *serrors.ParseError
		if errors.As(err, &parseErr) {
			return CheckResult{
				Name:    name,
				Status:  CheckError,
				Message: fmt.Sprintf("%s: %v", path, parseErr),
			}
		}
		return CheckResult{Name: name, Status: CheckError, Message: err.Error()}
	}
	return CheckResult{Name: name, Status: CheckPass, Message: path}
}

func checkRecipients(path string, pathErr error) CheckResult {
	name := "recipients"
	f, ok := loadForCheck(path, pathErr)
	if !ok {
		return CheckResult{Name: name, Status: CheckPass, Message: "skipped, no readable project file"}
	}

	recipients := f.Recipients()
	if f.EncryptedCount() > 0 && len(recipients) == 0 {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    "encrypted values exist but the file records no recipients",
			Suggestion: "Run 'sealenv trust <your-public-key>' to restore the recipient set",
		}
	}
	if len(recipients) == 0 {
		return CheckResult{Name: name, Status: CheckPass, Message: "no recipients recorded (no encrypted values)"}
	}

	if id, err := secrets.LoadIdentity(); err == nil {
		own := secrets.PublicKey(id)
		for _, r := range recipients {
			if r == own {
				return CheckResult{Name: name, Status: CheckPass, Message: fmt.Sprintf("%d recipient(s), local identity trusted", len(recipients))}
			}
		}
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    "the local identity is not in the recipient set",
			Suggestion: "Ask a trusted teammate to run 'sealenv trust' with your public key",
		}
	}
	return CheckResult{Name: name, Status: CheckPass, Message: fmt.Sprintf("%d recipient(s)", len(recipients))}
}

func checkDecryption(path string, pathErr error) CheckResult {
	name := "decryption"
	f, ok := loadForCheck(path, pathErr)
	if !ok || f.EncryptedCount() == 0 {
		return CheckResult{Name: name, Status: CheckPass, Message: "no encrypted values to decrypt"}
	}

	id, err := secrets.LoadIdentity()
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    "encrypted values exist but no identity is available",
			Suggestion: "Run 'sealenv init' to generate an identity",
		}
	}

	checked := 0
	for _, e := range f.Entries() {
		if e.Kind != secretfile.KindEncrypted {
			continue
		}
		if _, err := secrets.DecryptValue(e.Value, id); err != nil {
			return CheckResult{
				Name:       name,
				Status:     CheckError,
				Message:    fmt.Sprintf("cannot decrypt %s with the local identity", e.Key),
				Suggestion: "Ask a trusted teammate to run 'sealenv trust' with your public key, then 'sealenv rotate'",
			}
		}
		checked++
	}
	return CheckResult{Name: name, Status: CheckPass, Message: fmt.Sprintf("%d encrypted value(s) decrypt cleanly", checked)}
}

func checkAuditChain(path string, pathErr error) CheckResult {
	name := "audit chain"
	f, ok := loadForCheck(path, pathErr)
	if !ok {
		return CheckResult{Name: name, Status: CheckPass, Message: "skipped, no readable project file"}
	}

	entries := audit.Verify(f)
	if len(entries) == 0 {
		return CheckResult{Name: name, Status: CheckPass, Message: "no audit entries"}
	}
	unverified := 0
	for _, e := range entries {
		if !e.Verified {
			unverified++
		}
	}
	if unverified > 0 {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("%d of %d audit entries fail verification", unverified, len(entries)),
			Suggestion: "The file's history has been altered; inspect it with 'sealenv audit'",
		}
	}
	return CheckResult{Name: name, Status: CheckPass, Message: fmt.Sprintf("%d entries, all verified", len(entries))}
}

func checkLock(path string, pathErr error) CheckResult {
	name := "lock"
	if pathErr != nil {
		return CheckResult{Name: name, Status: CheckPass, Message: "skipped, no project file"}
	}

	status, err := lockfile.Inspect(path)
	if err != nil {
		return CheckResult{Name: name, Status: CheckWarning, Message: err.Error()}
	}
	if !status.Held {
		return CheckResult{Name: name, Status: CheckPass, Message: "no lock held"}
	}
	if status.Stale {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("stale lock held by dead process %d", status.PID),
			Suggestion: "The next write will reclaim it; remove " + path + lockfile.Suffix + " to clear it now",
		}
	}
	return CheckResult{
		Name:    name,
		Status:  CheckWarning,
		Message: fmt.Sprintf("lock currently held by process %d", status.PID),
	}
}

func checkVault() CheckResult {
	name := "vault"
	vaultPath := configs.UserSealenvSettings.VaultPath

	if _, err := os.Stat(vaultPath); os.IsNotExist(err) {
		return CheckResult{Name: name, Status: CheckPass, Message: "no vault file (empty vault)"}
	}

	keys, err := secrets.OpenVault().List()
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("vault exists but cannot be read: %v", err),
			Suggestion: "The vault is encrypted to your identity only; restore the matching identity.key",
		}
	}
	return CheckResult{Name: name, Status: CheckPass, Message: fmt.Sprintf("%d vault key(s) readable", len(keys))}
}

// loadForCheck loads the project file for a check, reporting false when
// the file is missing or unreadable (another check owns that failure).
func loadForCheck(path string, pathErr error) (*secretfile.File, bool) {
	if pathErr != nil {
		return nil, false
	}
	if _, err := os.Stat(path); err != nil {
		return nil, false
	}
	f, err := secretfile.Load(path)
	if err != nil {
		return nil, false
	}
	return f, true
}
