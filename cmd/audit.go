package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sealenv/sealenv/internal/audit"
	serrors "github.com/sealenv/sealenv/internal/errors"
	"github.com/sealenv/sealenv/internal/ui"
	"github.com/sealenv/sealenv/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	auditLimit   int
	auditReverse bool
	auditActions string
	auditKey     string
	auditSince   string
	auditUntil   string
	auditOneline bool
	auditJSON    bool
)

func init() {
	auditCmd.Flags().IntVarP(&auditLimit, "number", "n", 0, "limit number of entries shown")
	auditCmd.Flags().BoolVar(&auditReverse, "reverse", false, "show most recent entries first")
	auditCmd.Flags().StringVar(&auditActions, "action", "", "filter by action (comma-separated): set, delete, trust, ...")
	auditCmd.Flags().StringVar(&auditKey, "key", "", "filter by secret key or recipient key")
	auditCmd.Flags().StringVar(&auditSince, "since", "", "show entries after date (YYYY-MM-DD)")
	auditCmd.Flags().StringVar(&auditUntil, "until", "", "show entries before date (YYYY-MM-DD)")
	auditCmd.Flags().BoolVar(&auditOneline, "oneline", false, "compact one-line format")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "output as JSON array")

	RootCmd.AddCommand(auditCmd)
}

// resetAuditCommandState resets the audit command's global state for testing.
func resetAuditCommandState() {
	auditLimit = 0
	auditReverse = false
	auditActions = ""
	auditKey = ""
	auditSince = ""
	auditUntil = ""
	auditOneline = false
	auditJSON = false
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View the tamper-evident audit chain",
	Long: `Displays the file's audit chain: who did what, when, hash-linked so any
retroactive edit or deletion is detectable. Verification always runs
over the full chain; filters only narrow what is shown.

Examples:
  sealenv audit                       # Full chain
  sealenv audit -n 10                 # Last 10 entries
  sealenv audit --reverse             # Most recent first
  sealenv audit --action trust,untrust
  sealenv audit --key API_KEY
  sealenv audit --since 2026-01-01
  sealenv audit --json`,
	RunE: runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting audit command")

	spinner, cleanup := startSpinner("Verifying audit chain...", verbose)
	defer cleanup()

	result, err := workflows.Log(context.Background(), workflows.LogOptions{
		Path:    secretsFilePath,
		Limit:   auditLimit,
		Reverse: auditReverse,
		Actions: auditActions,
		Key:     auditKey,
		Since:   auditSince,
		Until:   auditUntil,
	})
	if err != nil {
		if errors.Is(err, serrors.ErrInvalidDateFormat) {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " " + err.Error()
			return nil
		}
		if msg := commonErrorMessage(err); msg != "" {
			spinner.FinalMSG = msg
			return nil
		}
		return Logger.ErrorfAndReturn("failed to read audit chain: %v", err)
	}

	Logger.Debugf("Chain has %d entries, %d shown after filtering", result.Total, len(result.Entries))

	spinner.FinalMSG = ""
	if result.Unverified > 0 {
		fmt.Println(ui.Error.Sprint("✗") + " " +
			fmt.Sprintf("%d of %d entries fail verification: the history has been altered", result.Unverified, result.Total))
	}

	if len(result.Entries) == 0 {
		if result.Total == 0 {
			fmt.Println("No audit entries yet.")
		} else {
			fmt.Println("No audit entries match the filters.")
		}
		return nil
	}

	switch {
	case auditJSON:
		return outputAuditJSON(result.Entries)
	case auditOneline:
		outputAuditOneline(result.Entries)
	default:
		outputAuditDefault(result.Entries)
	}
	return nil
}

func outputAuditJSON(entries []audit.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries to JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func outputAuditOneline(entries []audit.Entry) {
	for _, e := range entries {
		date := workflows.FormatDateTime(e.Timestamp)
		if len(date) > 10 {
			date = date[:10]
		}
		fmt.Printf("%s %s %s %s\n", verifiedMark(e), date, e.Action, e.Key)
	}
}

func outputAuditDefault(entries []audit.Entry) {
	for _, e := range entries {
		fmt.Printf("%s %-19s  %-8s  %-30s  %s\n",
			verifiedMark(e), workflows.FormatDateTime(e.Timestamp), e.Action, e.Key, shortActor(e.Actor))
	}
}

func verifiedMark(e audit.Entry) string {
	if e.Verified {
		return ui.Success.Sprint("✓")
	}
	return ui.Error.Sprint("✗")
}

// shortActor abbreviates an actor public key for column display. The
// "unknown" literal passes through.
func shortActor(actor string) string {
	if len(actor) > 16 {
		return actor[:12] + "…"
	}
	return actor
}
