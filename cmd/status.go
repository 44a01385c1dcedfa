package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sealenv/sealenv/internal/ui"
	"github.com/sealenv/sealenv/internal/workflows"

	"github.com/spf13/cobra"
)

var statusJSONOutput bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSONOutput, "json", false, "output in JSON format")
	RootCmd.AddCommand(statusCmd)
}

// resetStatusCommandState resets the status command's global state for testing.
func resetStatusCommandState() {
	statusJSONOutput = false
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the project's secrets, recipients, and chain health",
	Long: `Shows an overview of the project secrets file without decrypting
anything: key counts by storage form, the recipient set, audit chain
health, and any lock sidecar.

Use --json for machine-readable output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting status command")

		result, err := workflows.Status(context.Background(), workflows.StatusOptions{Path: secretsFilePath})
		if err != nil {
			if statusJSONOutput {
				fmt.Println(`{"error": "no sealenv project found"}`)
				return nil
			}
			if msg := commonErrorMessage(err); msg != "" {
				fmt.Println(msg)
				return nil
			}
			return Logger.ErrorfAndReturn("failed to read status: %v", err)
		}

		if statusJSONOutput {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal status to JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Println("Project:  " + ui.Highlight.Sprint(result.Project))
		fmt.Println("File:     " + ui.Path.Sprint(result.Path))
		fmt.Printf("Secrets:  %d (%d encrypted, %d plaintext, %d vault refs)\n",
			result.Summary.Total, result.Summary.Encrypted, result.Summary.Plaintext, result.Summary.VaultRefs)

		trust := "local identity not trusted"
		if result.IdentityTrusted {
			trust = "local identity trusted"
		} else if !result.IdentityAvailable {
			trust = "no local identity"
		}
		fmt.Printf("Access:   %d recipient(s), %s\n", result.Recipients, trust)

		if result.Audit.Entries == 0 {
			fmt.Println("Audit:    no entries")
		} else if result.Audit.Unverified > 0 {
			fmt.Printf("Audit:    %s %d of %d entries fail verification\n",
				ui.Error.Sprint("✗"), result.Audit.Unverified, result.Audit.Entries)
		} else {
			fmt.Printf("Audit:    %s %d entries verified, last %s at %s\n",
				ui.Success.Sprint("✓"), result.Audit.Entries, result.Audit.LastAction, result.Audit.LastTime)
		}

		switch {
		case result.Lock.Held && result.Lock.Stale:
			fmt.Printf("Lock:     %s stale lock from dead process %d\n", ui.Warning.Sprint("!"), result.Lock.PID)
		case result.Lock.Held:
			fmt.Printf("Lock:     held by process %d\n", result.Lock.PID)
		default:
			fmt.Println("Lock:     free")
		}
		return nil
	},
}
