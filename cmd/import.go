package cmd

import (
	"context"
	"errors"
	"fmt"

	serrors "github.com/sealenv/sealenv/internal/errors"
	"github.com/sealenv/sealenv/internal/ui"
	"github.com/sealenv/sealenv/internal/workflows"

	"github.com/spf13/cobra"
)

var importPlaintext bool

func init() {
	importCmd.Flags().BoolVar(&importPlaintext, "plaintext", false, "store imported values unencrypted")
	RootCmd.AddCommand(importCmd)
}

// resetImportCommandState resets the import command's global state for testing.
func resetImportCommandState() {
	importPlaintext = false
}

var importCmd = &cobra.Command{
	Use:   "import [PATTERN...]",
	Short: "Import secrets from dotenv files",
	Long: `Reads dotenv-style files and writes their entries into the secrets
file as one locked batch with a single IMPORT audit record. Keys are
normalized to the secret key syntax; entries that fail validation are
skipped and reported. With no arguments, imports ".env" from the
working directory.

Examples:
  sealenv import
  sealenv import .env.production
  sealenv import config/            # every .env file under config/
  sealenv import '**/.env.*'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting import command")

		spinner, cleanup := startSpinner("Importing secrets...", verbose)
		defer cleanup()

		result, err := workflows.Import(context.Background(), workflows.ImportOptions{
			Path:      secretsFilePath,
			Patterns:  args,
			Plaintext: importPlaintext,
		})
		if err != nil {
			if errors.Is(err, serrors.ErrNoFilesFound) {
				spinner.FinalMSG = ui.Error.Sprint("✗") + " " + err.Error()
				return nil
			}
			if msg := commonErrorMessage(err); msg != "" {
				spinner.FinalMSG = msg
				return nil
			}
			return Logger.ErrorfAndReturn("failed to import: %v", err)
		}

		form := "encrypted"
		if !result.Encrypted {
			form = "plaintext"
		}
		msg := ui.Success.Sprint("✓") + " " +
			fmt.Sprintf("Imported %d new and %d replaced key(s) (%s) from %d file(s)",
				result.Added, result.Replaced, form, len(result.Files))
		for _, p := range result.Skipped {
			msg += "\n" + ui.Warning.Sprint("!") + " Skipped " + ui.Highlight.Sprint(p.Key) + ": " + p.Message
		}
		spinner.FinalMSG = msg
		return nil
	},
}
