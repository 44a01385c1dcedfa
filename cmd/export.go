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

var (
	exportFormat string
	exportOutput string
)

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "env", "output format: env, toml, or json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
	RootCmd.AddCommand(exportCmd)
}

// resetExportCommandState resets the export command's global state for testing.
func resetExportCommandState() {
	exportFormat = "env"
	exportOutput = ""
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Decrypt every secret and write it out",
	Long: `Renders all secrets in plaintext: encrypted values are decrypted with
your identity and vault references are resolved through your vault.
The export is recorded in the audit chain.

The output contains live secrets. Do not commit it.

Examples:
  sealenv export                        # dotenv on stdout
  sealenv export --format json
  sealenv export --format toml -o secrets.toml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting export command")

		result, err := workflows.Export(context.Background(), workflows.ExportOptions{
			Path:       secretsFilePath,
			Format:     exportFormat,
			OutputPath: exportOutput,
		})
		if err != nil {
			if errors.Is(err, serrors.ErrUnsupportedFormat) {
				fmt.Println(ui.Error.Sprint("✗") + " Unsupported format " + ui.Highlight.Sprint(exportFormat) +
					"; use env, toml, or json")
				return nil
			}
			if msg := commonErrorMessage(err); msg != "" {
				fmt.Println(msg)
				return nil
			}
			return Logger.ErrorfAndReturn("failed to export: %v", err)
		}

		if result.OutputPath != "" {
			fmt.Println(ui.Success.Sprint("✓") + " " +
				fmt.Sprintf("Exported %d secret(s) to ", result.Keys) + ui.Path.Sprint(result.OutputPath))
			fmt.Println(ui.Warning.Sprint("!") + " The file contains plaintext secrets; do not commit it")
			return nil
		}

		// Bare content on stdout so it can be piped or sourced.
		fmt.Print(string(result.Content))
		return nil
	},
}
