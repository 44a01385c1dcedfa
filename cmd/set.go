package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	serrors "github.com/sealenv/sealenv/internal/errors"
	"github.com/sealenv/sealenv/internal/ui"
	"github.com/sealenv/sealenv/internal/utils"
	"github.com/sealenv/sealenv/internal/workflows"

	"github.com/spf13/cobra"
)

var setPlaintext bool

func init() {
	setCmd.Flags().BoolVar(&setPlaintext, "plaintext", false, "store the value unencrypted")
	RootCmd.AddCommand(setCmd)
}

// resetSetCommandState resets the set command's global state for testing.
func resetSetCommandState() {
	setPlaintext = false
}

var setCmd = &cobra.Command{
	Use:   "set KEY [VALUE]",
	Short: "Write a secret into the project file",
	Long: `Writes one key under the file lock. Values are encrypted to the file's
recipient set unless --plaintext is given. With no VALUE argument the
value is read from piped stdin, so it never appears in shell history.

Examples:
  sealenv set API_KEY s3cr3t
  sealenv set DB_URL --plaintext postgres://localhost/dev
  cat token.txt | sealenv set CI_TOKEN
  sealenv set SHARED_KEY vault:TEAM_KEY --plaintext`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting set command")

		key := args[0]
		var value string
		if len(args) == 2 {
			value = args[1]
		} else {
			data, err := utils.ReadStdin()
			if err != nil {
				return Logger.ErrorfAndReturn("no value argument and nothing piped on stdin: %v", err)
			}
			value = strings.TrimSuffix(string(data), "\n")
		}

		spinner, cleanup := startSpinner(fmt.Sprintf("Setting %s...", key), verbose)
		defer cleanup()

		result, err := workflows.Set(context.Background(), workflows.SetOptions{
			Path:      secretsFilePath,
			Key:       key,
			Value:     value,
			Plaintext: setPlaintext,
		})
		if err != nil {
			if msg := commonErrorMessage(err); msg != "" {
				spinner.FinalMSG = msg
				return nil
			}
			var validationErr *serrors.ValidationError
			if errors.As(err, &validationErr) {
				spinner.FinalMSG = ui.Error.Sprint("✗") + " " + validationErr.Error()
				return nil
			}
			return Logger.ErrorfAndReturn("failed to set %s: %v", key, err)
		}

		form := "encrypted"
		if !result.Encrypted {
			form = "plaintext"
		}
		spinner.FinalMSG = ui.Success.Sprint("✓") + " Set " + ui.Highlight.Sprint(result.Key) +
			" (" + form + ") in " + ui.Path.Sprint(result.Path)
		return nil
	},
}
