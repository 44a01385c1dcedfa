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

func init() {
	RootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:   "delete KEY",
	Short: "Remove a secret from the project file",
	Long: `Removes one key under the file lock with a chained DELETE audit record.
All other lines keep their relative order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting delete command")
		key := args[0]

		spinner, cleanup := startSpinner(fmt.Sprintf("Deleting %s...", key), verbose)
		defer cleanup()

		result, err := workflows.Delete(context.Background(), workflows.DeleteOptions{
			Path: secretsFilePath,
			Key:  key,
		})
		if err != nil {
			if errors.Is(err, serrors.ErrSecretNotFound) {
				spinner.FinalMSG = ui.Error.Sprint("✗") + " Key " + ui.Highlight.Sprint(key) + " is not in the file"
				return nil
			}
			if msg := commonErrorMessage(err); msg != "" {
				spinner.FinalMSG = msg
				return nil
			}
			return Logger.ErrorfAndReturn("failed to delete %s: %v", key, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Deleted " + ui.Highlight.Sprint(result.Key) +
			" from " + ui.Path.Sprint(result.Path)
		return nil
	},
}
