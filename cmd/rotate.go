package cmd

import (
	"context"
	"fmt"

	"github.com/sealenv/sealenv/internal/ui"
	"github.com/sealenv/sealenv/internal/workflows"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(rotateCmd)
}

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Re-encrypt every value to the current recipient set",
	Long: `Re-encrypts each encrypted value to the recipient set recorded in the
file. Trust and untrust rewrite values one atomic write per key, so a
crash mid-change can leave values split between the old and new sets;
rotate is idempotent and converges such a file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting rotate command")

		spinner, cleanup := startSpinner("Re-encrypting values...", verbose)
		defer cleanup()

		result, err := workflows.Rotate(context.Background(), workflows.RotateOptions{Path: secretsFilePath})
		if err != nil {
			if msg := commonErrorMessage(err); msg != "" {
				spinner.FinalMSG = msg
				return nil
			}
			return Logger.ErrorfAndReturn("failed to rotate: %v", err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " " +
			fmt.Sprintf("%d value(s) re-encrypted to %d recipient(s)", result.Reencrypted, result.Recipients)
		return nil
	},
}
