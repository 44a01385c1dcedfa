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
	RootCmd.AddCommand(trustCmd)
}

var trustCmd = &cobra.Command{
	Use:   "trust PUBLIC_KEY",
	Short: "Grant a recipient access to every encrypted value",
	Long: `Adds an age public key to the file's recipient set and re-encrypts
every encrypted value so the new recipient can read them. The change
and its TRUST audit record are persisted before any value is rewritten;
if the process dies mid-way, 'sealenv rotate' completes the rewrite.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting trust command")
		pubkey := args[0]

		spinner, cleanup := startSpinner("Granting access...", verbose)
		defer cleanup()

		result, err := workflows.Trust(context.Background(), workflows.TrustOptions{
			Path:      secretsFilePath,
			PublicKey: pubkey,
		})
		if err != nil {
			if errors.Is(err, serrors.ErrInvalidRecipient) {
				spinner.FinalMSG = ui.Error.Sprint("✗") + " Not a valid age public key: " + ui.Highlight.Sprint(pubkey)
				return nil
			}
			if msg := commonErrorMessage(err); msg != "" {
				spinner.FinalMSG = msg
				return nil
			}
			return Logger.ErrorfAndReturn("failed to trust recipient: %v", err)
		}

		if result.AlreadyTrusted {
			spinner.FinalMSG = ui.Info.Sprint("ℹ") + " " + ui.Highlight.Sprint(result.PublicKey) + " is already trusted"
			return nil
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Trusted " + ui.Highlight.Sprint(result.PublicKey) + "\n" +
			ui.Info.Sprint("→") + " " + fmt.Sprintf("%d recipient(s), %d value(s) re-encrypted", result.Recipients, result.Reencrypted)
		return nil
	},
}
