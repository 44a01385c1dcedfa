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
	RootCmd.AddCommand(untrustCmd)
}

var untrustCmd = &cobra.Command{
	Use:   "untrust PUBLIC_KEY",
	Short: "Revoke a recipient's access",
	Long: `Removes an age public key from the file's recipient set and re-encrypts
every encrypted value to the reduced set. Values the revoked key could
already read must be considered known to it; rotating the underlying
secrets themselves is up to you. The last recipient can never be
removed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting untrust command")
		pubkey := args[0]

		spinner, cleanup := startSpinner("Revoking access...", verbose)
		defer cleanup()

		result, err := workflows.Untrust(context.Background(), workflows.UntrustOptions{
			Path:      secretsFilePath,
			PublicKey: pubkey,
		})
		if err != nil {
			switch {
			case errors.Is(err, serrors.ErrLastRecipient):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " Cannot remove the last recipient: encrypted values would become unreadable\n" +
					ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sealenv trust") + " with another key first"
				return nil
			case errors.Is(err, serrors.ErrRecipientNotFound):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " " + ui.Highlight.Sprint(pubkey) + " is not in the recipient set"
				return nil
			case errors.Is(err, serrors.ErrInvalidRecipient):
				spinner.FinalMSG = ui.Error.Sprint("✗") + " Not a valid age public key: " + ui.Highlight.Sprint(pubkey)
				return nil
			}
			if msg := commonErrorMessage(err); msg != "" {
				spinner.FinalMSG = msg
				return nil
			}
			return Logger.ErrorfAndReturn("failed to untrust recipient: %v", err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Untrusted " + ui.Highlight.Sprint(result.PublicKey) + "\n" +
			ui.Info.Sprint("→") + " " + fmt.Sprintf("%d recipient(s) remain, %d value(s) re-encrypted", result.Recipients, result.Reencrypted) + "\n" +
			ui.Warning.Sprint("!") + " Rotate the secret values themselves if the revoked key may have read them"
		return nil
	},
}
