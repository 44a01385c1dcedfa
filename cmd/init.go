package cmd

import (
	"context"
	"errors"
	"fmt"

	serrors "github.com/sealenv/sealenv/internal/errors"
	"github.com/sealenv/sealenv/internal/ui"
	"github.com/sealenv/sealenv/internal/workflows"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a secrets file for this project",
	Long: `Creates the project secrets file with your identity as its first trusted
recipient, generating the identity on first use. The file starts with a
verified INIT audit record.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting init command")

		if !verbose && !debug {
			figure.NewFigure("sealenv", "", true).Print()
			fmt.Println()
		}

		spinner, cleanup := startSpinner("Initializing sealenv...", verbose)
		defer cleanup()

		result, err := workflows.Init(context.Background(), workflows.InitOptions{Path: secretsFilePath})
		if err != nil {
			if errors.Is(err, serrors.ErrAlreadyInitialized) {
				spinner.FinalMSG = ui.Error.Sprint("✗") + " This project is already initialized\n" +
					ui.Info.Sprint("→") + " Use " + ui.Code.Sprint("sealenv set") + " to add secrets"
				return nil
			}
			return Logger.ErrorfAndReturn("failed to initialize project: %v", err)
		}

		msg := ui.Success.Sprint("✓") + " Created " + ui.Path.Sprint(result.Path) + "\n"
		if result.CreatedIdentity {
			msg += ui.Success.Sprint("✓") + " Generated your identity at " + ui.Path.Sprint(result.IdentityPath) + "\n"
		}
		msg += ui.Info.Sprint("→") + " Your public key: " + ui.Highlight.Sprint(result.PublicKey) + "\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sealenv set KEY value") + " to add your first secret"
		spinner.FinalMSG = msg
		return nil
	},
}
