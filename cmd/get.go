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
	RootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Resolve a secret and print its value",
	Long: `Resolves one key the same way the SDK does: process environment
variables win, then the secrets file, decrypting ciphertext and
following vault references. The value is printed bare on stdout so it
can be piped or substituted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting get command")
		key := args[0]

		result, err := workflows.Get(context.Background(), workflows.GetOptions{
			Path: secretsFilePath,
			Key:  key,
		})
		if err != nil {
			if errors.Is(err, serrors.ErrSecretNotFound) {
				fmt.Println(ui.Error.Sprint("✗") + " Secret " + ui.Highlight.Sprint(key) + " not found")
				return err
			}
			if msg := commonErrorMessage(err); msg != "" {
				fmt.Println(msg)
				return err
			}
			return Logger.ErrorfAndReturn("failed to get %s: %v", key, err)
		}

		// Bare value on stdout; no decoration that would corrupt piping.
		fmt.Println(result.Value)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}
