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

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage your cross-project vault",
	Long: `The vault is a per-user encrypted store for values shared across
projects, kept under your store home and readable by your identity
alone. Project files reference vault values as vault:<KEY>.`,
}

func init() {
	vaultCmd.AddCommand(vaultGetCmd)
	vaultCmd.AddCommand(vaultSetCmd)
	vaultCmd.AddCommand(vaultDeleteCmd)
	vaultCmd.AddCommand(vaultListCmd)
	RootCmd.AddCommand(vaultCmd)
}

var vaultGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Read a vault value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting vault get command")
		key := args[0]

		result, err := workflows.VaultGet(context.Background(), workflows.VaultGetOptions{Key: key})
		if err != nil {
			if errors.Is(err, serrors.ErrVaultKeyNotFound) {
				fmt.Println(ui.Error.Sprint("✗") + " Vault key " + ui.Highlight.Sprint(key) + " not found")
				return err
			}
			if msg := commonErrorMessage(err); msg != "" {
				fmt.Println(msg)
				return err
			}
			return Logger.ErrorfAndReturn("failed to read vault: %v", err)
		}

		fmt.Println(result.Value)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

var vaultSetCmd = &cobra.Command{
	Use:   "set KEY [VALUE]",
	Short: "Write a vault value",
	Long: `Writes one key into the vault as a lock-protected rewrite of the whole
encrypted blob. With no VALUE argument the value is read from piped
stdin.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting vault set command")
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

		spinner, cleanup := startSpinner(fmt.Sprintf("Setting vault key %s...", key), verbose)
		defer cleanup()

		result, err := workflows.VaultSet(context.Background(), workflows.VaultSetOptions{Key: key, Value: value})
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
			return Logger.ErrorfAndReturn("failed to write vault: %v", err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Set vault key " + ui.Highlight.Sprint(result.Key) + "\n" +
			ui.Info.Sprint("→") + " Reference it from a project with " +
			ui.Code.Sprint("sealenv set NAME vault:"+result.Key+" --plaintext")
		return nil
	},
}

var vaultDeleteCmd = &cobra.Command{
	Use:   "delete KEY",
	Short: "Remove a vault value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting vault delete command")
		key := args[0]

		spinner, cleanup := startSpinner(fmt.Sprintf("Deleting vault key %s...", key), verbose)
		defer cleanup()

		result, err := workflows.VaultDelete(context.Background(), workflows.VaultDeleteOptions{Key: key})
		if err != nil {
			if errors.Is(err, serrors.ErrVaultKeyNotFound) {
				spinner.FinalMSG = ui.Error.Sprint("✗") + " Vault key " + ui.Highlight.Sprint(key) + " not found"
				return nil
			}
			if msg := commonErrorMessage(err); msg != "" {
				spinner.FinalMSG = msg
				return nil
			}
			return Logger.ErrorfAndReturn("failed to delete from vault: %v", err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Deleted vault key " + ui.Highlight.Sprint(result.Key) + "\n" +
			ui.Warning.Sprint("!") + " Project files referencing it will no longer resolve"
		return nil
	},
}

var vaultListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vault keys without revealing values",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting vault list command")

		result, err := workflows.VaultList(context.Background())
		if err != nil {
			if msg := commonErrorMessage(err); msg != "" {
				fmt.Println(msg)
				return nil
			}
			return Logger.ErrorfAndReturn("failed to list vault: %v", err)
		}

		if len(result.Keys) == 0 {
			fmt.Println("The vault is empty.")
			return nil
		}
		for _, k := range result.Keys {
			fmt.Println(k)
		}
		return nil
	},
}
