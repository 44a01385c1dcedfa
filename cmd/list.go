package cmd

import (
	"context"
	"fmt"

	"github.com/sealenv/sealenv/internal/ui"
	"github.com/sealenv/sealenv/internal/workflows"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List secret keys without revealing values",
	Long: `Lists the file's user keys in file order, labelled by how each value is
stored: plain, encrypted, or vault. Values are never decrypted or
printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting list command")

		result, err := workflows.List(context.Background(), workflows.ListOptions{Path: secretsFilePath})
		if err != nil {
			if msg := commonErrorMessage(err); msg != "" {
				fmt.Println(msg)
				return nil
			}
			return Logger.ErrorfAndReturn("failed to list secrets: %v", err)
		}

		if len(result.Entries) == 0 {
			fmt.Println("No secrets in " + ui.Path.Sprint(result.Path))
			return nil
		}

		for _, e := range result.Entries {
			fmt.Printf("%-40s %s\n", e.Key, ui.Muted.Sprint(e.Kind))
		}
		return nil
	},
}
