package cmd

import (
	"context"
	"fmt"

	"github.com/sealenv/sealenv/internal/ui"
	"github.com/sealenv/sealenv/internal/workflows"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(recipientsCmd)
}

var recipientsCmd = &cobra.Command{
	Use:   "recipients",
	Short: "List the file's trusted public keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting recipients command")

		result, err := workflows.Recipients(context.Background(), workflows.RecipientsOptions{Path: secretsFilePath})
		if err != nil {
			if msg := commonErrorMessage(err); msg != "" {
				fmt.Println(msg)
				return nil
			}
			return Logger.ErrorfAndReturn("failed to list recipients: %v", err)
		}

		if len(result.Recipients) == 0 {
			fmt.Println("No recipients recorded in " + ui.Path.Sprint(result.Path))
			return nil
		}

		for i, r := range result.Recipients {
			marker := " "
			if i == result.Own {
				marker = ui.Success.Sprint("*")
			}
			fmt.Printf("%s %s\n", marker, r)
		}
		if result.Own >= 0 {
			fmt.Println(ui.Muted.Sprint("* your identity"))
		}
		fmt.Printf("%d encrypted value(s) readable by this set\n", result.EncryptedValues)
		return nil
	},
}
