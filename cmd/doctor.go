package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sealenv/sealenv/internal/ui"
	"github.com/sealenv/sealenv/internal/workflows"

	"github.com/spf13/cobra"
)

var doctorJSONOutput bool

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSONOutput, "json", false, "output in JSON format")
	RootCmd.AddCommand(doctorCmd)
}

// resetDoctorCommandState resets the doctor command's global state for testing.
func resetDoctorCommandState() {
	doctorJSONOutput = false
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the health of your store and project",
	Long: `Runs read-only health checks: store home permissions, identity
availability, project file parse health, recipient invariants,
decryptability, audit chain verification, lock state, and vault
readability. Nothing is modified.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting doctor command")

		result, err := workflows.Doctor(context.Background(), workflows.DoctorOptions{Path: secretsFilePath})
		if err != nil {
			return Logger.ErrorfAndReturn("failed to run checks: %v", err)
		}

		if doctorJSONOutput {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal doctor result to JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		for _, check := range result.Checks {
			var mark string
			switch check.Status {
			case workflows.CheckPass:
				mark = ui.Success.Sprint("✓")
			case workflows.CheckWarning:
				mark = ui.Warning.Sprint("!")
			default:
				mark = ui.Error.Sprint("✗")
			}
			fmt.Printf("%s %-18s %s\n", mark, check.Name, check.Message)
		}

		fmt.Printf("\n%d passed, %d warning(s), %d error(s)\n",
			result.Summary.Passed, result.Summary.Warnings, result.Summary.Errors)

		if len(result.Suggestions) > 0 {
			fmt.Println()
			for _, s := range result.Suggestions {
				fmt.Println(ui.Info.Sprint("→") + " " + s)
			}
		}
		return nil
	},
}
