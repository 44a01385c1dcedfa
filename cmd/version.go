package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the build version, overridden at link time with
// -ldflags "-X github.com/sealenv/sealenv/cmd.Version=v1.2.3".
var Version = "dev"

func init() {
	RootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the sealenv version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("sealenv " + Version)
	},
}
