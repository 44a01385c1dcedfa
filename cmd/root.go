package cmd

import (
	"strings"

	logger "github.com/sealenv/sealenv/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	// RootCmd is the sealenv command tree. Subcommands register
	// themselves in their file's init.
	RootCmd = &cobra.Command{
		Use:   "sealenv",
		Short: "Manage encrypted secrets stored alongside your project",
		Long: `Sealenv keeps a project's secrets in a single version-controllable file.
Values are encrypted to a set of trusted recipients; access changes
re-encrypt the file, every mutation lands in a tamper-evident audit
chain, and concurrent writers are serialized by a lock protocol that
recovers from crashed holders.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing sealenv command with verbose=%t, debug=%t", verbose, debug)
		},
	}
)

func init() {
	// Accept underscored spellings like --file_path by normalizing to
	// dashes.
	RootCmd.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	RootCmd.PersistentFlags().StringVarP(&secretsFilePath, "file", "f", "", "path to the secrets file (default: discovered)")
}

// secretsFilePath is the --file override shared by every command that
// targets the project secrets file.
var secretsFilePath string

// Helper functions for testing

// GetRootCmd returns the RootCmd for testing.
func GetRootCmd() *cobra.Command {
	return RootCmd
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	secretsFilePath = ""
	resetSetCommandState()
	resetAuditCommandState()
	resetStatusCommandState()
	resetDoctorCommandState()
	resetExportCommandState()
	resetImportCommandState()
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}
