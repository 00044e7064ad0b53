// Package cmd implements the stencil CLI commands.
//
// The command structure follows standard Go CLI patterns with a root command
// that dispatches to subcommands (render, check, list). Subcommands register
// themselves from init.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/go-drift/stencil/pkg/errors"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

var (
	verbose bool
	workDir string
)

var rootCmd = &cobra.Command{
	Use:   "stencil",
	Short: "stencil - templates, controls and data binding",
	Long: `stencil loads template bundles, resolves their control placeholders
and binding directives, and reports what it finds.

Templates come from the YAML bundles and host pages listed in stencil.yaml
at the project root (the directory holding go.mod).`,
	Version:       Version + " (built " + BuildTime + ")",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		errors.SetHandler(&errors.LogHandler{Verbose: verbose})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "report errors with stack traces")
	rootCmd.PersistentFlags().StringVarP(&workDir, "dir", "C", "", "start the project root search in `dir`")
}

// RegisterCommand adds a command to the CLI.
func RegisterCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// Execute runs the CLI with the process arguments. Errors are reported
// through the error handler before being returned.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		errors.Report(err)
	}
	return err
}
