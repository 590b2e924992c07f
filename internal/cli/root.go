// Package cli defines the pulseboard command tree.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	ConfigPath string
}

// NewRootCommand creates the root command for the pulseboard CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:          "pulseboard",
		Short:        "Project and task tracker with live updates and scheduled digests",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.Verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "pulseboard.yaml", "config file path")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewDigestCommand(opts))

	return cmd
}

// Execute runs the CLI and reports failure for main to turn into a non-zero
// exit code. cobra prints the error itself.
func Execute() error {
	return NewRootCommand().Execute()
}
