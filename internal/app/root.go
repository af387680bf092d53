// Package app wires the voltup CLI commands together.
package app

import (
	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagVerbose bool

	// RootCmd is the root command for voltup.
	RootCmd = &cobra.Command{
		Use:   "voltup",
		Short: "Keep Volta-managed global Node.js packages up to date",
		Long: `voltup checks your Volta-managed global packages against the npm
registry, reports what is outdated, and updates them with a safety
snapshot for one-command rollback.

Project-pinned tools are never touched by default, and packages you
exclude stay on their installed versions.

Examples:
  # See what is outdated
  voltup check

  # Update everything that is outdated
  voltup update

  # Something broke? Go back
  voltup rollback

  # Keep a package on its current version
  voltup pin add some-cli`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (default: ~/.config/voltup/config.toml)")
	RootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log to stderr in addition to the log file")

	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}
