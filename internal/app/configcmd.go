package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voltup/voltup/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the voltup configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long: `Write a commented default configuration. Fails if the file already
exists, so hand edits are never clobbered.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)

	RootCmd.AddCommand(configCmd)
}
