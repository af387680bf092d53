package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Manage the package exclusion list",
	Long: `Pinned packages are excluded from checks and updates: they stay on
their installed version until unpinned. The list lives in the config
file's exclude setting.`,
}

var pinAddCmd = &cobra.Command{
	Use:   "add <package>",
	Short: "Exclude a package from updates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if !cfg.Pin(args[0]) {
			fmt.Printf("%s is already pinned\n", args[0])
			return nil
		}
		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Printf("Pinned %s; it will be skipped by check and update\n", args[0])
		return nil
	},
}

var pinRemoveCmd = &cobra.Command{
	Use:   "remove <package>",
	Short: "Stop excluding a package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if !cfg.Unpin(args[0]) {
			return fmt.Errorf("%s is not pinned", args[0])
		}
		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Printf("Unpinned %s\n", args[0])
		return nil
	},
}

var pinListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pinned packages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if len(cfg.Exclude) == 0 {
			fmt.Println("No packages pinned.")
			return nil
		}
		for _, name := range cfg.Exclude {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	pinCmd.AddCommand(pinAddCmd)
	pinCmd.AddCommand(pinRemoveCmd)
	pinCmd.AddCommand(pinListCmd)

	RootCmd.AddCommand(pinCmd)
}
