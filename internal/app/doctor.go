package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voltup/voltup/internal/system"
	"github.com/voltup/voltup/internal/volta"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the voltup environment",
	Long: `Check that volta and npm are installed, that voltup's files are where
they should be, and that there is disk space for updates.`,
	RunE: runDoctor,
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	failed := false

	if err := volta.CheckTools(); err != nil {
		fmt.Printf("✗ tools: %v\n", err)
		failed = true
	} else {
		fmt.Println("✓ volta and npm found in PATH")
	}

	if path, err := configPath(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			fmt.Printf("✓ config: %s\n", path)
		} else {
			fmt.Printf("- config: %s (not created; defaults in effect, run 'voltup config init')\n", path)
		}
	}

	if dir, err := cacheDir(); err != nil {
		fmt.Printf("✗ cache directory: %v\n", err)
		failed = true
	} else {
		fmt.Printf("✓ cache directory: %s\n", dir)
	}

	if path, err := snapshotPath(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			fmt.Printf("✓ snapshot: %s\n", path)
		} else {
			fmt.Printf("- snapshot: none yet (created by 'voltup update')\n")
		}
	}

	if path, err := logPath(); err == nil {
		fmt.Printf("✓ log file: %s\n", path)
	}

	if home, err := os.UserHomeDir(); err == nil {
		if free, diskErr := system.FreeMB(home); diskErr == nil {
			fmt.Printf("✓ disk space: %d MB free\n", free)
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		if pin, ok := volta.DetectProjectPin(cwd); ok {
			fmt.Printf("! this directory pins volta tools (node %s); global changes are shadowed here\n", pin.Node)
		}
	}

	if failed {
		return fmt.Errorf("environment problems found")
	}
	fmt.Println("\nEverything looks good.")
	return nil
}
