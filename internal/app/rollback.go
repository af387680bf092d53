package app

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voltup/voltup/internal/history"
	"github.com/voltup/voltup/internal/output"
	"github.com/voltup/voltup/internal/snapshot"
	"github.com/voltup/voltup/internal/volta"
)

var rollbackFlagForce bool

var rollbackCmd = &cobra.Command{
	Use:   "rollback [package...]",
	Short: "Restore package versions from the last snapshot",
	Long: `Reinstall packages at the versions recorded in the snapshot taken
before the last update. With no arguments every snapshotted package is
restored; with arguments only the named packages are.

Names not present in the snapshot are reported and skipped. The
snapshot is kept after a rollback, so it can be repeated.`,
	Example: `  voltup rollback               # restore everything
  voltup rollback eslint        # restore one package
  voltup rollback --force       # skip confirmation`,
	RunE: runRollback,
}

func init() {
	rollbackCmd.Flags().BoolVarP(&rollbackFlagForce, "force", "f", false, "Skip confirmation prompt")

	RootCmd.AddCommand(rollbackCmd)
}

func runRollback(cmd *cobra.Command, args []string) error {
	logger, closeLog := openLogger()
	defer closeLog()

	snapPath, err := snapshotPath()
	if err != nil {
		return err
	}
	store := snapshot.New(snapPath)

	plan, err := store.Restore(args)
	if err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			return fmt.Errorf("no snapshot found; snapshots are created by 'voltup update'")
		}
		if errors.Is(err, snapshot.ErrNothingToRestore) {
			for _, name := range plan.NotFound {
				fmt.Fprintf(os.Stderr, "Warning: %s is not in the snapshot\n", name)
			}
			return fmt.Errorf("none of the requested packages are in the snapshot")
		}
		return err
	}

	for _, name := range plan.NotFound {
		fmt.Fprintf(os.Stderr, "Warning: %s is not in the snapshot\n", name)
	}

	fmt.Printf("Snapshot from %s\n", plan.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Println("Packages to restore:")
	for _, spec := range plan.Specs {
		fmt.Printf("  - %s\n", spec)
	}

	if !rollbackFlagForce {
		if !confirm(fmt.Sprintf("Restore %d package(s)?", len(plan.Specs))) {
			fmt.Println("Rollback cancelled.")
			return nil
		}
	}

	spinner := output.NewSpinner("Rolling back packages")
	spinner.Start()
	installErr := volta.NewClient().Install(cmd.Context(), plan.Specs)
	spinner.Stop()

	if installErr != nil {
		logger.Error("rollback failed", "op", "rollback", "error", installErr)
		return fmt.Errorf("rollback failed: %w", installErr)
	}

	fmt.Println("Rollback complete")
	fmt.Printf("Rolled back %d package(s)\n", len(plan.Specs))

	names := make([]string, 0, len(plan.Specs))
	for _, spec := range plan.Specs {
		name, _ := volta.ParsePackage(spec)
		names = append(names, name)
	}

	logger.Info("rollback complete", "op", "rollback", "packages", len(plan.Specs))
	if err := recordHistory(history.KindRollback, len(plan.Specs), strings.Join(names, ", ")); err != nil {
		logger.Warn("failed to record history", "error", err)
	}
	return nil
}
