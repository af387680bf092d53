package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voltup/voltup/internal/history"
	"github.com/voltup/voltup/internal/output"
	"github.com/voltup/voltup/internal/planner"
	"github.com/voltup/voltup/internal/snapshot"
	"github.com/voltup/voltup/internal/system"
	"github.com/voltup/voltup/internal/volta"
)

var (
	updateFlagDryRun  bool
	updateFlagYes     bool
	updateFlagNoCache bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update outdated global packages",
	Long: `Check for outdated packages and install the latest version of each.

Before anything is installed, the current package versions are saved
to a snapshot so 'voltup rollback' can restore them. Excluded and
project-pinned packages are left alone (set include_project in the
config to update project-pinned ones too).`,
	Example: `  voltup update
  voltup update --dry-run    # show what would change
  voltup update --yes        # skip the confirmation prompt`,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&updateFlagDryRun, "dry-run", false, "Show planned installs without running them")
	updateCmd.Flags().BoolVarP(&updateFlagYes, "yes", "y", false, "Skip confirmation prompt")
	updateCmd.Flags().BoolVar(&updateFlagNoCache, "no-cache", false, "Bypass the version cache")

	RootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closeLog := openLogger()
	defer closeLog()

	classified, installed, err := checkPipeline(cmd.Context(), cfg, logger,
		!updateFlagNoCache, true)
	if err != nil {
		return err
	}

	specs := planner.UpdateCandidates(classified, cfg.IncludeProject)
	if len(specs) == 0 {
		fmt.Println("All packages are up to date.")
		return nil
	}

	if block := output.RenderMajorUpdates(planner.MajorUpdates(classified)); block != "" {
		fmt.Print(block)
		fmt.Println()
	}

	if updateFlagDryRun {
		fmt.Print(output.RenderDryRun(specs))
		return nil
	}

	// Preflight: enough disk for volta's staging copies. An unreadable
	// filesystem only skips the check.
	home, err := os.UserHomeDir()
	if err == nil {
		needed := system.EstimateUpdateMB(len(specs))
		if ok, available, spaceErr := system.CheckDiskSpace(home, needed); spaceErr == nil && !ok {
			return fmt.Errorf("not enough disk space: need ~%d MB, have %d MB free", needed, available)
		}
	}

	warnProjectPin()

	if !updateFlagYes {
		if !confirm(fmt.Sprintf("Update %d package(s)?", len(specs))) {
			fmt.Println("Update cancelled.")
			return nil
		}
	}

	// Snapshot before touching anything, so rollback always has a target.
	snapPath, err := snapshotPath()
	if err != nil {
		return err
	}
	if err := snapshot.New(snapPath).Save(planner.Snapshot(installed)); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	logger.Info("snapshot saved", "op", "snapshot", "packages", len(installed))

	spinner := output.NewSpinner(fmt.Sprintf("Updating %d package(s)", len(specs)))
	spinner.Start()
	installErr := volta.NewClient().Install(cmd.Context(), specs)
	spinner.Stop()

	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		name, _ := volta.ParsePackage(spec)
		names = append(names, name)
	}
	detail := strings.Join(names, ", ")

	if installErr != nil {
		logger.Error("update failed", "op", "update", "error", installErr)
		if histErr := recordHistory(history.KindUpdate, 0, "failed: "+detail); histErr != nil {
			logger.Warn("failed to record history", "error", histErr)
		}
		return fmt.Errorf("update failed (snapshot kept for rollback): %w", installErr)
	}

	fmt.Printf("✓ Updated %d package(s)\n", len(specs))
	fmt.Println("Run 'voltup rollback' if anything broke.")

	logger.Info("update complete", "op", "update", "packages", len(specs))
	if err := recordHistory(history.KindUpdate, len(specs), detail); err != nil {
		logger.Warn("failed to record history", "error", err)
	}
	return nil
}
