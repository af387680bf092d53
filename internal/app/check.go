package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voltup/voltup/internal/history"
	"github.com/voltup/voltup/internal/output"
	"github.com/voltup/voltup/internal/planner"
)

var (
	checkFlagJSON        bool
	checkFlagOutdated    bool
	checkFlagAllPackages bool
	checkFlagNoCache     bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Show which global packages are outdated",
	Long: `Check every Volta-managed global package against the npm registry
and render a status table.

Project-pinned packages are shown but never treated as update
candidates. Excluded packages are hidden by default; pass
--all-packages to list them.`,
	Example: `  voltup check
  voltup check --outdated        # only outdated and unknown rows
  voltup check --json            # machine-readable output
  voltup check --no-cache        # bypass the version cache`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkFlagJSON, "json", false, "Emit JSON instead of a table")
	checkCmd.Flags().BoolVar(&checkFlagOutdated, "outdated", false, "Show only outdated and unknown packages")
	checkCmd.Flags().BoolVar(&checkFlagAllPackages, "all-packages", false, "Include excluded packages in the table")
	checkCmd.Flags().BoolVar(&checkFlagNoCache, "no-cache", false, "Bypass the version cache")

	RootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closeLog := openLogger()
	defer closeLog()

	classified, _, err := checkPipeline(cmd.Context(), cfg, logger,
		!checkFlagNoCache, !checkFlagJSON)
	if err != nil {
		return err
	}

	if checkFlagJSON {
		return output.WriteJSON(os.Stdout, checkReport(classified))
	}

	rows := classified
	excludedHidden := 0
	if !checkFlagAllPackages {
		rows = make([]planner.Package, 0, len(classified))
		for _, pkg := range classified {
			if pkg.Status == planner.StatusExcluded {
				excludedHidden++
				continue
			}
			rows = append(rows, pkg)
		}
	}

	fmt.Print(output.RenderStatusTable(rows, checkFlagOutdated))
	fmt.Println()
	fmt.Print(output.RenderStatistics(classified))

	if block := output.RenderMajorUpdates(planner.MajorUpdates(classified)); block != "" {
		fmt.Println()
		fmt.Print(block)
	}

	counts := planner.CountByStatus(classified)
	queried := len(classified) - counts[planner.StatusProjectPinned] - counts[planner.StatusExcluded]
	if queried > 0 && counts[planner.StatusUnknown] == queried {
		fmt.Fprintln(os.Stderr, "Warning: no versions could be resolved; is the registry reachable?")
	}

	if excludedHidden > 0 {
		fmt.Printf("\n%d package(s) excluded from updates (use --all-packages to show).\n", excludedHidden)
	}

	warnProjectPin()

	if err := recordHistory(history.KindCheck, len(classified), ""); err != nil {
		logger.Warn("failed to record history", "error", err)
	}
	return nil
}

// checkJSONRow is the per-package shape emitted by check --json.
type checkJSONRow struct {
	Name        string `json:"name"`
	Installed   string `json:"installed"`
	Latest      string `json:"latest,omitempty"`
	Status      string `json:"status"`
	MajorUpdate bool   `json:"major_update,omitempty"`
}

func checkReport(classified []planner.Package) []checkJSONRow {
	rows := make([]checkJSONRow, 0, len(classified))
	for _, pkg := range classified {
		rows = append(rows, checkJSONRow{
			Name:        pkg.Name,
			Installed:   pkg.Installed,
			Latest:      pkg.Latest,
			Status:      string(pkg.Status),
			MajorUpdate: pkg.MajorUpdate,
		})
	}
	return rows
}
