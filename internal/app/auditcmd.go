package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voltup/voltup/internal/audit"
	"github.com/voltup/voltup/internal/output"
	"github.com/voltup/voltup/internal/volta"
)

var auditFlagVerbose bool

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check global packages for known vulnerabilities",
	Long: `Run npm audit against the latest versions of your global packages.
The audit happens in a throwaway directory; nothing is installed.`,
	Example: `  voltup audit
  voltup audit --verbose    # list each advisory`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().BoolVar(&auditFlagVerbose, "verbose", false, "List each vulnerability with advisory links")

	RootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	installed, err := volta.NewClient().ListInstalled(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list volta packages: %w", err)
	}

	var names []string
	for _, pkg := range installed {
		if cfg.ShouldExclude(pkg.Name) {
			continue
		}
		names = append(names, pkg.Name)
	}

	if len(names) == 0 {
		fmt.Println("No packages to audit.")
		return nil
	}

	spinner := output.NewSpinner(fmt.Sprintf("Auditing %d package(s)", len(names)))
	spinner.Start()
	report, err := audit.New().Run(cmd.Context(), names)
	spinner.Stop()

	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	fmt.Print(output.RenderAuditReport(report, auditFlagVerbose))

	if report.HasBlocking() {
		os.Exit(1)
	}
	return nil
}
