package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voltup/voltup/internal/history"
	"github.com/voltup/voltup/internal/output"
	"github.com/voltup/voltup/internal/volta"
)

var installFlagDryRun bool

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Reinstall all global packages at their latest versions",
	Long: `Reinstall every Volta-managed global package at its latest version
without checking the registry first. Useful after a Node version
switch, when globals need a rebuild anyway.

Excluded and project-pinned packages are skipped.`,
	Example: `  voltup install
  voltup install --dry-run`,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVar(&installFlagDryRun, "dry-run", false, "Show planned installs without running them")

	RootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closeLog := openLogger()
	defer closeLog()

	client := volta.NewClient()
	installed, err := client.ListInstalled(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list volta packages: %w", err)
	}

	var specs []string
	for _, pkg := range installed {
		if pkg.Version == volta.ProjectVersion || cfg.ShouldExclude(pkg.Name) {
			continue
		}
		specs = append(specs, pkg.Name+"@latest")
	}

	if len(specs) == 0 {
		fmt.Println("No packages to install.")
		return nil
	}

	if installFlagDryRun {
		fmt.Print(output.RenderDryRun(specs))
		return nil
	}

	spinner := output.NewSpinner(fmt.Sprintf("Installing %d package(s)", len(specs)))
	spinner.Start()
	installErr := client.Install(cmd.Context(), specs)
	spinner.Stop()

	if installErr != nil {
		logger.Error("install failed", "op", "install", "error", installErr)
		return fmt.Errorf("install failed: %w", installErr)
	}

	fmt.Printf("✓ Installed %d package(s)\n", len(specs))

	logger.Info("install complete", "op", "install", "packages", len(specs))
	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		name, _ := volta.ParsePackage(spec)
		names = append(names, name)
	}
	if err := recordHistory(history.KindInstall, len(specs), strings.Join(names, ", ")); err != nil {
		logger.Warn("failed to record history", "error", err)
	}
	return nil
}
