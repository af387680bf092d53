// Package output renders voltup's terminal output: status tables, summary
// blocks, progress bars, and spinners. Tables are plain ASCII with ANSI
// colors when stdout is a terminal; progress indicators are safe for use
// from multiple goroutines.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/voltup/voltup/internal/audit"
	"github.com/voltup/voltup/internal/history"
	"github.com/voltup/voltup/internal/planner"
	"github.com/voltup/voltup/internal/snapshot"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// statusLabel returns the display label and color for a classified package.
// Major updates get a warning marker so they stand out in the table.
func statusLabel(pkg planner.Package) (string, string) {
	switch pkg.Status {
	case planner.StatusUpToDate:
		return "up-to-date", colorGreen
	case planner.StatusOutdated:
		if pkg.MajorUpdate {
			return "outdated \u26a0 major", colorYellow
		}
		return "outdated", colorYellow
	case planner.StatusProjectPinned:
		return "project", colorGray
	case planner.StatusExcluded:
		return "excluded", colorGray
	case planner.StatusUnknown:
		return "unknown", colorRed
	}
	return string(pkg.Status), colorGray
}

// RenderStatusTable renders the per-package classification table. When
// outdatedOnly is set, up-to-date, project-pinned, and excluded rows are
// dropped; unknown rows stay visible because they may hide a real update.
func RenderStatusTable(packages []planner.Package, outdatedOnly bool) string {
	rows := make([]planner.Package, 0, len(packages))
	for _, pkg := range packages {
		if outdatedOnly && pkg.Status != planner.StatusOutdated && pkg.Status != planner.StatusUnknown {
			continue
		}
		rows = append(rows, pkg)
	}
	if len(rows) == 0 {
		if outdatedOnly {
			return "All packages are up to date.\n"
		}
		return "No packages installed.\n"
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Name < rows[j].Name
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-28s %-14s %-14s %s\n",
		"Package", "Installed", "Latest", "Status"))
	sb.WriteString(strings.Repeat("─", 72))
	sb.WriteString("\n")

	for _, pkg := range rows {
		latest := pkg.Latest
		if latest == "" {
			latest = "\u2014"
		}
		label, color := statusLabel(pkg)
		sb.WriteString(fmt.Sprintf("%-28s %-14s %-14s %s\n",
			truncate(pkg.Name, 28),
			truncate(pkg.Installed, 14),
			truncate(latest, 14),
			colorize(color, label)))
	}

	return sb.String()
}

// RenderStatistics renders the summary block printed after the status table.
func RenderStatistics(classified []planner.Package) string {
	counts := planner.CountByStatus(classified)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total:          %d\n", len(classified)))
	sb.WriteString(fmt.Sprintf("Up to date:     %d\n", counts[planner.StatusUpToDate]))
	sb.WriteString(fmt.Sprintf("Outdated:       %d\n", counts[planner.StatusOutdated]))
	sb.WriteString(fmt.Sprintf("Project-pinned: %d\n", counts[planner.StatusProjectPinned]))
	if counts[planner.StatusExcluded] > 0 {
		sb.WriteString(fmt.Sprintf("Excluded:       %d\n", counts[planner.StatusExcluded]))
	}
	if counts[planner.StatusUnknown] > 0 {
		sb.WriteString(fmt.Sprintf("Unknown:        %d\n", counts[planner.StatusUnknown]))
	}
	return sb.String()
}

// ChangelogURL returns the npm registry page for a package's version
// history, shown alongside major update warnings.
func ChangelogURL(name string) string {
	return fmt.Sprintf("https://www.npmjs.com/package/%s?activeTab=versions", name)
}

// RenderMajorUpdates renders the advisory block for updates that cross a
// major version boundary. Returns "" when there are none.
func RenderMajorUpdates(major []planner.Package) string {
	if len(major) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(colorize(colorYellow, fmt.Sprintf("\u26a0 %d major update(s); review changelogs before updating:", len(major))))
	sb.WriteString("\n")
	for _, pkg := range major {
		sb.WriteString(fmt.Sprintf("  %s: %s \u2192 %s\n", pkg.Name, pkg.Installed, pkg.Latest))
		sb.WriteString(fmt.Sprintf("    %s\n", ChangelogURL(pkg.Name)))
	}
	return sb.String()
}

// RenderDryRun renders the install specs an update would run, without
// running them.
func RenderDryRun(specs []string) string {
	if len(specs) == 0 {
		return "Nothing to update.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Would update %d package(s):\n", len(specs)))
	for _, spec := range specs {
		sb.WriteString(fmt.Sprintf("  volta install %s\n", spec))
	}
	return sb.String()
}

// RenderSnapshot renders the saved snapshot contents, newest info first.
func RenderSnapshot(snap *snapshot.Snapshot) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Snapshot from %s (%d packages)\n",
		humanize.Time(snap.CreatedAt), len(snap.Packages)))

	names := make([]string, 0, len(snap.Packages))
	for name := range snap.Packages {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("  %s@%s\n", name, snap.Packages[name]))
	}
	return sb.String()
}

// RenderOperations renders recent history rows, newest first as delivered
// by the store.
func RenderOperations(ops []*history.Operation) string {
	if len(ops) == 0 {
		return "No operations recorded.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-5s %-16s %-10s %-9s %s\n",
		"ID", "When", "Operation", "Packages", "Detail"))
	sb.WriteString(strings.Repeat("─", 72))
	sb.WriteString("\n")

	for _, op := range ops {
		sb.WriteString(fmt.Sprintf("%-5d %-16s %-10s %-9d %s\n",
			op.ID,
			truncate(humanize.Time(op.CreatedAt), 16),
			op.Kind,
			op.PackageCount,
			truncate(op.Detail, 32)))
	}
	return sb.String()
}

// RenderAuditReport renders the audit summary; verbose adds one line per
// vulnerability with advisory links where npm provided them.
func RenderAuditReport(report *audit.Report, verbose bool) string {
	var sb strings.Builder
	if report.Total == 0 {
		sb.WriteString(colorize(colorGreen, "No known vulnerabilities found."))
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Found %d vulnerabilit%s:\n", report.Total, pluralY(report.Total)))
	if report.Critical > 0 {
		sb.WriteString(colorize(colorRed, fmt.Sprintf("  critical: %d", report.Critical)))
		sb.WriteString("\n")
	}
	if report.High > 0 {
		sb.WriteString(colorize(colorRed, fmt.Sprintf("  high:     %d", report.High)))
		sb.WriteString("\n")
	}
	if report.Moderate > 0 {
		sb.WriteString(colorize(colorYellow, fmt.Sprintf("  moderate: %d", report.Moderate)))
		sb.WriteString("\n")
	}
	if report.Low > 0 {
		sb.WriteString(fmt.Sprintf("  low:      %d\n", report.Low))
	}

	if verbose {
		sb.WriteString("\n")
		for _, v := range report.Vulnerabilities {
			sb.WriteString(fmt.Sprintf("  %s (%s", v.Package, v.Severity))
			if v.Range != "" {
				sb.WriteString(", " + v.Range)
			}
			sb.WriteString(")")
			if v.Title != "" {
				sb.WriteString(": " + v.Title)
			}
			sb.WriteString("\n")
			if v.URL != "" {
				sb.WriteString(fmt.Sprintf("    %s\n", v.URL))
			}
		}
	}
	return sb.String()
}

// WriteJSON writes v as indented JSON for --json consumers.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
