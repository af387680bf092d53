package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltup/voltup/internal/audit"
	"github.com/voltup/voltup/internal/history"
	"github.com/voltup/voltup/internal/planner"
	"github.com/voltup/voltup/internal/snapshot"
)

func sampleClassified() []planner.Package {
	return []planner.Package{
		{Name: "typescript", Installed: "5.3.3", Latest: "5.3.3", Status: planner.StatusUpToDate},
		{Name: "eslint", Installed: "8.56.0", Latest: "9.0.0", Status: planner.StatusOutdated, MajorUpdate: true},
		{Name: "lodash", Installed: "4.17.0", Latest: "4.17.21", Status: planner.StatusOutdated},
		{Name: "proj-lib", Installed: "project", Status: planner.StatusProjectPinned},
		{Name: "internal-tool", Installed: "1.0.0", Status: planner.StatusExcluded},
		{Name: "ghost", Installed: "0.1.0", Status: planner.StatusUnknown},
	}
}

func TestRenderStatusTable(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	out := RenderStatusTable(sampleClassified(), false)

	assert.Contains(t, out, "Package")
	assert.Contains(t, out, "typescript")
	assert.Contains(t, out, "up-to-date")
	assert.Contains(t, out, "outdated ⚠ major")
	assert.Contains(t, out, "project")
	assert.Contains(t, out, "excluded")
	assert.Contains(t, out, "unknown")

	// Rows are sorted by name: eslint before typescript.
	assert.Less(t, strings.Index(out, "eslint"), strings.Index(out, "typescript"))
}

func TestRenderStatusTableOutdatedOnly(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	out := RenderStatusTable(sampleClassified(), true)

	assert.Contains(t, out, "eslint")
	assert.Contains(t, out, "lodash")
	assert.Contains(t, out, "ghost", "unknown rows stay visible")
	assert.NotContains(t, out, "typescript")
	assert.NotContains(t, out, "proj-lib")
	assert.NotContains(t, out, "internal-tool")
}

func TestRenderStatusTableEmpty(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	assert.Equal(t, "No packages installed.\n", RenderStatusTable(nil, false))

	upToDate := []planner.Package{
		{Name: "typescript", Installed: "5.3.3", Latest: "5.3.3", Status: planner.StatusUpToDate},
	}
	assert.Equal(t, "All packages are up to date.\n", RenderStatusTable(upToDate, true))
}

func TestRenderStatistics(t *testing.T) {
	out := RenderStatistics(sampleClassified())

	assert.Contains(t, out, "Total:          6")
	assert.Contains(t, out, "Up to date:     1")
	assert.Contains(t, out, "Outdated:       2")
	assert.Contains(t, out, "Project-pinned: 1")
	assert.Contains(t, out, "Excluded:       1")
	assert.Contains(t, out, "Unknown:        1")
}

func TestRenderStatisticsHidesZeroOptionalRows(t *testing.T) {
	classified := []planner.Package{
		{Name: "typescript", Installed: "5.3.3", Latest: "5.3.3", Status: planner.StatusUpToDate},
	}
	out := RenderStatistics(classified)

	assert.NotContains(t, out, "Excluded")
	assert.NotContains(t, out, "Unknown")
}

func TestRenderMajorUpdates(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	major := planner.MajorUpdates(sampleClassified())
	out := RenderMajorUpdates(major)

	assert.Contains(t, out, "1 major update(s)")
	assert.Contains(t, out, "eslint: 8.56.0 → 9.0.0")
	assert.Contains(t, out, "https://www.npmjs.com/package/eslint?activeTab=versions")

	assert.Empty(t, RenderMajorUpdates(nil))
}

func TestRenderDryRun(t *testing.T) {
	out := RenderDryRun([]string{"eslint@latest", "lodash@latest"})
	assert.Contains(t, out, "Would update 2 package(s)")
	assert.Contains(t, out, "volta install eslint@latest")

	assert.Equal(t, "Nothing to update.\n", RenderDryRun(nil))
}

func TestRenderSnapshot(t *testing.T) {
	snap := &snapshot.Snapshot{
		CreatedAt: time.Now().Add(-2 * time.Hour),
		Packages: map[string]string{
			"typescript": "5.3.3",
			"eslint":     "8.56.0",
		},
	}
	out := RenderSnapshot(snap)

	assert.Contains(t, out, "2 packages")
	assert.Contains(t, out, "eslint@8.56.0")
	assert.Contains(t, out, "typescript@5.3.3")
	// Sorted listing: eslint before typescript.
	assert.Less(t, strings.Index(out, "eslint"), strings.Index(out, "typescript"))
}

func TestRenderOperations(t *testing.T) {
	ops := []*history.Operation{
		{ID: 2, Kind: history.KindUpdate, PackageCount: 3, Detail: "eslint, lodash, prettier", CreatedAt: time.Now().Add(-time.Hour)},
		{ID: 1, Kind: history.KindCheck, PackageCount: 12, CreatedAt: time.Now().Add(-24 * time.Hour)},
	}
	out := RenderOperations(ops)

	assert.Contains(t, out, "update")
	assert.Contains(t, out, "check")
	assert.Contains(t, out, "eslint, lodash, prettier")

	assert.Equal(t, "No operations recorded.\n", RenderOperations(nil))
}

func TestRenderAuditReport(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	clean := &audit.Report{}
	assert.Contains(t, RenderAuditReport(clean, false), "No known vulnerabilities")

	report := &audit.Report{
		Total:    2,
		High:     1,
		Moderate: 1,
		Vulnerabilities: []audit.Vulnerability{
			{Package: "lodash", Severity: "high", Title: "Prototype Pollution", URL: "https://example.com/adv", Range: "<4.17.21"},
			{Package: "minimist", Severity: "moderate"},
		},
	}

	summary := RenderAuditReport(report, false)
	assert.Contains(t, summary, "2 vulnerabilities")
	assert.Contains(t, summary, "high:     1")
	assert.NotContains(t, summary, "Prototype Pollution")

	verbose := RenderAuditReport(report, true)
	assert.Contains(t, verbose, "Prototype Pollution")
	assert.Contains(t, verbose, "https://example.com/adv")
	assert.Contains(t, verbose, "minimist (moderate)")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	err := WriteJSON(&buf, map[string]int{"outdated": 2})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "\"outdated\": 2")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "very-lo...", truncate("very-long-package-name", 10))
	assert.Equal(t, "abc", truncate("abcdef", 3))
}
