package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltup/voltup/internal/volta"
)

func TestPlanEndToEnd(t *testing.T) {
	installed := []volta.Package{
		{Name: "lodash", Version: "4.17.0"},
		{Name: "proj-lib", Version: "project"},
		{Name: "eslint", Version: "8.0.0"},
	}
	latest := map[string]string{
		"lodash": "4.17.21",
		"eslint": "9.0.0",
	}

	classified := Plan(installed, latest, Options{})
	require.Len(t, classified, 3)

	assert.Equal(t, Package{
		Name: "lodash", Installed: "4.17.0", Latest: "4.17.21",
		Status: StatusOutdated, MajorUpdate: false,
	}, classified[0])

	assert.Equal(t, StatusProjectPinned, classified[1].Status)

	assert.Equal(t, Package{
		Name: "eslint", Installed: "8.0.0", Latest: "9.0.0",
		Status: StatusOutdated, MajorUpdate: true,
	}, classified[2])

	specs := UpdateCandidates(classified, false)
	assert.Equal(t, []string{"lodash@latest", "eslint@latest"}, specs)
}

func TestPlanExclusionPrecedesUpToDate(t *testing.T) {
	installed := []volta.Package{{Name: "typescript", Version: "5.3.3"}}
	latest := map[string]string{"typescript": "5.3.3"}

	classified := Plan(installed, latest, Options{Exclude: []string{"typescript"}})
	require.Len(t, classified, 1)

	// The exclusion check runs before the equality check, so an excluded
	// package reports excluded even when it is current.
	assert.Equal(t, StatusExcluded, classified[0].Status)
}

func TestPlanProjectPrecedesExclusion(t *testing.T) {
	installed := []volta.Package{{Name: "proj-lib", Version: "project"}}

	classified := Plan(installed, nil, Options{Exclude: []string{"proj-lib"}})
	require.Len(t, classified, 1)
	assert.Equal(t, StatusProjectPinned, classified[0].Status)
}

func TestPlanUnknownWhenUnresolved(t *testing.T) {
	installed := []volta.Package{
		{Name: "typescript", Version: "5.3.3"},
		{Name: "ghost-pkg", Version: "1.0.0"},
	}
	latest := map[string]string{
		"typescript": "5.3.3",
		"ghost-pkg":  "",
	}

	classified := Plan(installed, latest, Options{})
	assert.Equal(t, StatusUpToDate, classified[0].Status)
	assert.Equal(t, StatusUnknown, classified[1].Status)

	// Unknown packages are incomplete information, never update candidates.
	assert.Empty(t, UpdateCandidates(classified[1:], true))
}

func TestUpdateCandidatesIncludeProject(t *testing.T) {
	classified := []Package{
		{Name: "eslint", Status: StatusOutdated},
		{Name: "proj-lib", Status: StatusProjectPinned},
		{Name: "pinned", Status: StatusExcluded},
	}

	assert.Equal(t, []string{"eslint@latest"}, UpdateCandidates(classified, false))
	assert.Equal(t, []string{"eslint@latest", "proj-lib@latest"}, UpdateCandidates(classified, true))
}

func TestExcludedNeverAutoSelected(t *testing.T) {
	classified := []Package{
		{Name: "pinned", Installed: "1.0.0", Latest: "2.0.0", Status: StatusExcluded},
	}
	assert.Empty(t, UpdateCandidates(classified, true))
}

func TestMajorAndMinorUpdates(t *testing.T) {
	classified := []Package{
		{Name: "eslint", Status: StatusOutdated, MajorUpdate: true},
		{Name: "lodash", Status: StatusOutdated, MajorUpdate: false},
		{Name: "typescript", Status: StatusUpToDate},
	}

	major := MajorUpdates(classified)
	require.Len(t, major, 1)
	assert.Equal(t, "eslint", major[0].Name)

	minor := MinorUpdates(classified)
	require.Len(t, minor, 1)
	assert.Equal(t, "lodash", minor[0].Name)
}

func TestCountByStatus(t *testing.T) {
	classified := []Package{
		{Status: StatusOutdated},
		{Status: StatusOutdated},
		{Status: StatusUpToDate},
		{Status: StatusUnknown},
	}

	counts := CountByStatus(classified)
	assert.Equal(t, 2, counts[StatusOutdated])
	assert.Equal(t, 1, counts[StatusUpToDate])
	assert.Equal(t, 1, counts[StatusUnknown])
	assert.Equal(t, 0, counts[StatusExcluded])
}

func TestQueryNames(t *testing.T) {
	installed := []volta.Package{
		{Name: "typescript", Version: "5.3.3"},
		{Name: "proj-lib", Version: "project"},
		{Name: "pinned", Version: "1.0.0"},
	}

	names := QueryNames(installed, Options{Exclude: []string{"pinned"}})
	assert.Equal(t, []string{"typescript"}, names)
}

func TestSnapshot(t *testing.T) {
	installed := []volta.Package{
		{Name: "typescript", Version: "5.3.3"},
		{Name: "proj-lib", Version: "project"},
		{Name: "pinned", Version: "1.0.0"},
	}

	snapshot := Snapshot(installed)
	assert.Equal(t, map[string]string{
		"typescript": "5.3.3",
		"pinned":     "1.0.0",
	}, snapshot)
}
