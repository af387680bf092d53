// Package planner classifies installed packages against resolved registry
// versions and derives the update candidate list.
package planner

import (
	"github.com/voltup/voltup/internal/volta"
)

// Status is the classification of one installed package for a single run.
type Status string

const (
	StatusUpToDate      Status = "up-to-date"
	StatusOutdated      Status = "outdated"
	StatusProjectPinned Status = "project"
	StatusExcluded      Status = "excluded"
	StatusUnknown       Status = "unknown"
)

// Package is one classified package. Latest is empty when no version could
// be resolved or when resolution was not attempted (pinned/excluded rows).
type Package struct {
	Name        string
	Installed   string
	Latest      string
	Status      Status
	MajorUpdate bool
}

// Options control a planning pass.
type Options struct {
	// Exclude lists package names that must never be auto-updated.
	Exclude []string
	// IncludeProject adds project-pinned packages to the update candidates.
	IncludeProject bool
}

// QueryNames returns the package names that need registry resolution:
// everything except project-pinned and excluded packages.
func QueryNames(installed []volta.Package, opts Options) []string {
	excluded := excludeSet(opts.Exclude)

	var names []string
	for _, pkg := range installed {
		if pkg.Version == volta.ProjectVersion || excluded[pkg.Name] {
			continue
		}
		names = append(names, pkg.Name)
	}
	return names
}

// Plan classifies every installed package. Precedence per package: the
// project sentinel wins over everything, then the exclusion list, then an
// unresolved latest version, then the equality check. An excluded package
// therefore reports excluded even when it happens to be up to date.
//
// Resolution failures surface as StatusUnknown rows, never as errors.
func Plan(installed []volta.Package, latest map[string]string, opts Options) []Package {
	excluded := excludeSet(opts.Exclude)

	classified := make([]Package, 0, len(installed))
	for _, pkg := range installed {
		row := Package{Name: pkg.Name, Installed: pkg.Version}

		switch {
		case pkg.Version == volta.ProjectVersion:
			row.Status = StatusProjectPinned
		case excluded[pkg.Name]:
			row.Status = StatusExcluded
		case latest[pkg.Name] == "":
			row.Status = StatusUnknown
		case latest[pkg.Name] == pkg.Version:
			row.Latest = latest[pkg.Name]
			row.Status = StatusUpToDate
		default:
			row.Latest = latest[pkg.Name]
			row.Status = StatusOutdated
			row.MajorUpdate = IsMajorUpdate(pkg.Version, row.Latest)
		}

		classified = append(classified, row)
	}

	return classified
}

// UpdateCandidates returns the name@latest specs to hand to the installer.
// Only outdated packages qualify; project-pinned packages are added when
// includeProject is set. Excluded and unknown packages are never selected.
func UpdateCandidates(classified []Package, includeProject bool) []string {
	var specs []string
	for _, pkg := range classified {
		switch pkg.Status {
		case StatusOutdated:
			specs = append(specs, pkg.Name+"@latest")
		case StatusProjectPinned:
			if includeProject {
				specs = append(specs, pkg.Name+"@latest")
			}
		}
	}
	return specs
}

// MajorUpdates returns the outdated packages whose update crosses a major
// version boundary. These are advisory warnings only; they never block an
// update.
func MajorUpdates(classified []Package) []Package {
	var major []Package
	for _, pkg := range classified {
		if pkg.Status == StatusOutdated && pkg.MajorUpdate {
			major = append(major, pkg)
		}
	}
	return major
}

// MinorUpdates returns the outdated packages below the major boundary.
func MinorUpdates(classified []Package) []Package {
	var minor []Package
	for _, pkg := range classified {
		if pkg.Status == StatusOutdated && !pkg.MajorUpdate {
			minor = append(minor, pkg)
		}
	}
	return minor
}

// CountByStatus tallies classified packages per status for the summary line.
func CountByStatus(classified []Package) map[Status]int {
	counts := make(map[Status]int)
	for _, pkg := range classified {
		counts[pkg.Status]++
	}
	return counts
}

// Snapshot returns the name to installed-version map that should be saved
// before an update: every package with a real installed version, including
// excluded ones, so a rollback can restore them too.
func Snapshot(installed []volta.Package) map[string]string {
	snapshot := make(map[string]string, len(installed))
	for _, pkg := range installed {
		if pkg.Version == "" || pkg.Version == volta.ProjectVersion {
			continue
		}
		snapshot[pkg.Name] = pkg.Version
	}
	return snapshot
}

func excludeSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}
