package planner

import (
	"regexp"
	"strconv"
	"strings"
)

// versionRegex accepts the loose shapes npm actually publishes: "5", "5.3",
// "5.3.3", "v5.3.3", "5.3.3-rc.1".
var versionRegex = regexp.MustCompile(`^v?(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:[-+][0-9A-Za-z.-]+)?$`)

type version struct {
	major int
	minor int
	patch int
}

func parseVersion(s string) (version, bool) {
	matches := versionRegex.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return version{}, false
	}

	major, _ := strconv.Atoi(matches[1])
	minor := 0
	if matches[2] != "" {
		minor, _ = strconv.Atoi(matches[2])
	}
	patch := 0
	if matches[3] != "" {
		patch, _ = strconv.Atoi(matches[3])
	}

	return version{major: major, minor: minor, patch: patch}, true
}

// IsMajorUpdate reports whether moving from installed to latest crosses a
// major version boundary. Strings that do not parse as semantic versions are
// never treated as major updates.
func IsMajorUpdate(installed, latest string) bool {
	cur, ok := parseVersion(installed)
	if !ok {
		return false
	}
	next, ok := parseVersion(latest)
	if !ok {
		return false
	}
	return next.major > cur.major
}
