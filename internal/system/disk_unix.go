//go:build darwin || linux

// Package system provides host checks used before destructive operations.
package system

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// FreeMB returns the free space in megabytes on the filesystem containing
// path, as seen by an unprivileged caller.
func FreeMB(path string) (int64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("failed to stat filesystem at %s: %w", path, err)
	}
	return int64(stat.Bavail) * int64(stat.Bsize) / (1024 * 1024), nil
}
