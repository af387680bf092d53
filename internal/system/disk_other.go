//go:build !darwin && !linux

package system

import "errors"

// FreeMB is unsupported on this platform; callers treat the error as
// "unable to check" and skip the preflight.
func FreeMB(path string) (int64, error) {
	return 0, errors.New("disk space check not supported on this platform")
}
