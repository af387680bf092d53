package system

// perPackageEstimateMB is a coarse allowance per updated package covering
// the package itself plus volta's staging copies.
const perPackageEstimateMB = 50

// EstimateUpdateMB returns the rough disk space an update of count packages
// may need.
func EstimateUpdateMB(count int) int64 {
	if count < 0 {
		return 0
	}
	return int64(count) * perPackageEstimateMB
}

// CheckDiskSpace reports whether at least neededMB is free at path. The
// available figure is returned for the caller's message.
func CheckDiskSpace(path string, neededMB int64) (sufficient bool, availableMB int64, err error) {
	availableMB, err = FreeMB(path)
	if err != nil {
		return false, 0, err
	}
	return availableMB >= neededMB, availableMB, nil
}
