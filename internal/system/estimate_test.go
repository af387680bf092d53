package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateUpdateMB(t *testing.T) {
	assert.Equal(t, int64(50), EstimateUpdateMB(1))
	assert.Equal(t, int64(250), EstimateUpdateMB(5))
	assert.Equal(t, int64(500), EstimateUpdateMB(10))
	assert.Equal(t, int64(0), EstimateUpdateMB(0))
	assert.Equal(t, int64(0), EstimateUpdateMB(-3))
}

func TestCheckDiskSpace(t *testing.T) {
	dir := t.TempDir()

	sufficient, available, err := CheckDiskSpace(dir, 0)
	require.NoError(t, err)
	assert.True(t, sufficient)
	assert.GreaterOrEqual(t, available, int64(0))

	// No filesystem has this much free space.
	sufficient, _, err = CheckDiskSpace(dir, 1<<40)
	require.NoError(t, err)
	assert.False(t, sufficient)
}
