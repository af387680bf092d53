package logging

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenWritesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voltup.log")

	logger, closeLog, err := Open(path, false)
	require.NoError(t, err)

	logger.Info("operation", "op", "update", "count", 3)
	logger.Error("update failed", "op", "update")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "op=update")
	assert.Contains(t, content, "level=ERROR")
}

func TestOpenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voltup.log")

	for i := 0; i < 2; i++ {
		logger, closeLog, err := Open(path, false)
		require.NoError(t, err)
		logger.Info("operation", "op", "check")
		require.NoError(t, closeLog())
	}

	stats, err := FileStats(path)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalLines)
}

func TestFileStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voltup.log")

	logger, closeLog, err := Open(path, false)
	require.NoError(t, err)
	logger.Info("operation", "op", "check", "count", 12)
	logger.Info("operation", "op", "update", "count", 2)
	logger.Error("install failed", "op", "update")
	require.NoError(t, closeLog())

	stats, err := FileStats(path)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalLines)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 2, stats.Updates) // the update record plus the error carrying op=update
}

func TestFileStatsMissingFile(t *testing.T) {
	stats, err := FileStats(filepath.Join(t.TempDir(), "absent.log"))
	require.NoError(t, err)
	assert.Equal(t, &Stats{}, stats)
}

func TestTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voltup.log")
	content := "one\ntwo\nthree\nfour\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	lines, err := Tail(path, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"three", "four"}, lines)

	lines, err = Tail(path, 10)
	require.NoError(t, err)
	assert.Len(t, lines, 4)

	lines, err = Tail(filepath.Join(t.TempDir(), "absent.log"), 5)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestFollowStreamsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voltup.log")
	require.NoError(t, os.WriteFile(path, []byte("old line\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	buf := &syncWriter{}
	done := make(chan error, 1)
	go func() {
		done <- Follow(ctx, path, buf)
	}()

	// Give the watcher a moment to attach before appending.
	time.Sleep(100 * time.Millisecond)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = file.WriteString("new line\n")
	require.NoError(t, err)
	require.NoError(t, file.Close())

	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "new line")
	}, 3*time.Second, 20*time.Millisecond)

	assert.NotContains(t, buf.String(), "old line", "follow starts at end of file")

	cancel()
	require.NoError(t, <-done)
}

// syncWriter lets the test poll contents written from the follower
// goroutine without a data race.
type syncWriter struct {
	mu sync.Mutex
	sb strings.Builder
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sb.Write(p)
}

func (w *syncWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sb.String()
}
