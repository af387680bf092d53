package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Put("typescript", "5.3.3"))

	version, ok := c.Get("typescript", time.Hour)
	require.True(t, ok)
	assert.Equal(t, "5.3.3", version)
}

func TestGetMissingPackage(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	_, ok := c.Get("eslint", time.Hour)
	assert.False(t, ok)
}

func TestGetExpiredRecord(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)

	// Write an aged record directly so the memory front is not involved.
	rec := record{Version: "8.0.0", FetchedAt: time.Now().Add(-2 * time.Hour)}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "eslint.json"), data, 0644))

	_, ok := c.Get("eslint", time.Hour)
	assert.False(t, ok, "record older than the TTL must be a miss")

	// A wider TTL still sees the same record.
	version, ok := c.Get("eslint", 3*time.Hour)
	require.True(t, ok)
	assert.Equal(t, "8.0.0", version)
}

func TestGetExpiredAfterPut(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, c.Put("prettier", "3.2.0"))

	// Fresh cache instance reads from disk only.
	c2, err := New(dir)
	require.NoError(t, err)

	// Age the record on disk past the TTL.
	path := filepath.Join(dir, "prettier.json")
	rec := record{Version: "3.2.0", FetchedAt: time.Now().Add(-90 * time.Minute)}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, ok := c2.Get("prettier", time.Hour)
	assert.False(t, ok)
}

func TestDefaultTTLWhenNonPositive(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Put("npm-check", "6.0.1"))

	version, ok := c.Get("npm-check", 0)
	require.True(t, ok, "zero TTL should fall back to the one hour default")
	assert.Equal(t, "6.0.1", version)
}

func TestCorruptRecordIsAMiss(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "eslint.json"), []byte("{not json"), 0644))

	_, ok := c.Get("eslint", time.Hour)
	assert.False(t, ok)

	// Self-heals on the next Put.
	require.NoError(t, c.Put("eslint", "9.0.0"))
	version, ok := c.Get("eslint", time.Hour)
	require.True(t, ok)
	assert.Equal(t, "9.0.0", version)
}

func TestScopedNamesDoNotCollide(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Put("@vue/cli", "5.0.8"))
	require.NoError(t, c.Put("vue_cli", "1.0.0"))

	scoped, ok := c.Get("@vue/cli", time.Hour)
	require.True(t, ok)
	assert.Equal(t, "5.0.8", scoped)

	literal, ok := c.Get("vue_cli", time.Hour)
	require.True(t, ok)
	assert.Equal(t, "1.0.0", literal)
}

func TestClear(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Put("typescript", "5.3.3"))
	require.NoError(t, c.Put("@vue/cli", "5.0.8"))

	require.NoError(t, c.Clear())

	_, ok := c.Get("typescript", time.Hour)
	assert.False(t, ok)
	_, ok = c.Get("@vue/cli", time.Hour)
	assert.False(t, ok)

	count, _, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestPutOverwritesExistingRecord(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Put("typescript", "5.2.0"))
	require.NoError(t, c.Put("typescript", "5.3.3"))

	version, ok := c.Get("typescript", time.Hour)
	require.True(t, ok)
	assert.Equal(t, "5.3.3", version)

	count, _, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStats(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	count, oldest, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.True(t, oldest.IsZero())

	require.NoError(t, c.Put("typescript", "5.3.3"))
	require.NoError(t, c.Put("eslint", "9.0.0"))

	count, oldest, err = c.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.False(t, oldest.IsZero())
}

func TestConcurrentPutsSameKey(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 20; j++ {
				_ = c.Put("typescript", "5.3.3")
				c.Get("typescript", time.Hour)
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	version, ok := c.Get("typescript", time.Hour)
	require.True(t, ok)
	assert.Equal(t, "5.3.3", version)
}
