package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "last_snapshot.json"))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	packages := map[string]string{
		"typescript": "5.0.0",
		"@vue/cli":   "5.0.8",
	}
	require.NoError(t, store.Save(packages))

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, packages, snap.Packages)
	assert.False(t, snap.CreatedAt.IsZero())
}

func TestLoadWithoutSnapshot(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSaveReplacesPriorSnapshot(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(map[string]string{"eslint": "8.0.0"}))
	require.NoError(t, store.Save(map[string]string{"eslint": "9.0.0"}))

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"eslint": "9.0.0"}, snap.Packages)
}

func TestRestoreAll(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(map[string]string{
		"a": "1.0.0",
		"b": "2.0.0",
	}))

	plan, err := store.Restore(nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a@1.0.0", "b@2.0.0"}, plan.Specs)
	assert.Empty(t, plan.NotFound)
}

func TestRestoreSubset(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(map[string]string{
		"a": "1.0.0",
		"b": "2.0.0",
	}))

	plan, err := store.Restore([]string{"a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@1.0.0"}, plan.Specs)
	assert.Empty(t, plan.NotFound)
}

func TestRestorePartialMatch(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(map[string]string{
		"typescript": "5.0.0",
		"eslint":     "8.0.0",
	}))

	plan, err := store.Restore([]string{"typescript", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, []string{"typescript@5.0.0"}, plan.Specs)
	assert.Equal(t, []string{"ghost"}, plan.NotFound)
}

func TestRestoreNoMatches(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(map[string]string{"a": "1.0.0"}))

	plan, err := store.Restore([]string{"z"})
	assert.ErrorIs(t, err, ErrNothingToRestore)
	require.NotNil(t, plan)
	assert.Empty(t, plan.Specs)
	assert.Equal(t, []string{"z"}, plan.NotFound)
}

func TestRestoreScopedNames(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(map[string]string{"@vue/cli": "5.0.0"}))

	plan, err := store.Restore([]string{"@vue/cli"})
	require.NoError(t, err)
	assert.Equal(t, []string{"@vue/cli@5.0.0"}, plan.Specs)
}

func TestRestoreWithoutSnapshot(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Restore(nil)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestLoadCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	_, err := New(path).Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSnapshot)
}
