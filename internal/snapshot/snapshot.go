// Package snapshot persists the pre-update installed-version set so a later
// rollback can restore exact prior versions.
//
// History is single-slot: each save atomically replaces the previous
// snapshot, and only the most recent one is retrievable.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ErrNoSnapshot reports that no snapshot has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot available")

// ErrNothingToRestore reports that none of the requested packages are
// present in the snapshot.
var ErrNothingToRestore = errors.New("nothing to restore")

// Snapshot is the package set captured before an update.
type Snapshot struct {
	CreatedAt time.Time         `json:"created_at"`
	Packages  map[string]string `json:"packages"`
}

// RestorePlan lists the name@version specs to reinstall and the requested
// names that were not found in the snapshot. The store only produces the
// plan; executing the installs is the installer's job.
type RestorePlan struct {
	CreatedAt time.Time
	Specs     []string
	NotFound  []string
}

// Store reads and writes the single snapshot file.
type Store struct {
	path string
}

// New returns a Store backed by the given file path.
func New(path string) *Store {
	return &Store{path: path}
}

// Save replaces the current snapshot with the given package set. The file is
// written to a temporary sibling and renamed into place, so an interrupted
// update still leaves the previous snapshot usable.
func (s *Store) Save(packages map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	snap := Snapshot{CreatedAt: time.Now(), Packages: packages}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp snapshot file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	return nil
}

// Load returns the most recent snapshot, or ErrNoSnapshot when none exists.
func (s *Store) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	return &snap, nil
}

// Restore filters the snapshot to the requested names. An empty names slice
// selects the full snapshot. Requested names absent from the snapshot come
// back in NotFound; when nothing matches at all the error is
// ErrNothingToRestore so callers can distinguish it from a silent no-op.
func (s *Store) Restore(names []string) (*RestorePlan, error) {
	snap, err := s.Load()
	if err != nil {
		return nil, err
	}

	plan := &RestorePlan{CreatedAt: snap.CreatedAt}

	if len(names) == 0 {
		for name, version := range snap.Packages {
			plan.Specs = append(plan.Specs, name+"@"+version)
		}
	} else {
		for _, name := range names {
			version, ok := snap.Packages[name]
			if !ok {
				plan.NotFound = append(plan.NotFound, name)
				continue
			}
			plan.Specs = append(plan.Specs, name+"@"+version)
		}
	}

	sort.Strings(plan.Specs)

	if len(plan.Specs) == 0 {
		return plan, ErrNothingToRestore
	}
	return plan, nil
}
