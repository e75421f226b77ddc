package dataset

import (
	"github.com/YuminosukeSato/automl/pkg/errors"
)

// State is the state of the feature-set machine.
type State int

const (
	// StateEmpty means no dataset has been loaded yet.
	StateEmpty State = iota
	// StateLoaded means a dataset is loaded and no column is removed.
	StateLoaded
	// StatePartitioned means at least one column is removed.
	StatePartitioned
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StatePartitioned:
		return "partitioned"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only view of the store.
type Snapshot struct {
	Active   *Table
	Removed  []string
	Original []string
}

// Store holds the original table, the active table and the removed columns.
//
// Store is not safe for concurrent use; the session serialises access.
type Store struct {
	original *Table
	active   *Table
	removed  []string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Load replaces the dataset and clears the removed list.
func (s *Store) Load(t *Table) error {
	if t == nil || t.NumColumns() == 0 {
		return errors.NewEmptyDatasetError("")
	}
	s.original = t
	s.active = t
	s.removed = nil
	return nil
}

// Loaded reports whether a dataset is loaded.
func (s *Store) Loaded() bool { return s.original != nil }

// Original returns the table captured at load time, or nil.
func (s *Store) Original() *Table { return s.original }

// Active returns the table currently exposed to training, or nil.
func (s *Store) Active() *Table { return s.active }

// Removed returns a copy of the removed column names in removal order.
func (s *Store) Removed() []string {
	out := make([]string, len(s.removed))
	copy(out, s.removed)
	return out
}

// Snapshot returns the active table and the removed list. It has no side effects.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{Active: s.active, Removed: s.Removed()}
	if s.original != nil {
		snap.Original = s.original.Columns()
	}
	return snap
}

// State returns the current machine state.
func (s *Store) State() State {
	switch {
	case s.original == nil:
		return StateEmpty
	case len(s.removed) == 0:
		return StateLoaded
	default:
		return StatePartitioned
	}
}

// set replaces the active table and removed list after a controller operation.
func (s *Store) set(active *Table, removed []string) {
	s.active = active
	s.removed = removed
}
