package dataset

import (
	"github.com/YuminosukeSato/automl/pkg/errors"
)

// RemovalResult reports the outcome of Controller.Ignore.
type RemovalResult struct {
	Count   int
	Removed []string
	Active  []string
}

// Controller moves columns between the active table and the removed list.
//
// Ignoring a column that is already removed is an error, not a no-op.
// Restored columns are appended after the active columns.
type Controller struct {
	store *Store
}

// NewController returns a controller operating on store.
func NewController(store *Store) *Controller {
	return &Controller{store: store}
}

// Store returns the underlying store.
func (c *Controller) Store() *Store { return c.store }

// Ignore removes the named columns from the active table and appends them to
// the removed list in the order given. Duplicate names are collapsed. If any
// name is not an active column nothing is changed.
func (c *Controller) Ignore(names ...string) (RemovalResult, error) {
	s := c.store
	if !s.Loaded() {
		return RemovalResult{}, errors.NewNoDatasetError("ignore")
	}

	seen := make(map[string]struct{}, len(names))
	ordered := make([]string, 0, len(names))
	var unknown []string
	for _, n := range names {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		if !s.active.HasColumn(n) {
			unknown = append(unknown, n)
			continue
		}
		ordered = append(ordered, n)
	}
	if len(unknown) > 0 {
		return RemovalResult{}, errors.NewUnknownColumnError("ignore", unknown...)
	}

	if len(ordered) > 0 {
		removed := make([]string, 0, len(s.removed)+len(ordered))
		removed = append(removed, s.removed...)
		removed = append(removed, ordered...)
		s.set(s.active.without(seen), removed)
	}

	return RemovalResult{
		Count:   len(ordered),
		Removed: s.Removed(),
		Active:  s.active.Columns(),
	}, nil
}

// Restore moves name from the removed list back into the active table with
// the values of the original table.
func (c *Controller) Restore(name string) error {
	s := c.store
	if !s.Loaded() {
		return errors.NewNoDatasetError("restore")
	}

	pos := -1
	for i, n := range s.removed {
		if n == name {
			pos = i
			break
		}
	}
	if pos < 0 {
		return errors.NewUnknownColumnError("restore", name)
	}

	col, ok := s.original.Column(name)
	if !ok {
		// removed names always come from the original table
		return errors.Newf("automl: restore: column %q missing from original table", name)
	}

	removed := make([]string, 0, len(s.removed)-1)
	removed = append(removed, s.removed[:pos]...)
	removed = append(removed, s.removed[pos+1:]...)
	s.set(s.active.with(col), removed)
	return nil
}
