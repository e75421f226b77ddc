package dataset

import (
	"fmt"
	"reflect"
	"sort"
	"testing"

	"github.com/YuminosukeSato/automl/pkg/errors"
)

// scenarioTable has columns A, B, C, target and 10 rows.
func scenarioTable() *Table {
	cols := []Column{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "target"}}
	for i := range cols {
		cols[i].Values = make([]string, 10)
		for r := 0; r < 10; r++ {
			cols[i].Values[r] = fmt.Sprintf("%s%d", cols[i].Name, r)
		}
	}
	return MustNewTable(cols...)
}

func loadedController(t *testing.T) *Controller {
	t.Helper()
	store := NewStore()
	if err := store.Load(scenarioTable()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return NewController(store)
}

// checkPartition asserts that active and removed partition the original columns.
func checkPartition(t *testing.T, s *Store) {
	t.Helper()
	snap := s.Snapshot()
	seen := make(map[string]int)
	for _, c := range snap.Active.Columns() {
		seen[c]++
	}
	for _, c := range snap.Removed {
		seen[c]++
	}
	for _, c := range snap.Original {
		if seen[c] != 1 {
			t.Errorf("column %q appears %d times across active and removed", c, seen[c])
		}
		delete(seen, c)
	}
	if len(seen) != 0 {
		t.Errorf("columns not in original: %v", seen)
	}
	if snap.Active.NumRows() != s.Original().NumRows() {
		t.Errorf("active rows = %d, original rows = %d", snap.Active.NumRows(), s.Original().NumRows())
	}
}

func TestStoreLoad(t *testing.T) {
	store := NewStore()
	if store.State() != StateEmpty {
		t.Errorf("State() = %v, want empty", store.State())
	}

	tbl := scenarioTable()
	if err := store.Load(tbl); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	snap := store.Snapshot()
	if !snap.Active.Equal(tbl) {
		t.Error("active table differs from loaded table")
	}
	if len(snap.Removed) != 0 {
		t.Errorf("Removed = %v, want empty", snap.Removed)
	}
	if store.State() != StateLoaded {
		t.Errorf("State() = %v, want loaded", store.State())
	}
}

func TestStoreLoadEmpty(t *testing.T) {
	store := NewStore()
	for name, tbl := range map[string]*Table{"nil": nil, "no columns": MustNewTable()} {
		err := store.Load(tbl)
		var eerr *errors.EmptyDatasetError
		if !errors.As(err, &eerr) {
			t.Errorf("%s: expected EmptyDatasetError, got %v", name, err)
		}
	}
	if store.Loaded() {
		t.Error("failed load must not load a dataset")
	}
}

func TestStoreReloadResetsRemoved(t *testing.T) {
	ctrl := loadedController(t)
	if _, err := ctrl.Ignore("A"); err != nil {
		t.Fatal(err)
	}
	next := MustNewTable(Column{Name: "x", Values: []string{"1"}}, Column{Name: "y", Values: []string{"2"}})
	if err := ctrl.Store().Load(next); err != nil {
		t.Fatal(err)
	}
	if got := ctrl.Store().Removed(); len(got) != 0 {
		t.Errorf("Removed after reload = %v", got)
	}
	if ctrl.Store().State() != StateLoaded {
		t.Errorf("State() = %v, want loaded", ctrl.Store().State())
	}
}

func TestIgnoreRestoreScenario(t *testing.T) {
	ctrl := loadedController(t)
	store := ctrl.Store()

	res, err := ctrl.Ignore("B")
	if err != nil {
		t.Fatalf("Ignore() error = %v", err)
	}
	if res.Count != 1 {
		t.Errorf("Count = %d, want 1", res.Count)
	}
	if !reflect.DeepEqual(res.Removed, []string{"B"}) {
		t.Errorf("Removed = %v, want [B]", res.Removed)
	}
	if !reflect.DeepEqual(res.Active, []string{"A", "C", "target"}) {
		t.Errorf("Active = %v, want [A C target]", res.Active)
	}
	if store.State() != StatePartitioned {
		t.Errorf("State() = %v, want partitioned", store.State())
	}
	checkPartition(t, store)

	if err := ctrl.Restore("B"); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	snap := store.Snapshot()
	if got := snap.Active.Columns(); !reflect.DeepEqual(got, []string{"A", "C", "target", "B"}) {
		t.Errorf("Active after restore = %v, want [A C target B]", got)
	}
	if len(snap.Removed) != 0 {
		t.Errorf("Removed after restore = %v", snap.Removed)
	}
	if store.State() != StateLoaded {
		t.Errorf("State() = %v, want loaded", store.State())
	}
	checkPartition(t, store)
}

func TestIgnoreRestoreRoundTrip(t *testing.T) {
	for _, name := range scenarioTable().Columns() {
		t.Run(name, func(t *testing.T) {
			ctrl := loadedController(t)
			before := ctrl.Store().Active()

			if _, err := ctrl.Ignore(name); err != nil {
				t.Fatalf("Ignore() error = %v", err)
			}
			if err := ctrl.Restore(name); err != nil {
				t.Fatalf("Restore() error = %v", err)
			}

			after := ctrl.Store().Active()
			want := before.Columns()
			got := after.Columns()
			sort.Strings(want)
			sort.Strings(got)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("columns = %v, want %v", got, want)
			}
			for _, c := range want {
				bv, _ := before.Values(c)
				av, _ := after.Values(c)
				if !reflect.DeepEqual(av, bv) {
					t.Errorf("values of %q changed", c)
				}
			}
		})
	}
}

func TestIgnoreSequencePreservesPartition(t *testing.T) {
	ctrl := loadedController(t)
	store := ctrl.Store()

	steps := []struct {
		ignore  []string
		restore string
	}{
		{ignore: []string{"A"}},
		{ignore: []string{"C", "B"}},
		{restore: "C"},
		{ignore: []string{"target"}},
		{restore: "A"},
		{restore: "B"},
		{ignore: []string{"C"}},
	}
	for i, step := range steps {
		if step.ignore != nil {
			if _, err := ctrl.Ignore(step.ignore...); err != nil {
				t.Fatalf("step %d: Ignore(%v) error = %v", i, step.ignore, err)
			}
		} else if err := ctrl.Restore(step.restore); err != nil {
			t.Fatalf("step %d: Restore(%q) error = %v", i, step.restore, err)
		}
		checkPartition(t, store)
	}

	if got := store.Removed(); !reflect.DeepEqual(got, []string{"target", "C"}) {
		t.Errorf("Removed = %v, want [target C]", got)
	}
}

func TestIgnoreOrderAndDuplicates(t *testing.T) {
	ctrl := loadedController(t)
	res, err := ctrl.Ignore("C", "A", "C")
	if err != nil {
		t.Fatalf("Ignore() error = %v", err)
	}
	if res.Count != 2 {
		t.Errorf("Count = %d, want 2", res.Count)
	}
	if !reflect.DeepEqual(res.Removed, []string{"C", "A"}) {
		t.Errorf("Removed = %v, want [C A]", res.Removed)
	}
}

func TestIgnoreEmptySet(t *testing.T) {
	ctrl := loadedController(t)
	before := ctrl.Store().Snapshot()

	res, err := ctrl.Ignore()
	if err != nil {
		t.Fatalf("Ignore() error = %v", err)
	}
	if res.Count != 0 {
		t.Errorf("Count = %d, want 0", res.Count)
	}
	after := ctrl.Store().Snapshot()
	if !after.Active.Equal(before.Active) || ctrl.Store().State() != StateLoaded {
		t.Error("empty ignore must not change state")
	}
}

func TestIgnoreFailureLeavesStateUnchanged(t *testing.T) {
	tests := []struct {
		name    string
		prepare []string
		ignore  []string
		unknown []string
	}{
		{name: "unknown column", ignore: []string{"A", "nope"}, unknown: []string{"nope"}},
		{name: "already ignored", prepare: []string{"B"}, ignore: []string{"B", "C"}, unknown: []string{"B"}},
		{name: "several unknown", ignore: []string{"x", "A", "y"}, unknown: []string{"x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := loadedController(t)
			if len(tt.prepare) > 0 {
				if _, err := ctrl.Ignore(tt.prepare...); err != nil {
					t.Fatal(err)
				}
			}
			before := ctrl.Store().Snapshot()

			_, err := ctrl.Ignore(tt.ignore...)
			var uerr *errors.UnknownColumnError
			if !errors.As(err, &uerr) {
				t.Fatalf("expected UnknownColumnError, got %v", err)
			}
			if !reflect.DeepEqual(uerr.Columns, tt.unknown) {
				t.Errorf("Columns = %v, want %v", uerr.Columns, tt.unknown)
			}

			after := ctrl.Store().Snapshot()
			if !after.Active.Equal(before.Active) {
				t.Error("active table changed after failed ignore")
			}
			if !reflect.DeepEqual(after.Removed, before.Removed) {
				t.Errorf("removed changed: %v -> %v", before.Removed, after.Removed)
			}
		})
	}
}

func TestRestoreUnknown(t *testing.T) {
	ctrl := loadedController(t)
	for _, name := range []string{"A", "nope"} {
		err := ctrl.Restore(name)
		var uerr *errors.UnknownColumnError
		if !errors.As(err, &uerr) {
			t.Errorf("Restore(%q): expected UnknownColumnError, got %v", name, err)
		}
	}
	checkPartition(t, ctrl.Store())
}

func TestRestoreUsesOriginalValues(t *testing.T) {
	ctrl := loadedController(t)
	orig, _ := ctrl.Store().Original().Values("C")

	if _, err := ctrl.Ignore("C", "A"); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.Restore("A"); err != nil {
		t.Fatal(err)
	}
	if _, err := ctrl.Ignore("A"); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.Restore("C"); err != nil {
		t.Fatal(err)
	}

	got, ok := ctrl.Store().Active().Values("C")
	if !ok {
		t.Fatal("C not active after restore")
	}
	if !reflect.DeepEqual(got, orig) {
		t.Errorf("restored values = %v, want %v", got, orig)
	}
}

func TestControllerWithoutDataset(t *testing.T) {
	ctrl := NewController(NewStore())
	var nerr *errors.NoDatasetError
	if _, err := ctrl.Ignore("A"); !errors.As(err, &nerr) {
		t.Errorf("Ignore(): expected NoDatasetError, got %v", err)
	}
	if err := ctrl.Restore("A"); !errors.As(err, &nerr) {
		t.Errorf("Restore(): expected NoDatasetError, got %v", err)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{StateEmpty: "empty", StateLoaded: "loaded", StatePartitioned: "partitioned", State(9): "unknown"} {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), s.String(), want)
		}
	}
}
