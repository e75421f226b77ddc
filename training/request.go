// Package training assembles validated requests for the model-search collaborator.
package training

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/automl/dataset"
	"github.com/YuminosukeSato/automl/pkg/errors"
)

// Request is an immutable, validated training request.
type Request struct {
	table         *dataset.Table
	target        string
	ignoreList    []string
	trainFraction float64
	testFraction  float64
}

// Table returns the active table, target column included.
func (r *Request) Table() *dataset.Table { return r.table }

// Target returns the target column name.
func (r *Request) Target() string { return r.target }

// IgnoreList returns a copy of the removed columns at build time.
func (r *Request) IgnoreList() []string {
	out := make([]string, len(r.ignoreList))
	copy(out, r.ignoreList)
	return out
}

// TrainFraction returns the fraction of rows used for fitting.
func (r *Request) TrainFraction() float64 { return r.trainFraction }

// TestFraction returns 1 - TrainFraction.
func (r *Request) TestFraction() float64 { return r.testFraction }

// Features returns the predictor column names in table order.
func (r *Request) Features() []string {
	cols := r.table.Columns()
	out := make([]string, 0, len(cols)-1)
	for _, c := range cols {
		if c != r.target {
			out = append(out, c)
		}
	}
	return out
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (r *Request) MarshalZerologObject(e *zerolog.Event) {
	e.Str("target", r.target).
		Strs("features", r.Features()).
		Strs("ignored", r.ignoreList).
		Int("rows", r.table.NumRows()).
		Float64("train_fraction", r.trainFraction).
		Float64("test_fraction", r.testFraction)
}

// SplitFractions validates trainFraction and returns it with its complement.
// Both 0 and 1 are rejected since they leave an empty partition.
func SplitFractions(trainFraction float64) (train, test float64, err error) {
	if math.IsNaN(trainFraction) || trainFraction <= 0 || trainFraction >= 1 {
		return 0, 0, errors.NewInvalidSplitError(trainFraction)
	}
	return trainFraction, 1 - trainFraction, nil
}

// Build validates the inputs and returns a request. Checks run in order:
// target membership, split fraction, predictor count.
func Build(active *dataset.Table, removed []string, target string, trainFraction float64) (*Request, error) {
	if active == nil {
		return nil, errors.NewNoDatasetError("train")
	}
	if !active.HasColumn(target) {
		reason := "not a column of the dataset"
		for _, r := range removed {
			if r == target {
				reason = "column is currently ignored"
				break
			}
		}
		return nil, errors.NewInvalidTargetError(target, reason)
	}

	train, test, err := SplitFractions(trainFraction)
	if err != nil {
		return nil, err
	}

	if active.NumColumns() < 2 {
		return nil, errors.NewInsufficientFeaturesError(target, active.NumColumns())
	}

	ignore := make([]string, len(removed))
	copy(ignore, removed)
	return &Request{
		table:         active,
		target:        target,
		ignoreList:    ignore,
		trainFraction: train,
		testFraction:  test,
	}, nil
}

// FromStore builds a request from the store's current snapshot.
func FromStore(store *dataset.Store, target string, trainFraction float64) (*Request, error) {
	if !store.Loaded() {
		return nil, errors.NewNoDatasetError("train")
	}
	snap := store.Snapshot()
	return Build(snap.Active, snap.Removed, target, trainFraction)
}
