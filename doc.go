// Package automl is a small AutoML workbench for tabular CSV data.
//
// A signed-in user uploads a dataset, explores it, chooses which columns to
// ignore, and trains classification and regression models on the remaining
// columns. The best model of each kind can then be downloaded.
//
// # Feature set
//
// The dataset package keeps three views of the uploaded table: the original
// table, the active table offered to training, and the ordered list of removed
// columns. Columns move between the active table and the removed list through
// a Controller:
//
//	store := dataset.NewStore()
//	if err := store.Load(table); err != nil {
//	    return err
//	}
//	c := dataset.NewController(store)
//	res, err := c.Ignore("id", "notes")   // active loses id and notes
//	err = c.Restore("notes")              // notes comes back at the end
//
// At every point the active columns and the removed columns partition the
// original columns.
//
// # Training
//
// training.Build validates a target and a train fraction against the active
// table and returns an immutable Request. The automl package runs the model
// search for a Request:
//
//	req, err := training.FromStore(store, "price", 0.7)
//	if err != nil {
//	    return err
//	}
//	res, err := automl.NewEngine().Search(ctx, req)
//
// # Packages
//
//   - dataset: Table, Store, Controller and CSV input/output
//   - training: validated training requests
//   - automl: encoding, train/test split, candidate search and artifacts
//   - linear, sklearn/linear_model, preprocessing: candidate estimators
//   - metrics: regression and classification scores
//   - profiling: descriptive reports and histograms
//   - auth, artifact: credential and model files
//   - session, server: the user-facing actions and their HTTP binding
//   - pkg/config, pkg/errors, pkg/log: configuration, errors and logging
//
// The command in cmd/automl serves everything over HTTP.
package automl
