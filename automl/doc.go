// Package automl is the model-search collaborator of the workflow.
//
// Given a training request it encodes the active table into a design matrix,
// splits the rows deterministically, fits a small set of classification and
// regression candidates and ranks them on the held-out rows. The best
// candidate of each kind becomes an Artifact that can be persisted and used
// for prediction on new tables.
//
//	engine := automl.NewEngine(automl.WithRandomState(42))
//	res, err := engine.Search(ctx, req)
//	if err != nil {
//		return err
//	}
//	best := res.Best(automl.Regression)
package automl
