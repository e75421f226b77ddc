// Package dataset holds the feature-set state machine of the workflow.
//
// A Store keeps the table captured at upload time (the original), the table
// currently exposed to training (the active table) and the ordered list of
// columns that were removed from it. A Controller moves columns between the
// active table and the removed list. Every operation is all-or-nothing: after
// each call every original column is in exactly one of the two sets.
//
//	store := dataset.NewStore()
//	if err := store.Load(table); err != nil {
//		return err
//	}
//	ctrl := dataset.NewController(store)
//	res, err := ctrl.Ignore("id", "notes")
//	...
//	err = ctrl.Restore("notes") // values are copied back from the original
package dataset
