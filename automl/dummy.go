package automl

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/automl/core/model"
	"github.com/YuminosukeSato/automl/pkg/errors"
)

const (
	dummyRegressorType  = "DummyRegressor"
	dummyClassifierType = "DummyClassifier"
)

// DummyRegressor predicts the training mean. It is the regression baseline.
type DummyRegressor struct {
	model.BaseEstimator
	Mean      float64
	NFeatures int
}

// NewDummyRegressor returns an unfitted DummyRegressor.
func NewDummyRegressor() *DummyRegressor { return &DummyRegressor{} }

// Fit stores the mean of y.
func (d *DummyRegressor) Fit(X, y mat.Matrix) error {
	yv, c, err := baselineTarget("DummyRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	var sum float64
	for _, v := range yv {
		sum += v
	}
	d.Mean = sum / float64(len(yv))
	d.NFeatures = c
	d.SetFitted()
	return nil
}

// Predict returns the stored mean for every row.
func (d *DummyRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := d.RequireFitted("DummyRegressor", "Predict"); err != nil {
		return nil, err
	}
	return constantColumn("DummyRegressor.Predict", X, d.NFeatures, d.Mean)
}

// ExportWeights returns the mean as an intercept-only weight set.
func (d *DummyRegressor) ExportWeights() (*model.ModelWeights, error) {
	if err := d.RequireFitted("DummyRegressor", "ExportWeights"); err != nil {
		return nil, err
	}
	return &model.ModelWeights{
		ModelType:       dummyRegressorType,
		Version:         model.WeightsVersion,
		Intercept:       d.Mean,
		Hyperparameters: map[string]interface{}{"n_features": d.NFeatures},
		IsFitted:        true,
	}, nil
}

// ImportWeights restores the mean.
func (d *DummyRegressor) ImportWeights(w *model.ModelWeights) error {
	if err := checkImport(dummyRegressorType, w); err != nil {
		return err
	}
	d.Mean = w.Intercept
	d.NFeatures = hyperInt(w, "n_features")
	d.SetFitted()
	return nil
}

// DummyClassifier predicts the most frequent training class. Ties go to the
// smallest class code.
type DummyClassifier struct {
	model.BaseEstimator
	Class     int
	NFeatures int
}

// NewDummyClassifier returns an unfitted DummyClassifier.
func NewDummyClassifier() *DummyClassifier { return &DummyClassifier{} }

// Fit stores the most frequent class of y.
func (d *DummyClassifier) Fit(X, y mat.Matrix) error {
	yv, c, err := baselineTarget("DummyClassifier.Fit", X, y)
	if err != nil {
		return err
	}
	counts := make(map[int]int)
	for _, v := range yv {
		counts[int(v)]++
	}
	best, bestCount := 0, -1
	for class, n := range counts {
		if n > bestCount || (n == bestCount && class < best) {
			best, bestCount = class, n
		}
	}
	d.Class = best
	d.NFeatures = c
	d.SetFitted()
	return nil
}

// Predict returns the stored class for every row.
func (d *DummyClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := d.RequireFitted("DummyClassifier", "Predict"); err != nil {
		return nil, err
	}
	return constantColumn("DummyClassifier.Predict", X, d.NFeatures, float64(d.Class))
}

// ExportWeights returns the class as a single-element class list.
func (d *DummyClassifier) ExportWeights() (*model.ModelWeights, error) {
	if err := d.RequireFitted("DummyClassifier", "ExportWeights"); err != nil {
		return nil, err
	}
	return &model.ModelWeights{
		ModelType:       dummyClassifierType,
		Version:         model.WeightsVersion,
		Classes:         []int{d.Class},
		Hyperparameters: map[string]interface{}{"n_features": d.NFeatures},
		IsFitted:        true,
	}, nil
}

// ImportWeights restores the class.
func (d *DummyClassifier) ImportWeights(w *model.ModelWeights) error {
	if err := checkImport(dummyClassifierType, w); err != nil {
		return err
	}
	if len(w.Classes) != 1 {
		return errors.NewValueError("DummyClassifier.ImportWeights", "expected exactly one class")
	}
	d.Class = w.Classes[0]
	d.NFeatures = hyperInt(w, "n_features")
	d.SetFitted()
	return nil
}

func baselineTarget(op string, X, y mat.Matrix) ([]float64, int, error) {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return nil, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return nil, 0, errors.NewDimensionError(op, r, ry, 0)
	}
	if cy != 1 {
		return nil, 0, errors.NewDimensionError(op, 1, cy, 1)
	}
	out := make([]float64, r)
	for i := range out {
		out[i] = y.At(i, 0)
	}
	return out, c, nil
}

func constantColumn(op string, X mat.Matrix, nFeatures int, v float64) (mat.Matrix, error) {
	r, c := X.Dims()
	if nFeatures > 0 && c != nFeatures {
		return nil, errors.NewDimensionError(op, nFeatures, c, 1)
	}
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, v)
	}
	return out, nil
}

func checkImport(modelType string, w *model.ModelWeights) error {
	op := modelType + ".ImportWeights"
	if w == nil {
		return errors.NewValueError(op, "weights are nil")
	}
	if err := w.Validate(); err != nil {
		return err
	}
	if w.ModelType != modelType {
		return errors.NewValueError(op, "weights belong to "+w.ModelType)
	}
	return nil
}

// hyperInt reads an integer hyperparameter that may have been decoded as float64 from JSON.
func hyperInt(w *model.ModelWeights, key string) int {
	switch v := w.Hyperparameters[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
