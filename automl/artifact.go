package automl

import (
	"math"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/automl/core/model"
	"github.com/YuminosukeSato/automl/dataset"
	"github.com/YuminosukeSato/automl/pkg/errors"
	"github.com/YuminosukeSato/automl/preprocessing"
)

// Artifact is the best model of one kind together with everything needed to
// predict from a raw table: the feature encodings, the target levels, the
// scaler parameters and the estimator weights.
type Artifact struct {
	RunID       string
	Kind        Kind
	ModelName   string
	Target      string
	Features    []FeatureEncoding
	TargetInfo  TargetEncoding
	ScalerMean  []float64
	ScalerScale []float64
	Weights     *model.ModelWeights
	Metric      string
	Score       float64
	CreatedAt   time.Time
}

// FeatureNames returns the predictor columns the artifact expects.
func (a *Artifact) FeatureNames() []string {
	names := make([]string, len(a.Features))
	for i, f := range a.Features {
		names[i] = f.Name
	}
	return names
}

// Estimator rebuilds the fitted estimator from the stored weights.
func (a *Artifact) Estimator() (model.PersistableEstimator, error) {
	if a.Weights == nil {
		return nil, errors.NewValueError("Artifact.Estimator", "artifact has no weights")
	}
	est, err := newEstimator(a.Weights.ModelType)
	if err != nil {
		return nil, err
	}
	if err := est.ImportWeights(a.Weights); err != nil {
		return nil, errors.Wrapf(err, "automl: failed to restore %s", a.ModelName)
	}
	return est, nil
}

// Predict encodes table the same way as during the search and returns one
// prediction per row. Classification predictions are target levels;
// regression predictions are formatted numbers. Extra columns are ignored.
func (a *Artifact) Predict(table *dataset.Table) ([]string, error) {
	X, err := encodeTable(table, a.Features, nil)
	if err != nil {
		return nil, err
	}

	var input mat.Matrix = X
	if len(a.ScalerMean) > 0 {
		scaler, err := preprocessing.NewStandardScalerFromParams(a.ScalerMean, a.ScalerScale)
		if err != nil {
			return nil, err
		}
		if input, err = scaler.Transform(X); err != nil {
			return nil, err
		}
	}

	est, err := a.Estimator()
	if err != nil {
		return nil, err
	}
	pred, err := est.Predict(input)
	if err != nil {
		return nil, err
	}

	n, _ := pred.Dims()
	out := make([]string, n)
	for i := 0; i < n; i++ {
		v := pred.At(i, 0)
		if a.Kind == Regression {
			out[i] = canonicalFloat(v)
			continue
		}
		label, ok := a.TargetInfo.Label(int(math.Round(v)))
		if !ok {
			return nil, errors.NewValueError("Artifact.Predict", "estimator returned an unknown class")
		}
		out[i] = label
	}
	return out, nil
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (a *Artifact) MarshalZerologObject(e *zerolog.Event) {
	e.Str("run_id", a.RunID).
		Str("kind", a.Kind.String()).
		Str("model", a.ModelName).
		Str("target", a.Target).
		Strs("features", a.FeatureNames()).
		Str("metric", a.Metric).
		Float64("score", a.Score)
}
