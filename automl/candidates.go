package automl

import (
	"fmt"

	"github.com/YuminosukeSato/automl/core/model"
	"github.com/YuminosukeSato/automl/linear"
	"github.com/YuminosukeSato/automl/pkg/errors"
	"github.com/YuminosukeSato/automl/pkg/log"
	"github.com/YuminosukeSato/automl/sklearn/linear_model"
)

// candidate is one estimator configuration tried by the search. build gets
// the logger that solver warnings go to.
type candidate struct {
	name   string
	scaled bool
	build  func(logger log.Logger) model.PersistableEstimator
}

var (
	logisticCs  = []float64{0.1, 1, 10}
	ridgeAlphas = []float64{1, 10}
)

func (e *Engine) candidates(kind Kind) []candidate {
	switch kind {
	case Classification:
		cands := []candidate{{
			name:  "DummyClassifier(most_frequent)",
			build: func(log.Logger) model.PersistableEstimator { return NewDummyClassifier() },
		}}
		for _, c := range logisticCs {
			cands = append(cands, candidate{
				name:   fmt.Sprintf("LogisticRegression(C=%g)", c),
				scaled: true,
				build: func(logger log.Logger) model.PersistableEstimator {
					return linear_model.NewLogisticRegression(
						linear_model.WithLRC(c),
						linear_model.WithLRMaxIter(e.maxIter),
						linear_model.WithLRRandomState(e.randomState),
						linear_model.WithLRWarnFunc(func(w error) {
							logger.Warn("Solver did not converge", w, log.IterationKey, e.maxIter)
						}),
					)
				},
			})
		}
		return cands
	case Regression:
		cands := []candidate{
			{
				name:  "DummyRegressor(mean)",
				build: func(log.Logger) model.PersistableEstimator { return NewDummyRegressor() },
			},
			{
				name:  "LinearRegression",
				build: func(log.Logger) model.PersistableEstimator { return linear.NewLinearRegression() },
			},
		}
		for _, a := range ridgeAlphas {
			cands = append(cands, candidate{
				name:   fmt.Sprintf("Ridge(alpha=%g)", a),
				scaled: true,
				build:  func(log.Logger) model.PersistableEstimator { return linear.NewRidge(linear.WithAlpha(a)) },
			})
		}
		return cands
	default:
		return nil
	}
}

// newEstimator returns an empty estimator able to import weights of modelType.
func newEstimator(modelType string) (model.PersistableEstimator, error) {
	switch modelType {
	case dummyClassifierType:
		return NewDummyClassifier(), nil
	case dummyRegressorType:
		return NewDummyRegressor(), nil
	case "LinearRegression":
		return linear.NewLinearRegression(), nil
	case "Ridge":
		return linear.NewRidge(), nil
	case "LogisticRegression":
		return linear_model.NewLogisticRegression(), nil
	default:
		return nil, errors.NewValidationError("model_type", "unknown model type", modelType)
	}
}
