package linear

import (
	"fmt"

	"github.com/YuminosukeSato/automl/core/model"
	"github.com/YuminosukeSato/automl/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Ridge は L2 正則化付きの線形回帰モデル
//
// (X^T X + alpha I) w = X^T y を解く。切片は正則化しないため、
// FitIntercept が true の場合は X と y を中心化してから解く。
type Ridge struct {
	model.BaseEstimator
	Alpha        float64
	FitIntercept bool
	Weights      *mat.VecDense
	Intercept    float64
	NFeatures    int
}

// NewRidge は新しい Ridge モデルを作成する（alpha=1, 切片あり）
func NewRidge(opts ...RidgeOption) *Ridge {
	r := &Ridge{Alpha: 1.0, FitIntercept: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name は候補一覧に表示する名前を返す
func (r *Ridge) Name() string {
	return fmt.Sprintf("Ridge(alpha=%g)", r.Alpha)
}

// Fit はモデルを訓練データで学習させる
func (r *Ridge) Fit(X, y mat.Matrix) error {
	if r.Alpha <= 0 {
		return errors.NewValidationError("alpha", "must be positive", r.Alpha)
	}
	n, c, err := checkXY("Ridge.Fit", X, y)
	if err != nil {
		return err
	}
	r.NFeatures = c

	xMean := make([]float64, c)
	var yMean float64
	if r.FitIntercept {
		for i := 0; i < n; i++ {
			for j := 0; j < c; j++ {
				xMean[j] += X.At(i, j)
			}
			yMean += y.At(i, 0)
		}
		for j := range xMean {
			xMean[j] /= float64(n)
		}
		yMean /= float64(n)
	}

	Xc := mat.NewDense(n, c, nil)
	yc := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < c; j++ {
			Xc.Set(i, j, X.At(i, j)-xMean[j])
		}
		yc.SetVec(i, y.At(i, 0)-yMean)
	}

	var A mat.Dense
	A.Mul(Xc.T(), Xc)
	for j := 0; j < c; j++ {
		A.Set(j, j, A.At(j, j)+r.Alpha)
	}

	var b mat.VecDense
	b.MulVec(Xc.T(), yc)

	var w mat.VecDense
	if err := w.SolveVec(&A, &b); err != nil {
		return errors.NewModelError("Ridge.Fit", "singular matrix", errors.ErrSingularMatrix)
	}
	if err := errors.CheckNumericalStability("Ridge.Fit", w.RawVector().Data, 0); err != nil {
		return err
	}

	r.Weights = mat.VecDenseCopyOf(&w)
	r.Intercept = 0
	if r.FitIntercept {
		r.Intercept = yMean - mat.Dot(mat.NewVecDense(c, xMean), r.Weights)
	}

	r.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (r *Ridge) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := r.RequireFitted("Ridge", "Predict"); err != nil {
		return nil, err
	}
	return predictLinear("Ridge.Predict", X, r.Weights, r.Intercept, r.NFeatures)
}

// Score はモデルの決定係数（R²）を計算する
func (r *Ridge) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := r.Predict(X)
	if err != nil {
		return 0, err
	}
	return r2(y, yPred)
}

// ExportWeights は学習済みの係数を ModelWeights として返す
func (r *Ridge) ExportWeights() (*model.ModelWeights, error) {
	if err := r.RequireFitted("Ridge", "ExportWeights"); err != nil {
		return nil, err
	}
	return &model.ModelWeights{
		ModelType:    "Ridge",
		Version:      model.WeightsVersion,
		Coefficients: append([]float64(nil), r.Weights.RawVector().Data...),
		Intercept:    r.Intercept,
		Hyperparameters: map[string]interface{}{
			"alpha":         r.Alpha,
			"fit_intercept": r.FitIntercept,
		},
		IsFitted: true,
	}, nil
}

// ImportWeights は ModelWeights から学習済み状態を復元する
func (r *Ridge) ImportWeights(w *model.ModelWeights) error {
	if err := importCheck("Ridge", w); err != nil {
		return err
	}
	if alpha, ok := w.Hyperparameters["alpha"].(float64); ok {
		r.Alpha = alpha
	}
	if fit, ok := w.Hyperparameters["fit_intercept"].(bool); ok {
		r.FitIntercept = fit
	}
	r.NFeatures = len(w.Coefficients)
	r.Weights = mat.NewVecDense(r.NFeatures, append([]float64(nil), w.Coefficients...))
	r.Intercept = w.Intercept
	r.SetFitted()
	return nil
}
