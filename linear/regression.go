package linear

import (
	"github.com/YuminosukeSato/automl/core/model"
	"github.com/YuminosukeSato/automl/core/parallel"
	"github.com/YuminosukeSato/automl/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// 並列処理の閾値（この値以下の行数では逐次処理を使用）
const parallelThreshold = 1000

// LinearRegression は線形回帰モデル
type LinearRegression struct {
	model.BaseEstimator // BaseEstimatorを埋め込み
	Weights   *mat.VecDense // 重み（係数）
	Intercept float64       // 切片
	NFeatures int           // 特徴量の数
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{}
}

// Fit はモデルを訓練データで学習させる
// 正規方程式 w = (X^T * X)^(-1) * X^T * y を使用
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	r, c, err := checkXY("LinearRegression.Fit", X, y)
	if err != nil {
		return err
	}
	lr.NFeatures = c

	// 切片項のために X に 1 の列を追加
	// X_with_intercept = [1, X]
	XWithIntercept := withInterceptColumn(X)

	var XT mat.Dense
	XT.CloneFrom(XWithIntercept.T())

	var XTX mat.Dense
	XTX.Mul(&XT, XWithIntercept)

	// 逆行列を計算
	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
	}

	var XTy mat.VecDense
	XTy.MulVec(&XT, columnVector(y, r))

	weights := mat.NewVecDense(c+1, nil)
	weights.MulVec(&XTXInv, &XTy)

	if err := errors.CheckNumericalStability("LinearRegression.Fit", weights.RawVector().Data, 0); err != nil {
		return err
	}

	// 切片と重みを分離
	lr.Intercept = weights.AtVec(0)
	lr.Weights = mat.NewVecDense(c, nil)
	for i := 0; i < c; i++ {
		lr.Weights.SetVec(i, weights.AtVec(i+1))
	}

	lr.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.RequireFitted("LinearRegression", "Predict"); err != nil {
		return nil, err
	}
	return predictLinear("LinearRegression.Predict", X, lr.Weights, lr.Intercept, lr.NFeatures)
}

// GetWeights は学習された重み（係数）を返す
func (lr *LinearRegression) GetWeights() []float64 {
	if lr.Weights == nil {
		return nil
	}
	return append([]float64(nil), lr.Weights.RawVector().Data...)
}

// GetIntercept は学習された切片を返す
func (lr *LinearRegression) GetIntercept() float64 {
	if !lr.IsFitted() {
		return 0
	}
	return lr.Intercept
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return r2(y, yPred)
}

// ExportWeights は学習済みの係数を ModelWeights として返す
func (lr *LinearRegression) ExportWeights() (*model.ModelWeights, error) {
	if err := lr.RequireFitted("LinearRegression", "ExportWeights"); err != nil {
		return nil, err
	}
	return &model.ModelWeights{
		ModelType:    "LinearRegression",
		Version:      model.WeightsVersion,
		Coefficients: lr.GetWeights(),
		Intercept:    lr.Intercept,
		IsFitted:     true,
	}, nil
}

// ImportWeights は ModelWeights から学習済み状態を復元する
func (lr *LinearRegression) ImportWeights(w *model.ModelWeights) error {
	if err := importCheck("LinearRegression", w); err != nil {
		return err
	}
	lr.NFeatures = len(w.Coefficients)
	lr.Weights = mat.NewVecDense(lr.NFeatures, append([]float64(nil), w.Coefficients...))
	lr.Intercept = w.Intercept
	lr.SetFitted()
	return nil
}

func checkXY(op string, X, y mat.Matrix) (int, int, error) {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return 0, 0, errors.NewDimensionError(op, r, ry, 0)
	}
	if cy != 1 {
		return 0, 0, errors.NewValueError(op, "y must be a column vector")
	}
	return r, c, nil
}

func withInterceptColumn(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	out := mat.NewDense(r, c+1, nil)

	// ParallelizeWithThresholdを使用して、データサイズに応じて並列化
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			out.Set(i, 0, 1.0) // 切片項
			for j := 0; j < c; j++ {
				out.Set(i, j+1, X.At(i, j))
			}
		}
	})
	return out
}

func columnVector(y mat.Matrix, r int) *mat.VecDense {
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, y.At(i, 0))
	}
	return v
}

// predictLinear computes X * weights + intercept.
func predictLinear(op string, X mat.Matrix, weights *mat.VecDense, intercept float64, nFeatures int) (mat.Matrix, error) {
	r, c := X.Dims()
	if c != nFeatures {
		return nil, errors.NewDimensionError(op, nFeatures, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			pred := intercept
			for j := 0; j < c; j++ {
				pred += X.At(i, j) * weights.AtVec(j)
			}
			predictions.Set(i, 0, pred)
		}
	})
	return predictions, nil
}

func r2(y, yPred mat.Matrix) (float64, error) {
	r, _ := y.Dims()

	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(r)

	// 全変動 (TSS) と残差変動 (RSS) を計算
	var tss, rss float64
	for i := 0; i < r; i++ {
		yTrue := y.At(i, 0)
		d := yTrue - yPred.At(i, 0)
		tss += (yTrue - yMean) * (yTrue - yMean)
		rss += d * d
	}

	// R² = 1 - RSS/TSS
	if tss == 0 {
		return 0, errors.NewValueError("Score", "total sum of squares is zero")
	}
	return 1 - rss/tss, nil
}

func importCheck(modelType string, w *model.ModelWeights) error {
	if w == nil {
		return errors.NewValueError(modelType+".ImportWeights", "weights are nil")
	}
	if err := w.Validate(); err != nil {
		return err
	}
	if w.ModelType != modelType {
		return errors.NewValueError(modelType+".ImportWeights", "weights belong to "+w.ModelType)
	}
	if len(w.Coefficients) == 0 {
		return errors.NewValueError(modelType+".ImportWeights", "no coefficients")
	}
	return nil
}
