package model

import (
	"encoding/json"
	"math"

	"github.com/YuminosukeSato/automl/pkg/errors"
)

// WeightsVersion は ModelWeights の形式のバージョン
const WeightsVersion = "1"

// ModelWeights はモデルの重みを表す構造体（シリアライゼーション用）
//
// 線形回帰・Ridge は Coefficients と Intercept を使う。
// ロジスティック回帰は Classes と、クラスごとの ClassCoefficients / ClassIntercepts を使う
// （2クラスの場合は正例クラスの1行のみ）。
// ダミー推定器は Coefficients を空にして Intercept（平均値）または Classes[0]（最頻値）を持つ。
type ModelWeights struct {
	// ModelType はモデルの種類（LinearRegression, Ridge, LogisticRegression 等）
	ModelType string `json:"model_type"`

	// Version はモデルのバージョン（互換性チェック用）
	Version string `json:"version"`

	// Coefficients は重み係数
	Coefficients []float64 `json:"coefficients,omitempty"`

	// Intercept は切片
	Intercept float64 `json:"intercept"`

	// Classes は学習時に見たクラスラベル
	Classes []int `json:"classes,omitempty"`

	// ClassCoefficients はクラスごとの重み係数
	ClassCoefficients [][]float64 `json:"class_coefficients,omitempty"`

	// ClassIntercepts はクラスごとの切片
	ClassIntercepts []float64 `json:"class_intercepts,omitempty"`

	// Features は特徴量の名前（オプション）
	Features []string `json:"features,omitempty"`

	// Hyperparameters はモデルのハイパーパラメータ
	Hyperparameters map[string]interface{} `json:"hyperparameters,omitempty"`

	// IsFitted はモデルが学習済みかどうか
	IsFitted bool `json:"is_fitted"`
}

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(mw, "", "  ")
}

// FromJSON はJSON形式からModelWeightsをデシリアライズ
func (mw *ModelWeights) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, mw); err != nil {
		return errors.Wrap(err, "failed to decode model weights")
	}
	return nil
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return errors.NewValidationError("model_type", "is required", mw.ModelType)
	}
	if mw.Version != WeightsVersion {
		return errors.NewValidationError("version", "unsupported weights version", mw.Version)
	}
	if !mw.IsFitted {
		return errors.NewValidationError("is_fitted", "weights of an unfitted model cannot be used", mw.IsFitted)
	}
	if len(mw.ClassCoefficients) != len(mw.ClassIntercepts) {
		return errors.NewValidationError("class_intercepts", "must have one intercept per coefficient row", len(mw.ClassIntercepts))
	}
	for i, row := range mw.ClassCoefficients {
		if len(mw.Coefficients) > 0 && len(row) != len(mw.Coefficients) {
			return errors.NewValidationError("class_coefficients", "rows must share the coefficient width", i)
		}
		if len(mw.ClassCoefficients) > 0 && len(row) != len(mw.ClassCoefficients[0]) {
			return errors.NewValidationError("class_coefficients", "rows must share the coefficient width", i)
		}
	}

	values := append([]float64{mw.Intercept}, mw.Coefficients...)
	values = append(values, mw.ClassIntercepts...)
	for _, row := range mw.ClassCoefficients {
		values = append(values, row...)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewValidationError("coefficients", "must be finite", v)
		}
	}
	return nil
}

// NumFeatures は重みが想定する特徴量の数を返す
func (mw *ModelWeights) NumFeatures() int {
	if len(mw.Coefficients) > 0 {
		return len(mw.Coefficients)
	}
	if len(mw.ClassCoefficients) > 0 {
		return len(mw.ClassCoefficients[0])
	}
	return len(mw.Features)
}

// Clone はModelWeightsのディープコピーを作成
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := &ModelWeights{
		ModelType:       mw.ModelType,
		Version:         mw.Version,
		Intercept:       mw.Intercept,
		IsFitted:        mw.IsFitted,
		Coefficients:    append([]float64(nil), mw.Coefficients...),
		Classes:         append([]int(nil), mw.Classes...),
		ClassIntercepts: append([]float64(nil), mw.ClassIntercepts...),
		Features:        append([]string(nil), mw.Features...),
	}

	if mw.ClassCoefficients != nil {
		clone.ClassCoefficients = make([][]float64, len(mw.ClassCoefficients))
		for i, row := range mw.ClassCoefficients {
			clone.ClassCoefficients[i] = append([]float64(nil), row...)
		}
	}

	if mw.Hyperparameters != nil {
		clone.Hyperparameters = make(map[string]interface{}, len(mw.Hyperparameters))
		for k, v := range mw.Hyperparameters {
			clone.Hyperparameters[k] = v
		}
	}

	return clone
}
