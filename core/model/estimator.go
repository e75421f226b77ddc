package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator はモデル探索の候補として扱える学習器
type Estimator interface {
	Fitter
	Predictor
}

// WeightExporter は学習済みの重みを ModelWeights として書き出せるモデル
type WeightExporter interface {
	ExportWeights() (*ModelWeights, error)
}

// WeightImporter は ModelWeights から学習済み状態を復元できるモデル
type WeightImporter interface {
	ImportWeights(weights *ModelWeights) error
}

// PersistableEstimator は成果物として保存・復元できる学習器
type PersistableEstimator interface {
	Estimator
	WeightExporter
	WeightImporter
}

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}
