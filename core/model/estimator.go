package model

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// Fitter は教師なしで学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルをデータ X で学習させる
	Fit(X mat.Matrix) error
}

// ContextFitter はキャンセル可能な学習を提供するモデルのインターフェース
type ContextFitter interface {
	Fitter
	// FitContext は ctx が終了した時点で学習を中断する
	FitContext(ctx context.Context, X mat.Matrix) error
}

// Predictor はクラスタ割り当てを予測するモデルのインターフェース
type Predictor interface {
	// Predict は各行に最も確からしい成分番号を返す
	Predict(X mat.Matrix) ([]int, error)
}

// ProbaPredictor は所属確率を予測するモデルのインターフェース
type ProbaPredictor interface {
	// PredictProba は (n_samples, n_components) の確率行列を返す
	PredictProba(X mat.Matrix) (*mat.Dense, error)
}

// Clusterer は学習と割り当て予測を組み合わせたインターフェース
type Clusterer interface {
	ContextFitter
	Predictor
	ProbaPredictor
	IsFitted() bool
}
