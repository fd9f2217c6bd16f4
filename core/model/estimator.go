package model

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// ContextFitter はキャンセル可能な学習を提供するモデルのインターフェース
type ContextFitter interface {
	// FitContext は ctx がキャンセルされると学習を中断する
	FitContext(ctx context.Context, X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer はスコアを計算できるモデルのインターフェース
type Scorer interface {
	// Score は予測の決定係数 R^2 を返す
	Score(X, y mat.Matrix) (float64, error)
}

// FeatureImportancer は特徴量重要度を返すモデルのインターフェース
type FeatureImportancer interface {
	// FeatureImportances は "gain" または "split" の正規化された重要度を返す
	FeatureImportances(importanceType string) ([]float64, error)
}

// Regressor は回帰モデルのインターフェースをまとめたもの
type Regressor interface {
	Fitter
	ContextFitter
	Predictor
	Scorer
}
