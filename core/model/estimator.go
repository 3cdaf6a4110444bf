// Package model holds the fitted-state bookkeeping and the small interfaces
// shared by silva's estimators.
package model

import (
	"io"

	"gonum.org/v1/gonum/mat"
)

// EstimatorState はモデルの学習状態を表す
type EstimatorState int

const (
	// NotFitted はモデルが未学習の状態
	NotFitted EstimatorState = iota
	// Fitted はモデルが学習済みの状態
	Fitted
)

// BaseEstimator は全てのモデルの基底となる構造体
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted はモデルが学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted はモデルを学習済み状態に設定する
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset はモデルを初期状態にリセットする
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict returns transformed predictions (probabilities for classifiers).
	Predict(X mat.Matrix) (*mat.Dense, error)
}

// MarginPredictor is implemented by models that expose their untransformed output.
type MarginPredictor interface {
	Predictor

	// PredictRaw returns the output margin, before the link function.
	PredictRaw(X mat.Matrix) (*mat.Dense, error)

	// NumOutputs is the width of a prediction row.
	NumOutputs() int
}

// Persistable is the interface for models that can be saved to a document.
type Persistable interface {
	// Save writes the model to a file, replacing it if it exists.
	Save(path string) error

	// SaveJSON writes the model document to w.
	SaveJSON(w io.Writer) error
}
