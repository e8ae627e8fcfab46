package model

import "sync/atomic"

// EstimatorState はモデルの状態を表す
type EstimatorState int32

const (
	// NotFitted は未学習（訓練データなら未ロード、ハイパーパラメータなら未評価）の状態
	NotFitted EstimatorState = iota
	// Fitted は学習済み（ロード済み、評価済み）の状態
	Fitted
)

// String は状態名を返す
func (s EstimatorState) String() string {
	if s == Fitted {
		return "fitted"
	}
	return "not_fitted"
}

// BaseEstimator は状態遷移を持つ全ての型の基底となる構造体
// 複数のゴルーチンから参照されるため状態はアトミックに扱う
type BaseEstimator struct {
	state atomic.Int32
}

// IsFitted は学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return EstimatorState(e.state.Load()) == Fitted
}

// SetFitted は学習済み状態に設定する
func (e *BaseEstimator) SetFitted() {
	e.state.Store(int32(Fitted))
}

// Reset は初期状態に戻す
func (e *BaseEstimator) Reset() {
	e.state.Store(int32(NotFitted))
}

// State は現在の状態を返す
func (e *BaseEstimator) State() EstimatorState {
	return EstimatorState(e.state.Load())
}
