// Package errors はk-NNエンジン全体のエラーハンドリングと警告システムを提供します。
// 分類器が返すエラーは全て型付きで、cockroachdb/errors によるスタックトレースを持ちます。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("knn-warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler は警告ハンドラを設定します。
// 投票の同点などの警告をどう扱うかを呼び出し側で制御できます。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nil を渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// TieWarning は多数決で最多票のラベルが複数あった場合の警告です。
// 勝者は近い順に走査して最初に現れたラベルで決まります。
type TieWarning struct {
	K          int
	Votes      int
	Candidates []string
	Winner     string
}

func (w *TieWarning) Error() string {
	return fmt.Sprintf("vote tie among %v with %d votes each (k=%d); picked %q as first encountered", w.Candidates, w.Votes, w.K, w.Winner)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *TieWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Int("k", w.K).
		Int("votes", w.Votes).
		Strs("candidates", w.Candidates).
		Str("winner", w.Winner).
		Str("type", "TieWarning")
}

// NewTieWarning は新しいTieWarningを作成します。
func NewTieWarning(k, votes int, candidates []string, winner string) *TieWarning {
	return &TieWarning{K: k, Votes: votes, Candidates: candidates, Winner: winner}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// MalformedRecordError はロード中に不正な行が見つかった場合のエラーです。
// ロード全体が失敗し、どの行も取り込まれません。
type MalformedRecordError struct {
	Row    int    // 0始まりの行番号
	Field  string // 問題のあるフィールド名
	Value  string // 読み取った値
	Reason string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("knn: malformed record at row %d: field %q: %s (got: %q)", e.Row, e.Field, e.Reason, e.Value)
	}
	return fmt.Sprintf("knn: malformed record at row %d: field %q: %s", e.Row, e.Field, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *MalformedRecordError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("row", e.Row).
		Str("field", e.Field).
		Str("value", e.Value).
		Str("reason", e.Reason).
		Str("type", "MalformedRecordError")
}

// NewMalformedRecordError は新しいMalformedRecordErrorを作成し、スタックトレースを付与します。
func NewMalformedRecordError(row int, field, value, reason string, cause error) error {
	err := &MalformedRecordError{Row: row, Field: field, Value: value, Reason: reason, Err: cause}
	return errors.WithStack(err)
}

// InvalidHyperparameterError はkが訓練データの範囲外の場合のエラーです。
type InvalidHyperparameterError struct {
	K            int
	TrainingSize int
}

func (e *InvalidHyperparameterError) Error() string {
	return fmt.Sprintf("knn: invalid hyperparameter: k=%d must be in [1, %d]", e.K, e.TrainingSize)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InvalidHyperparameterError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("k", e.K).
		Int("training_size", e.TrainingSize).
		Str("type", "InvalidHyperparameterError")
}

// NewInvalidHyperparameterError は新しいInvalidHyperparameterErrorを作成し、スタックトレースを付与します。
func NewInvalidHyperparameterError(k, trainingSize int) error {
	err := &InvalidHyperparameterError{K: k, TrainingSize: trainingSize}
	return errors.WithStack(err)
}

// ConfigurationError はハイパーパラメータの参照先が利用できない場合のエラーです。
// 訓練データが回収・解放された、未ロード、別の訓練データに束縛されている、などが該当します。
type ConfigurationError struct {
	Op     string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("knn: %s: configuration error: %s", e.Op, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ConfigurationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("reason", e.Reason).
		Str("type", "ConfigurationError")
}

// NewConfigurationError は新しいConfigurationErrorを作成し、スタックトレースを付与します。
func NewConfigurationError(op, reason string) error {
	err := &ConfigurationError{Op: op, Reason: reason}
	return errors.WithStack(err)
}

// EmptyTestSetError はテスト用データが空で品質を計算できない場合のエラーです。
type EmptyTestSetError struct {
	Op string
}

func (e *EmptyTestSetError) Error() string {
	return fmt.Sprintf("knn: %s: testing partition is empty, quality is undefined", e.Op)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *EmptyTestSetError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("type", "EmptyTestSetError")
}

// NewEmptyTestSetError は新しいEmptyTestSetErrorを作成し、スタックトレースを付与します。
func NewEmptyTestSetError(op string) error {
	err := &EmptyTestSetError{Op: op}
	return errors.WithStack(err)
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("knn: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// NumericalInstabilityError は数値にNaNが含まれていた場合のエラーです。
type NumericalInstabilityError struct {
	Operation string
	Values    []float64
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("knn: numerical instability detected in %s. Values: [%s]", e.Operation, valStr)
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64) error {
	err := &NumericalInstabilityError{Operation: operation, Values: values}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")
)
