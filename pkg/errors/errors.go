// Package errors はsilva全体で使う構造化エラーを提供します。
//
// すべてのエラーは cockroachdb/errors によってスタックトレース付きで返されます。
// 各エラー型は Code() で安定したエラーコードを返し、MarshalZerologObject で
// ログ出力用の詳細を提供します。
package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// エラーコード。ログの error.code フィールドに出力されます。
const (
	CodeInvalidInput      = "INVALID_INPUT"
	CodeInvalidValue      = "INVALID_VALUE"
	CodeDimensionMismatch = "DIMENSION_MISMATCH"
	CodeNotFitted         = "NOT_FITTED"
	CodeBadModel          = "BAD_MODEL"
	CodeNumerical         = "NUMERICAL_INSTABILITY"
	CodePanic             = "PANIC"
)

// Coded はこのパッケージの構造化エラーが実装するインターフェースです。
type Coded interface {
	error
	Code() string
}

// CodeOf はエラーチェーン中で最初に見つかった構造化エラーのコードを返します。
// 見つからない場合は空文字列です。
func CodeOf(err error) string {
	var c Coded
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// Detail はエラーチェーン中で zerolog に詳細を書き出せる最初のエラーを返します。
func Detail(err error) (zerolog.LogObjectMarshaler, bool) {
	var m zerolog.LogObjectMarshaler
	if errors.As(err, &m) {
		return m, true
	}
	return nil, false
}

// ValidationError はパラメータや設定値の検証に失敗したことを表します。
// 目的関数とクラス数の不整合もここに含まれます。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("silva: invalid %s: %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// Code implements Coded.
func (e *ValidationError) Code() string { return CodeInvalidInput }

func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value)
}

// NewValidationError は param の値 value が reason により不正であることを表すエラーを返します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError はファイル内容や入力値が処理できない場合のエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return "silva: " + e.Op + ": " + e.Message
}

func (e *ValueError) Code() string { return CodeInvalidValue }

func (e *ValueError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("op", e.Op)
}

func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// DimensionError は行数または特徴量数が期待と異なることを表します。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	// Axis は 0 が行、1 が特徴量です。
	Axis int
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("silva: %s: expected %d %s, got %d", e.Op, e.Expected, e.axisName(), e.Got)
}

func (e *DimensionError) Code() string { return CodeDimensionMismatch }

func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("op", e.Op).
		Str("axis", e.axisName()).
		Int("expected", e.Expected).
		Int("got", e.Got)
}

func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// NotFittedError は学習前のモデルで予測や保存を行ったことを表します。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("silva: %s.%s called before training", e.ModelName, e.Method)
}

func (e *NotFittedError) Code() string { return CodeNotFitted }

func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model", e.ModelName).Str("method", e.Method)
}

func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// ModelError はモデル文書が読めない、または内容が矛盾していることを表します。
// Kind は "malformed tree" のような短い分類、Err は原因です (nil 可)。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return "silva: " + e.Op + ": " + e.Kind
	}
	return "silva: " + e.Op + ": " + e.Kind + ": " + e.Err.Error()
}

func (e *ModelError) Unwrap() error { return e.Err }

func (e *ModelError) Code() string { return CodeBadModel }

func (e *ModelError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("op", e.Op).Str("kind", e.Kind)
}

func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// NumericalInstabilityError は勾配やマージンに NaN/Inf が現れたことを表します。
// Values には最初に見つかった不正値が最大10個入ります。
type NumericalInstabilityError struct {
	Operation string
	Values    []float64
	Iteration int
}

func (e *NumericalInstabilityError) Error() string {
	shown := e.Values
	if len(shown) > 5 {
		shown = shown[:5]
	}
	parts := make([]string, len(shown))
	for i, v := range shown {
		parts[i] = fmt.Sprintf("%.6g", v)
	}
	if len(e.Values) > len(shown) {
		parts = append(parts, "...")
	}
	return fmt.Sprintf("silva: %s produced non-finite values at iteration %d: [%s]",
		e.Operation, e.Iteration, strings.Join(parts, ", "))
}

func (e *NumericalInstabilityError) Code() string { return CodeNumerical }

func (e *NumericalInstabilityError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("op", e.Operation).
		Int("iteration", e.Iteration).
		Floats64("values", e.Values)
}

func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	return errors.WithStack(&NumericalInstabilityError{Operation: operation, Values: values, Iteration: iteration})
}

// ErrEmptyData は行のない入力に対して返されます。
var ErrEmptyData = errors.New("empty data")

// 以下は cockroachdb/errors の薄いラッパーです。呼び出し側はこのパッケージだけを import します。

func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }

func Wrap(err error, message string) error { return errors.Wrap(err, message) }

func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

func New(message string) error { return errors.New(message) }

func Newf(format string, args ...interface{}) error { return errors.Newf(format, args...) }

// StackTrace returns the stack recorded by the outermost wrapper of err, or
// "" for errors built without this package.
func StackTrace(err error) string {
	if details := errors.GetSafeDetails(err).SafeDetails; len(details) > 0 {
		return details[0]
	}
	return ""
}
