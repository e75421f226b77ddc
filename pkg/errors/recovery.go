package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// PanicError は候補モデルの学習中などに発生した panic を回収したエラーです。
// 一つの候補が panic してもモデル探索全体は継続し、その候補だけが失敗として記録されます。
type PanicError struct {
	Operation  string      // panic を回収した操作（例: "fit Ridge(alpha=10)"）
	PanicValue interface{} // panic() に渡された値
	StackTrace string      // 回収時点のスタックトレース
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("automl: panic in %s: %v", e.Operation, e.PanicValue)
}

// String はスタックトレースを含む詳細を返します。
func (e *PanicError) String() string {
	return fmt.Sprintf("%s\nStack trace:\n%s", e.Error(), e.StackTrace)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *PanicError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Str("panic", fmt.Sprint(e.PanicValue)).
		Str("type", "PanicError")
}

// NewPanicError は現在のスタックトレースを付与した PanicError を作成します。
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		Operation:  operation,
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
	}
}

// Recover は defer と組み合わせて panic を *err に変換します。
// *err に既にエラーが入っている場合は、そのエラーを panic の情報でラップします。
//
//	func (e *Engine) fit(est model.Estimator) (err error) {
//	    defer errors.Recover(&err, "fit")
//	    ...
//	}
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	if *err != nil {
		*err = errors.Wrapf(*err, "automl: panic in %s: %v", operation, r)
		return
	}
	*err = NewPanicError(operation, r)
}

// SafeExecute は fn を実行し、panic を PanicError として返します。
//
//	err := errors.SafeExecute("fit Ridge(alpha=1)", func() error {
//	    return est.Fit(X, y)
//	})
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
