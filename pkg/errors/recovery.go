package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/cockroachdb/errors"
)

// PanicError はrecoverされたpanicから作成されたエラーです。
// 元のpanic値とスタックトレースを保持します。
type PanicError struct {
	// PanicValue はpanic()に渡された値
	PanicValue interface{}

	// StackTrace はpanic発生時のスタックトレース
	StackTrace string

	// Operation はpanicを回収した処理名
	Operation string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// String はスタックトレースを含む詳細情報を返します。
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s",
		e.Operation, e.PanicValue, e.StackTrace)
}

// NewPanicError は新しいPanicErrorを作成します。
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover はdeferで使用し、panicをエラーに変換します。
// 関数の名前付き戻り値 err へのポインタを渡してください。
//
//	func solveOne() (err error) {
//	    defer errors.Recover(&err, "mixture.solve")
//	    ...
//	}
//
// 既にエラーが設定されている場合は、panic情報でラップします。
func Recover(err *error, operation string) {
	if r := recover(); r != nil {
		panicErr := NewPanicError(operation, r)
		if *err != nil {
			*err = errors.Wrapf(*err, "panic in %s: %v", operation, r)
			return
		}
		*err = panicErr
	}
}

// SafeExecute は fn を実行し、panicをエラーに変換して返します。
// 並列ワーカーのように、panicがプロセス全体を停止させてはならない箇所で使用します。
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
