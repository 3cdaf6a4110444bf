package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// PanicError は Recover が捕捉したパニックです。
type PanicError struct {
	Operation  string
	PanicValue interface{}
	// Stack is the goroutine stack at recovery time.
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("silva: panic in %s: %v", e.Operation, e.PanicValue)
}

func (e *PanicError) Code() string { return CodePanic }

func (e *PanicError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("op", e.Operation).Str("stack", e.Stack)
}

// Recover converts a panic in the calling function into an error. Defer it
// with the address of the named error result:
//
//	func Train(...) (booster *Booster, err error) {
//	    defer errors.Recover(&err, "xgboost.Train")
//
// When the function had already set err, the panic is reported together
// with it and err stays in the chain.
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	if *err != nil {
		*err = Wrapf(*err, "panic in %s: %v", operation, r)
		return
	}
	*err = &PanicError{Operation: operation, PanicValue: r, Stack: string(debug.Stack())}
}
