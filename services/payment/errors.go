package payment

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindConfig            Kind = "config"
	KindValidation        Kind = "validation"
	KindUnsupportedMethod Kind = "unsupported_method"
	KindGateway           Kind = "gateway"
	KindProcessing        Kind = "processing"
)

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrConfig            = &Error{Kind: KindConfig}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrUnsupportedMethod = &Error{Kind: KindUnsupportedMethod}
	ErrGateway           = &Error{Kind: KindGateway}
	ErrProcessing        = &Error{Kind: KindProcessing}
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func validationError(format string, args ...interface{}) *Error {
	return newError(KindValidation, fmt.Sprintf(format, args...), nil)
}

func configError(message string) *Error {
	return newError(KindConfig, message, nil)
}

// KindOf returns the kind of the innermost *Error in the chain, so a
// processing error reports the condition that caused it.
func KindOf(err error) Kind {
	var kind Kind
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			break
		}
		kind = e.Kind
		err = e.Err
	}
	return kind
}
