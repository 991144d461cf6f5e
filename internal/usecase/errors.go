package usecase

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a service failure so callers can react without
// comparing strings.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"      // malformed input, never retried
	KindVerification   ErrorKind = "verification"    // signature mismatch
	KindNotFound       ErrorKind = "not_found"       // booking or user absent
	KindStoreFailure   ErrorKind = "store_failure"   // nothing was written
	KindPartialFailure ErrorKind = "partial_failure" // some writes landed, needs reconciliation
	KindConfiguration  ErrorKind = "configuration"   // missing secret or credential
	KindDisabled       ErrorKind = "disabled"
	KindUnprocessable  ErrorKind = "unprocessable"
	KindUpstream       ErrorKind = "upstream"
)

type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf returns the client-safe message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
