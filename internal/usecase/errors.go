package usecase

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrorMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrorRateLimited       ErrorCode = "RATE_LIMITED"
	ErrorUpstream          ErrorCode = "UPSTREAM_ERROR"
	ErrorInternal          ErrorCode = "INTERNAL_ERROR"
)

// ErrMalformedResponse marks a model reply that leaves a required script
// section empty after structuring.
var ErrMalformedResponse = errors.New("malformed response")

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// errorCode returns the taxonomy code of err, INTERNAL_ERROR when err is not
// a *Error.
func errorCode(err error) ErrorCode {
	var ucErr *Error
	if errors.As(err, &ucErr) {
		return ucErr.Code
	}
	return ErrorInternal
}
