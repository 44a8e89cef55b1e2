package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(err error) *Error {
	return New(http.StatusUnprocessableEntity, "validation_failed", err)
}

func NotFound(err error) *Error {
	return New(http.StatusNotFound, "not_found", err)
}

func Forbidden(err error) *Error {
	return New(http.StatusForbidden, "forbidden", err)
}

// PaymentRequired signals the message gate: the pro must purchase the lead
// before sending further messages on this thread.
func PaymentRequired(err error) *Error {
	return New(http.StatusPaymentRequired, "payment_required", err)
}

func InvalidTransition(err error) *Error {
	return New(http.StatusConflict, "invalid_transition", err)
}

func Conflict(err error) *Error {
	return New(http.StatusConflict, "conflict", err)
}

func Internal(err error) *Error {
	return New(http.StatusInternalServerError, "internal", err)
}

// StatusOf extracts the HTTP status from an error chain, defaulting to 500.
func StatusOf(err error) (int, string) {
	var ae *Error
	if errors.As(err, &ae) {
		status := ae.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return status, ae.Code
	}
	return http.StatusInternalServerError, "internal"
}
