// ABOUTME: Typed capability failures with stable machine-readable codes
// ABOUTME: Failures are values; nothing in this package panics across its boundary

package capability

import (
	"errors"
	"fmt"
)

// Code identifies a class of capability failure.
type Code string

// Failure codes
const (
	CodeInvalidArgument      Code = "invalid_argument"
	CodeUserNotFound         Code = "user_not_found"
	CodeSubscriptionNotFound Code = "subscription_not_found"
	CodeReservationNotFound  Code = "reservation_not_found"
	CodeExperienceNotFound   Code = "experience_not_found"
	CodeClassFull            Code = "class_full"
	CodeAlreadyBooked        Code = "already_booked"
	CodeUnavailable          Code = "unavailable"
	CodeUnknownTool          Code = "unknown_tool"
	CodeInternal             Code = "internal"
)

// Failure is the typed error every capability returns.
type Failure struct {
	Code    Code
	Message string
	Err     error // underlying cause, never shown to the model
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Code, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// Is matches another *Failure by code, so errors.Is(err, &Failure{Code: CodeClassFull}) works.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	return ok && t.Code == f.Code
}

// Fail builds a Failure without an underlying cause.
func Fail(code Code, format string, args ...any) *Failure {
	return &Failure{Code: code, Message: fmt.Sprintf(format, args...)}
}

// unavailable wraps an infrastructure error.
func unavailable(op string, err error) *Failure {
	return &Failure{Code: CodeUnavailable, Message: op + " failed", Err: err}
}

// CodeOf extracts the failure code from err. Errors that are not a *Failure
// report CodeUnavailable.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Code
	}
	return CodeUnavailable
}
