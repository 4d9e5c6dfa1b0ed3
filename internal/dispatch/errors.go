// ABOUTME: Typed turn failures reported by the dispatch engine
// ABOUTME: Each TurnError carries a stable code and matches its sentinel via errors.Is

package dispatch

import (
	"errors"
	"fmt"
)

// Sentinel errors for turn failures.
var (
	ErrInvalidRequest     = errors.New("invalid turn request")
	ErrClassification     = errors.New("classification failed")
	ErrUnknownDestination = errors.New("no handler registered for destination")
	ErrPersistence        = errors.New("checkpoint persistence failed")
	ErrCancelled          = errors.New("turn cancelled before commit")
)

// Code is a stable, client-facing failure code.
type Code string

// Failure codes.
const (
	CodeInvalidRequest     Code = "invalid_request"
	CodeClassification     Code = "classification_failed"
	CodeUnknownDestination Code = "unknown_destination"
	CodePersistence        Code = "persistence_failed"
	CodeCancelled          Code = "cancelled"
	CodeInternal           Code = "internal"
)

var sentinels = map[Code]error{
	CodeInvalidRequest:     ErrInvalidRequest,
	CodeClassification:     ErrClassification,
	CodeUnknownDestination: ErrUnknownDestination,
	CodePersistence:        ErrPersistence,
	CodeCancelled:          ErrCancelled,
}

// TurnError describes why a turn failed. No state was written for the turn.
type TurnError struct {
	Code     Code
	Op       string
	ThreadID string
	Err      error
}

func (e *TurnError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("turn %s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("turn %s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *TurnError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's code.
func (e *TurnError) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

func turnError(code Code, op, threadID string, err error) *TurnError {
	return &TurnError{Code: code, Op: op, ThreadID: threadID, Err: err}
}

// CodeOf returns the failure code for err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var te *TurnError
	if errors.As(err, &te) {
		return te.Code
	}
	return CodeInternal
}
