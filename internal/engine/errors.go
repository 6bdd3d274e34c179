package engine

import (
	"errors"
	"fmt"
)

// Code identifies an error category on the wire. The websocket layer
// sends codes verbatim in ERROR events; the HTTP layer maps them to
// status codes.
type Code string

const (
	CodeNotYourTurn    Code = "NOT_YOUR_TURN"
	CodeInvalidAction  Code = "INVALID_ACTION"
	CodeGameNotFound   Code = "GAME_NOT_FOUND"
	CodeSeatTaken      Code = "SEAT_TAKEN"
	CodeNotSeated      Code = "NOT_SEATED"
	CodeAuthentication Code = "AUTHENTICATION_REQUIRED"
	CodeInternal       Code = "INTERNAL"
)

// Error is a typed rule or routing failure carrying a wire code
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches errors by code so callers can use errors.Is with the
// sentinel values below
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// Sentinels for errors.Is checks
var (
	ErrNotYourTurn   = &Error{Code: CodeNotYourTurn, Message: "not your turn"}
	ErrInvalidAction = &Error{Code: CodeInvalidAction, Message: "invalid action"}
	ErrGameNotFound  = &Error{Code: CodeGameNotFound, Message: "game not found"}
	ErrSeatTaken     = &Error{Code: CodeSeatTaken, Message: "seat taken"}
)

// NotYourTurn builds a NOT_YOUR_TURN error
func NotYourTurn(format string, args ...any) *Error {
	return &Error{Code: CodeNotYourTurn, Message: fmt.Sprintf(format, args...)}
}

// InvalidAction builds an INVALID_ACTION error
func InvalidAction(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidAction, Message: fmt.Sprintf(format, args...)}
}

// NotSeated builds a NOT_SEATED error
func NotSeated(format string, args ...any) *Error {
	return &Error{Code: CodeNotSeated, Message: fmt.Sprintf(format, args...)}
}

// Internal builds an INTERNAL error for invariant violations
func Internal(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the wire code from an error, defaulting to INTERNAL
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
