package api

import (
	"errors"
	"fmt"

	"github.com/skypoint/socialfeed/internal/apperr"
)

// Standard JSON-RPC error codes
const (
	ErrParseError     = -32700
	ErrInvalidRequest = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternalError  = -32603
)

// Server defined error codes
const (
	ErrServerError = -32000
	ErrForbidden   = -32003
	ErrNotFound    = -32004
	ErrConflict    = -32009
)

// Error represents an API error
type Error struct {
	Code    int
	Message string
}

// NewError creates a new API error
func NewError(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

// FromError maps a method error to the code and message sent to the client.
// Internal failures get a generic message.
func FromError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return NewError(ErrServerError, "Server error")
	}

	switch appErr.Kind {
	case apperr.KindInvalidArgument:
		return NewError(ErrInvalidParams, appErr.Message)
	case apperr.KindNotFound:
		return NewError(ErrNotFound, appErr.Message)
	case apperr.KindForbidden:
		return NewError(ErrForbidden, appErr.Message)
	case apperr.KindConflict:
		return NewError(ErrConflict, appErr.Message)
	default:
		return NewError(ErrServerError, "Server error")
	}
}
