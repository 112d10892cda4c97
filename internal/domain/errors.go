package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can react without inspecting messages
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindConfiguration ErrorKind = "configuration"
	KindNotFound      ErrorKind = "not_found"
	KindUpstream      ErrorKind = "upstream"
	KindUnauthorized  ErrorKind = "unauthorized"
)

// Error is the tagged error returned by services and adapters
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int    // upstream HTTP status, when known
	Details    string // upstream response body, when known
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Details != "" {
		msg = msg + ": " + e.Details
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works on wrapped errors
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is checks
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrUpstream      = &Error{Kind: KindUpstream}
	ErrUnauthorized  = &Error{Kind: KindUnauthorized}
)

func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewConfigurationError(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewUpstreamError records a failed call to the ledger or shop platform
func NewUpstreamError(message string, statusCode int, details string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: message, StatusCode: statusCode, Details: details, Err: cause}
}

func NewUnauthorizedError(message string, details string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message, StatusCode: 401, Details: details}
}

// KindOf returns the kind of the first *Error in the chain, or "" for untagged errors
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsUnauthorized reports whether err signals a rejected bearer token
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}
