// Package apperr defines the error taxonomy shared by the HTTP routes, the
// realtime relay and the upstream AI client.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure independently of the transport it surfaces on.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindUnavailable  Kind = "unavailable"
	KindTimeout      Kind = "timeout"
	KindUpstream     Kind = "upstream"
	KindNotFound     Kind = "not_found"
	KindInternal     Kind = "internal"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Error is the concrete error type carried across layers.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Fields  []FieldError
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Validation reports malformed or missing input.
func Validation(fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: "Validation Error", Fields: fields}
}

// Unauthorized reports a bad or expired credential.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: message}
}

// Unavailable reports that the upstream service could not be reached.
func Unavailable(message string, cause error) *Error {
	return &Error{Kind: KindUnavailable, Status: http.StatusServiceUnavailable, Message: message, Cause: cause}
}

// Timeout reports that the upstream service exceeded its deadline.
func Timeout(message string, cause error) *Error {
	return &Error{Kind: KindTimeout, Status: http.StatusRequestTimeout, Message: message, Cause: cause}
}

// Upstream reports a reachable upstream answering with an error status.
func Upstream(status int, message string) *Error {
	if status < 400 || status > 599 {
		status = http.StatusBadGateway
	}
	return &Error{Kind: KindUpstream, Status: status, Message: message}
}

// NotFound reports an unknown resource id.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: message}
}

// Internal wraps anything else.
func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: message, Cause: cause}
}

// From returns err as an *Error, classifying foreign errors. A bare context
// deadline becomes a Timeout; everything else is Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout("operation timed out", err)
	}

	return Internal("Internal Server Error", err)
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	return From(err).Kind
}

// StatusOf returns the HTTP-equivalent status for err.
func StatusOf(err error) int {
	appErr := From(err)
	if appErr.Status == 0 {
		return http.StatusInternalServerError
	}
	return appErr.Status
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
