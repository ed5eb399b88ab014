package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine-readable error category exposed to callers. The set is
// closed: handlers and clients switch on it, so new kinds are additions to the
// API contract.
type Kind string

const (
	KindInvalidArgument  Kind = "INVALID_ARGUMENT"
	KindDuplicateName    Kind = "DUPLICATE_NAME"
	KindNotFound         Kind = "NOT_FOUND"
	KindConflict         Kind = "CONFLICT"
	KindAlreadyProcessed Kind = "ALREADY_PROCESSED"
	KindForbidden        Kind = "FORBIDDEN"
	KindUnavailable      Kind = "UNAVAILABLE"
)

// AppError is the single error type crossing service boundaries.
type AppError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to an HTTP status for the error middleware.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindDuplicateName, KindConflict, KindAlreadyProcessed:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// KindOf returns the kind of err, or "" if err carries no AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// Is reports whether err is an AppError of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func InvalidArgument(message string) *AppError {
	return &AppError{Kind: KindInvalidArgument, Message: message}
}

func DuplicateName(name string) *AppError {
	return &AppError{Kind: KindDuplicateName, Message: fmt.Sprintf("an organization named %q already exists", name)}
}

func NotFound(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func Conflict(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func AlreadyProcessed() *AppError {
	return &AppError{Kind: KindAlreadyProcessed, Message: "request has already been processed"}
}

// Forbidden deliberately carries a fixed message: internal deny reasons are
// logged server-side and must not leak tenant topology to the caller.
func Forbidden() *AppError {
	return &AppError{Kind: KindForbidden, Message: "forbidden"}
}

func Unavailable(err error) *AppError {
	return &AppError{Kind: KindUnavailable, Message: "storage unavailable", Err: err}
}
