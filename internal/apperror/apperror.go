// Package apperror defines the application's error taxonomy.
//
// Services return these errors (usually wrapped with fmt.Errorf and %w);
// the HTTP layer maps the sentinel in the chain to a status code. The
// Message on an AppError is always safe to show to a client.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("upstream service error")
	ErrInternal     = errors.New("internal error")
	ErrTimeout      = errors.New("timeout")
)

type AppError struct {
	Err     error  // sentinel
	Message string // client-safe message
	Field   string // optional: request field that failed validation
	Detail  string // optional: raw upstream detail
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// NotFoundMessage is NotFound with a caller-chosen message, for resources
// that are not addressed by an id (e.g. a GitHub repository).
func NotFoundMessage(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Unauthorized returns an AppError for requests without a resolved identity
// or with bad credentials. HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Upstream reports a non-success answer from a third-party service.
// The message names the service and carries its detail, best effort.
func Upstream(service, detail string) *AppError {
	msg := fmt.Sprintf("%s request failed", service)
	if detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, detail)
	}
	return &AppError{
		Err:     ErrUpstream,
		Message: msg,
	}
}

// UpstreamFailure is Upstream with a caller-chosen message. The raw
// upstream answer travels separately in Detail and is sent to the client
// as "details".
func UpstreamFailure(message, detail string) *AppError {
	return &AppError{
		Err:     ErrUpstream,
		Message: message,
		Detail:  detail,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:     ErrInternal,
		Message: message,
	}
}

func Timeout(message string) *AppError {
	return &AppError{
		Err:     ErrTimeout,
		Message: message,
	}
}
