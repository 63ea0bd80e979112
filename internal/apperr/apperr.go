// Package apperr is the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindStore
	KindAuth
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindStore:
		return "store"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// AuthReason narrows a KindAuth error.
type AuthReason string

const (
	AuthInvalidCredentials AuthReason = "invalid_credentials"
	AuthEmailTaken         AuthReason = "email_taken"
	AuthTokenInvalid       AuthReason = "token_invalid"
	AuthRequired           AuthReason = "auth_required"
)

// Error carries a user-facing message plus the underlying cause.
type Error struct {
	Kind    Kind
	Reason  AuthReason
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Store wraps a data-access failure. The cause's text is what callers see.
func Store(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindStore, Err: err}
}

func Auth(reason AuthReason, message string) error {
	return &Error{Kind: KindAuth, Reason: reason, Message: message}
}

func Forbidden(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ReasonOf returns the auth reason of err, or "" when err is not an auth error.
func ReasonOf(err error) AuthReason {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindAuth {
		return e.Reason
	}
	return ""
}

// Message returns the text safe to show the caller.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		if e.Err != nil {
			return e.Err.Error()
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// HTTPStatus maps err onto a status code.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		if e.Reason == AuthEmailTaken {
			return http.StatusConflict
		}
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
