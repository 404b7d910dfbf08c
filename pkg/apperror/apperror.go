package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError so callers can branch with errors.Is.
type Kind string

const (
	KindConfig          Kind = "config"
	KindUnsupportedType Kind = "unsupported_type"
	KindNotImplemented  Kind = "not_implemented"
	KindNotFound        Kind = "not_found"
	KindBackend         Kind = "backend"
	KindValidation      Kind = "validation"
)

type AppError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AppError of the same kind. Sentinels below
// carry no message, so errors.Is(err, ErrNotFound) matches any not-found error.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// HTTPStatus maps the error kind onto a response code.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindConfig, KindUnsupportedType, KindNotImplemented, KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindBackend:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, cause error) *AppError {
	return &AppError{Kind: kind, Message: message, Cause: cause}
}

var (
	ErrConfig          = &AppError{Kind: KindConfig}
	ErrUnsupportedType = &AppError{Kind: KindUnsupportedType}
	ErrNotImplemented  = &AppError{Kind: KindNotImplemented}
	ErrNotFound        = &AppError{Kind: KindNotFound}
	ErrBackend         = &AppError{Kind: KindBackend}
	ErrValidation      = &AppError{Kind: KindValidation}
)

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError unwraps err into an AppError. Unknown errors are reported as
// backend failures carrying the original message.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(KindBackend, "Internal error", err)
}

// StatusOr returns the mapped status for AppErrors and fallback otherwise.
func StatusOr(err error, fallback int) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case KindBackend:
			return fallback
		default:
			return appErr.HTTPStatus()
		}
	}
	return fallback
}
