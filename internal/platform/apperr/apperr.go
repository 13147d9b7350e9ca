package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Kind classifies a failure so callers can decide how to surface it.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthRequired
	KindRoleForbidden
	KindNotFound
	KindValidation
	KindConflict
	KindTransient
	KindFatalData
)

func (k Kind) String() string {
	switch k {
	case KindAuthRequired:
		return "auth_required"
	case KindRoleForbidden:
		return "role_forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient_store"
	case KindFatalData:
		return "fatal_data"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrAuthRequired  = &Error{Kind: KindAuthRequired, Msg: "authentication required"}
	ErrRoleForbidden = &Error{Kind: KindRoleForbidden, Msg: "role not permitted"}
	ErrNotFound      = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrValidation    = &Error{Kind: KindValidation, Msg: "validation failed"}
	ErrConflict      = &Error{Kind: KindConflict, Msg: "conflict"}
	ErrTransient     = &Error{Kind: KindTransient, Msg: "store unavailable"}
	ErrFatalData     = &Error{Kind: KindFatalData, Msg: "inconsistent data"}
)

// Error is a classified domain error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so that errors.Is(err, ErrNotFound) holds for
// any NotFound error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func NotFound(format string, args ...any) *Error { return New(KindNotFound, format, args...) }

func Validation(format string, args ...any) *Error { return New(KindValidation, format, args...) }

func Conflict(format string, args ...any) *Error { return New(KindConflict, format, args...) }

func FatalData(format string, args ...any) *Error { return New(KindFatalData, format, args...) }

func Transient(err error, format string, args ...any) *Error {
	return Wrap(KindTransient, err, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus maps an error kind to a response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindAuthRequired:
		return http.StatusUnauthorized
	case KindRoleForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ToHTTP converts err into an echo error carrying the kind so clients can
// tell transient failures from fatal ones.
func ToHTTP(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	status := HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError && KindOf(err) == KindUnknown {
		msg = "internal server error"
	}
	return echo.NewHTTPError(status, map[string]string{
		"error": msg,
		"kind":  KindOf(err).String(),
	})
}
