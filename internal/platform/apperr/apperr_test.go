package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIs_MatchesKind(t *testing.T) {
	err := NotFound("patient %s not found", "p-1")
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected NotFound to match ErrNotFound")
	}
	if errors.Is(err, ErrValidation) {
		t.Error("NotFound must not match ErrValidation")
	}
}

func TestIs_ThroughWrapping(t *testing.T) {
	inner := Transient(errors.New("connection reset"), "list bills")
	err := fmt.Errorf("admin dashboard: %w", inner)
	if !errors.Is(err, ErrTransient) {
		t.Error("expected wrapped transient error to match")
	}
	if KindOf(err) != KindTransient {
		t.Errorf("expected KindTransient, got %v", KindOf(err))
	}
}

func TestFatalDistinctFromTransient(t *testing.T) {
	err := FatalData("unknown role %q", "nurse")
	if errors.Is(err, ErrTransient) {
		t.Error("fatal data error must not look transient")
	}
	if HTTPStatus(err) == HTTPStatus(Transient(nil, "x")) {
		t.Error("fatal and transient errors must map to different statuses")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrAuthRequired, http.StatusUnauthorized},
		{ErrRoleForbidden, http.StatusForbidden},
		{NotFound("x"), http.StatusNotFound},
		{Validation("x"), http.StatusBadRequest},
		{Conflict("x"), http.StatusConflict},
		{Transient(errors.New("x"), "x"), http.StatusServiceUnavailable},
		{FatalData("x"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestToHTTP_HidesUnknownErrors(t *testing.T) {
	he := ToHTTP(errors.New("pq: secret detail"))
	body, ok := he.Message.(map[string]string)
	if !ok {
		t.Fatalf("unexpected message type %T", he.Message)
	}
	if body["error"] != "internal server error" {
		t.Errorf("expected generic message, got %q", body["error"])
	}
}
