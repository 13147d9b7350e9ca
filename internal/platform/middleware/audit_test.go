package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthhub/portal/internal/platform/auth"
)

type mockRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
	err     error
}

func (m *mockRecorder) RecordAccess(entry AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return m.err
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func newAuditContext(method, path, route string, identityID string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	if identityID != "" {
		req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{ID: identityID}))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(route)
	return c, rec
}

func TestAudit_RecordsCancel(t *testing.T) {
	rec := &mockRecorder{}
	c, _ := newAuditContext(http.MethodPost,
		"/api/v1/patient/appointments/7f1c/cancel",
		"/api/v1/patient/appointments/:id/cancel",
		"identity-1")
	c.SetParamNames("id")
	c.SetParamValues("7f1c")

	h := Audit(zerolog.Nop(), rec)(func(c echo.Context) error {
		c.Set(ActorRoleKey, "patient")
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.count() != 1 {
		t.Fatalf("expected 1 entry, got %d", rec.count())
	}
	got := rec.entries[0]
	if got.IdentityID != "identity-1" || got.Role != "patient" {
		t.Errorf("unexpected actor %+v", got)
	}
	if got.Resource != "appointments" || got.ResourceID != "7f1c" {
		t.Errorf("unexpected resource %q/%q", got.Resource, got.ResourceID)
	}
	if got.Action != "create" || got.StatusCode != http.StatusOK {
		t.Errorf("unexpected action/status %s/%d", got.Action, got.StatusCode)
	}
}

func TestAudit_UsesErrorStatus(t *testing.T) {
	rec := &mockRecorder{}
	c, _ := newAuditContext(http.MethodGet, "/api/v1/admin/bills", "/api/v1/admin/bills", "")

	h := Audit(zerolog.Nop(), rec)(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusUnauthorized)
	})
	_ = h(c)

	if rec.entries[0].StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.entries[0].StatusCode)
	}
	if rec.entries[0].IdentityID != "" {
		t.Errorf("expected anonymous entry, got %q", rec.entries[0].IdentityID)
	}
}

func TestAudit_SkipsNonAPIPaths(t *testing.T) {
	rec := &mockRecorder{}
	c, _ := newAuditContext(http.MethodGet, "/health", "/health", "")

	_ = Audit(zerolog.Nop(), rec)(okHandler)(c)

	if rec.count() != 0 {
		t.Errorf("expected no audit entry, got %d", rec.count())
	}
}

func TestAudit_RecorderErrorDoesNotBreakRequest(t *testing.T) {
	rec := &mockRecorder{err: errors.New("disk full")}
	c, _ := newAuditContext(http.MethodGet, "/api/v1/me", "/api/v1/me", "identity-1")

	if err := Audit(zerolog.Nop(), rec)(okHandler)(c); err != nil {
		t.Fatalf("expected request to succeed, got %v", err)
	}
}

func TestAudit_NilRecorderLogsOnly(t *testing.T) {
	c, _ := newAuditContext(http.MethodGet, "/api/v1/me", "/api/v1/me", "identity-1")
	if err := Audit(zerolog.Nop(), nil)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResourceFromRoute(t *testing.T) {
	tests := map[string]string{
		"/api/v1/me":      "me",
		"/api/v1/doctors": "doctors",
		"/api/v1/patient/appointments/:id/cancel": "appointments",
		"/api/v1/admin/bills/:id/pay":             "bills",
		"/api/v1/doctor/records":                  "records",
		"/api/v1/admin":                           "unknown",
		"/health":                                 "unknown",
	}
	for route, want := range tests {
		if got := resourceFromRoute(route); got != want {
			t.Errorf("resourceFromRoute(%q) = %q, want %q", route, got, want)
		}
	}
}

func TestMethodToAction(t *testing.T) {
	tests := map[string]string{
		http.MethodGet:    "read",
		http.MethodHead:   "read",
		http.MethodPost:   "create",
		http.MethodPatch:  "update",
		http.MethodDelete: "delete",
	}
	for method, want := range tests {
		if got := methodToAction(method); got != want {
			t.Errorf("methodToAction(%s) = %s, want %s", method, got, want)
		}
	}
}

func TestAuditRecorderFunc(t *testing.T) {
	var got AuditEntry
	f := AuditRecorderFunc(func(e AuditEntry) error { got = e; return nil })
	_ = f.RecordAccess(AuditEntry{Resource: "bills"})
	if got.Resource != "bills" {
		t.Errorf("expected bills, got %s", got.Resource)
	}
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
