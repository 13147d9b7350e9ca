package appointment

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/healthhub/portal/internal/domain/identity"
)

func newRequestContext(e *echo.Echo, method, target, body string, actor *identity.Actor) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if actor != nil {
		req = req.WithContext(identity.WithActor(req.Context(), actor))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_BookAndComplete(t *testing.T) {
	d, p := doctorActor(), patientActor()
	svc, _, _ := newTestService(d)
	h := NewHandler(svc)
	e := echo.New()

	body := `{"doctor_id":"` + d.DoctorID.String() + `","appointment_date":"2025-06-01","appointment_time":"10:00","reason":"checkup"}`
	c, rec := newRequestContext(e, http.MethodPost, "/api/v1/patient/appointments", body, p)
	if err := h.Book(c); err != nil {
		t.Fatalf("Book: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var created Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	c, rec = newRequestContext(e, http.MethodPost, "/", "", d)
	c.SetParamNames("id")
	c.SetParamValues(created.ID.String())
	if err := h.Complete(c); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	var completed Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &completed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if completed.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", completed.Status)
	}

	c, _ = newRequestContext(e, http.MethodPost, "/", "", p)
	c.SetParamNames("id")
	c.SetParamValues(created.ID.String())
	err := h.Cancel(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 cancelling a completed appointment, got %v", err)
	}
}

func TestHandler_Book_Invalid(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	c, _ := newRequestContext(echo.New(), http.MethodPost, "/", `{"reason":"x"}`, patientActor())

	err := h.Book(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_Book_Conflict(t *testing.T) {
	d := doctorActor()
	svc, _, _ := newTestService(d)
	h := NewHandler(svc)
	e := echo.New()
	body := `{"doctor_id":"` + d.DoctorID.String() + `","appointment_date":"2025-06-01","appointment_time":"10:00","reason":"checkup"}`

	c, _ := newRequestContext(e, http.MethodPost, "/", body, patientActor())
	if err := h.Book(c); err != nil {
		t.Fatalf("Book: %v", err)
	}
	c, _ = newRequestContext(e, http.MethodPost, "/", body, patientActor())
	err := h.Book(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Errorf("expected 409, got %v", err)
	}
}

func TestHandler_NoActor(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	c, _ := newRequestContext(echo.New(), http.MethodGet, "/", "", nil)

	err := h.ListPatientAppointments(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestHandler_InvalidID(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	c, _ := newRequestContext(echo.New(), http.MethodPost, "/", "", doctorActor())
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.Complete(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_ListsEmpty(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	e := echo.New()

	c, rec := newRequestContext(e, http.MethodGet, "/", "", patientActor())
	if err := h.ListPatientAppointments(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}

	c, rec = newRequestContext(e, http.MethodGet, "/", "", doctorActor())
	if err := h.ListDoctorPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}
}
