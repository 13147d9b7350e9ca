package billing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/healthhub/portal/internal/domain/identity"
)

func newRequestContext(method, target, body string, actor *identity.Actor) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if actor != nil {
		req = req.WithContext(identity.WithActor(req.Context(), actor))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_CreateAndPay(t *testing.T) {
	svc, repo, _ := newTestService()
	h := NewHandler(svc)
	pid := repo.addPatient("Pat")

	c, rec := newRequestContext(http.MethodPost, "/api/v1/admin/bills", `{"patient_id":"`+pid.String()+`","amount":250.00,"description":"Visit"}`, admin())
	if err := h.CreateBill(c); err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var created Bill
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Amount != 25000 || created.Status != StatusPending {
		t.Errorf("unexpected bill %+v", created)
	}

	c, rec = newRequestContext(http.MethodPost, "/", "", admin())
	c.SetParamNames("id")
	c.SetParamValues(created.ID.String())
	if err := h.MarkPaid(c); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	var paid Bill
	if err := json.Unmarshal(rec.Body.Bytes(), &paid); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if paid.StoredStatus != StatusPaid || paid.PaidDate == nil {
		t.Errorf("expected paid with date, got %+v", paid)
	}

	c, rec = newRequestContext(http.MethodGet, "/", "", admin())
	if err := h.ListBills(c); err != nil {
		t.Fatalf("ListBills: %v", err)
	}
	var list billsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Bills) != 1 || list.Totals.PaidTotal != 25000 {
		t.Errorf("unexpected list %+v", list)
	}
}

func TestHandler_CreateBill_Invalid(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	c, _ := newRequestContext(http.MethodPost, "/", `{"amount":0}`, admin())

	err := h.CreateBill(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_MarkPaid_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	c, _ := newRequestContext(http.MethodPost, "/", "", admin())
	c.SetParamNames("id")
	c.SetParamValues("00000000-0000-0000-0000-000000000001")

	err := h.MarkPaid(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_Export(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	c, rec := newRequestContext(http.MethodGet, "/", "", admin())

	if err := h.ExportBills(c); err != nil {
		t.Fatalf("ExportBills: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != xlsxMIME {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "bills-2025-05-20.xlsx") {
		t.Errorf("unexpected disposition %q", cd)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected workbook bytes")
	}
}

func TestHandler_ListPatientBills_Empty(t *testing.T) {
	svc, repo, _ := newTestService()
	h := NewHandler(svc)
	pid := repo.addPatient("Pat")
	actor := &identity.Actor{Profile: identity.Profile{Role: identity.RolePatient}, PatientID: &pid}
	c, rec := newRequestContext(http.MethodGet, "/", "", actor)

	if err := h.ListPatientBills(c); err != nil {
		t.Fatalf("ListPatientBills: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}
}
