package records

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthhub/portal/internal/domain/identity"
	"github.com/healthhub/portal/internal/platform/apperr"
	"github.com/healthhub/portal/internal/platform/events"
)

type mockRepo struct {
	records []*HealthRecord
	seq     int
}

func (m *mockRepo) Create(_ context.Context, r *HealthRecord) error {
	m.seq++
	r.ID = uuid.New()
	r.RecordDate = time.Date(2025, 1, 1, 0, 0, m.seq, 0, time.UTC)
	cp := *r
	m.records = append(m.records, &cp)
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*PatientRecord, error) {
	var out []*PatientRecord
	for _, r := range m.records {
		if r.PatientID == patientID {
			out = append(out, &PatientRecord{HealthRecord: *r})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordDate.After(out[j].RecordDate) })
	return out, nil
}

func (m *mockRepo) CountByPatient(_ context.Context, patientID uuid.UUID) (int, error) {
	n := 0
	for _, r := range m.records {
		if r.PatientID == patientID {
			n++
		}
	}
	return n, nil
}

type careSet map[[2]uuid.UUID]bool

func (c careSet) HasSeen(_ context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	return c[[2]uuid.UUID{doctorID, patientID}], nil
}

type failingCare struct{}

func (failingCare) HasSeen(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, apperr.Transient(errors.New("down"), "check appointment")
}

func actors() (*identity.Actor, *identity.Actor) {
	did, pid := uuid.New(), uuid.New()
	doctor := &identity.Actor{Profile: identity.Profile{Role: identity.RoleDoctor}, DoctorID: &did}
	patient := &identity.Actor{Profile: identity.Profile{Role: identity.RolePatient}, PatientID: &pid}
	return doctor, patient
}

func TestAdd_RequiresAppointment(t *testing.T) {
	doctor, patient := actors()
	repo := &mockRepo{}
	pub := &events.Memory{}
	svc := NewService(repo, careSet{}, pub, zerolog.Nop())

	_, err := svc.Add(context.Background(), doctor, AddRequest{PatientID: patient.PatientID.String(), Diagnosis: "Flu"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.records) != 0 {
		t.Error("nothing may be written")
	}
}

func TestAdd_AndListNewestFirst(t *testing.T) {
	doctor, patient := actors()
	repo := &mockRepo{}
	pub := &events.Memory{}
	care := careSet{{*doctor.DoctorID, *patient.PatientID}: true}
	svc := NewService(repo, care, pub, zerolog.Nop())
	ctx := context.Background()

	for _, dx := range []string{"Flu", " Migraine "} {
		if _, err := svc.Add(ctx, doctor, AddRequest{PatientID: patient.PatientID.String(), Diagnosis: dx, Notes: strPtr("  ")}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	list, err := svc.ListForPatient(ctx, patient)
	if err != nil {
		t.Fatalf("ListForPatient: %v", err)
	}
	if len(list) != 2 || list[0].Diagnosis != "Migraine" {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if list[0].Notes != nil {
		t.Error("blank notes must be stored as absent")
	}
	if n, _ := svc.CountForPatient(ctx, *patient.PatientID); n != 2 {
		t.Errorf("expected 2 records, got %d", n)
	}
	if types := pub.Types(); len(types) != 2 || types[0] != events.RecordAdded {
		t.Errorf("unexpected events %v", types)
	}
}

func TestAdd_Forbidden(t *testing.T) {
	_, patient := actors()
	svc := NewService(&mockRepo{}, careSet{}, nil, zerolog.Nop())
	_, err := svc.Add(context.Background(), patient, AddRequest{PatientID: patient.PatientID.String(), Diagnosis: "x"})
	if !errors.Is(err, apperr.ErrRoleForbidden) {
		t.Fatalf("expected role forbidden, got %v", err)
	}
}

func TestAdd_CareCheckFailure(t *testing.T) {
	doctor, patient := actors()
	repo := &mockRepo{}
	svc := NewService(repo, failingCare{}, nil, zerolog.Nop())
	_, err := svc.Add(context.Background(), doctor, AddRequest{PatientID: patient.PatientID.String(), Diagnosis: "x"})
	if !errors.Is(err, apperr.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if len(repo.records) != 0 {
		t.Error("nothing may be written")
	}
}

func TestAddRequest_Validate(t *testing.T) {
	if _, err := (&AddRequest{Diagnosis: "x"}).Validate(); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for missing patient, got %v", err)
	}
	if _, err := (&AddRequest{PatientID: uuid.New().String(), Diagnosis: "  "}).Validate(); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for blank diagnosis, got %v", err)
	}
}

func TestHandler_AddRecord(t *testing.T) {
	doctor, patient := actors()
	care := careSet{{*doctor.DoctorID, *patient.PatientID}: true}
	h := NewHandler(NewService(&mockRepo{}, care, nil, zerolog.Nop()))

	e := echo.New()
	body := `{"patient_id":"` + patient.PatientID.String() + `","diagnosis":"Flu"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/doctor/records", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(identity.WithActor(req.Context(), doctor))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.AddRecord(c); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func strPtr(s string) *string { return &s }
