package records

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthhub/portal/internal/domain/identity"
	"github.com/healthhub/portal/internal/platform/apperr"
	"github.com/healthhub/portal/internal/platform/events"
)

// CareChecker reports whether a doctor has an appointment with a patient.
type CareChecker interface {
	HasSeen(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error)
}

type Service struct {
	repo   Repository
	care   CareChecker
	events events.Publisher
	logger zerolog.Logger
}

func NewService(repo Repository, care CareChecker, pub events.Publisher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, care: care, events: pub, logger: logger}
}

// Add appends a record written by the calling doctor for a patient the
// doctor has an appointment with.
func (s *Service) Add(ctx context.Context, actor *identity.Actor, req AddRequest) (*HealthRecord, error) {
	doctorID, err := actor.RequireDoctor()
	if err != nil {
		return nil, err
	}
	patientID, err := req.Validate()
	if err != nil {
		return nil, err
	}
	seen, err := s.care.HasSeen(ctx, doctorID, patientID)
	if err != nil {
		return nil, err
	}
	if !seen {
		return nil, apperr.Validation("no appointment with patient %s", patientID)
	}

	rec := &HealthRecord{
		PatientID:     patientID,
		DoctorID:      doctorID,
		Diagnosis:     req.Diagnosis,
		Symptoms:      req.Symptoms,
		TreatmentPlan: req.TreatmentPlan,
		Notes:         req.Notes,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info().Str("record_id", rec.ID.String()).Str("doctor_id", doctorID.String()).Msg("health record added")
	events.Emit(ctx, s.events, s.logger, events.Event{
		Type:       events.RecordAdded,
		ID:         rec.ID.String(),
		PatientID:  patientID.String(),
		DoctorID:   doctorID.String(),
		OccurredAt: time.Now().UTC(),
	})
	return rec, nil
}

// ListForPatient returns the caller's records, newest first.
func (s *Service) ListForPatient(ctx context.Context, actor *identity.Actor) ([]*PatientRecord, error) {
	patientID, err := actor.RequirePatient()
	if err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) CountForPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	return s.repo.CountByPatient(ctx, patientID)
}
