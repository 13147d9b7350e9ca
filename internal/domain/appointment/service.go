package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthhub/portal/internal/domain/identity"
	"github.com/healthhub/portal/internal/platform/apperr"
	"github.com/healthhub/portal/internal/platform/events"
)

type Service struct {
	repo   Repository
	events events.Publisher
	logger zerolog.Logger
	now    func() time.Time
	loc    *time.Location
}

func NewService(repo Repository, pub events.Publisher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, events: pub, logger: logger, now: time.Now, loc: time.UTC}
}

// WithClock sets the clock and the timezone used to decide what "today" is.
func (s *Service) WithClock(now func() time.Time, loc *time.Location) *Service {
	if now != nil {
		s.now = now
	}
	if loc != nil {
		s.loc = loc
	}
	return s
}

// Today is the current date in the portal's timezone.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(DateLayout)
}

// Book creates a scheduled appointment for the calling patient. The form
// is validated before any store access and nothing is inserted when the
// caller has no patient record.
func (s *Service) Book(ctx context.Context, actor *identity.Actor, req BookRequest) (*Appointment, error) {
	doctorID, err := req.Validate(s.Today())
	if err != nil {
		return nil, err
	}
	patientID, err := actor.RequirePatient()
	if err != nil {
		return nil, err
	}

	a := &Appointment{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      req.Date,
		Time:      req.Time,
		Reason:    req.Reason,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("doctor_id", a.DoctorID.String()).
		Str("date", a.Date).
		Msg("appointment booked")
	s.emit(ctx, events.AppointmentBooked, a)
	return a, nil
}

// Complete marks an appointment of the calling doctor completed.
func (s *Service) Complete(ctx context.Context, actor *identity.Actor, id uuid.UUID) (*Appointment, error) {
	doctorID, err := actor.RequireDoctor()
	if err != nil {
		return nil, err
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.DoctorID != doctorID {
		return nil, apperr.NotFound("appointment %s not found", id)
	}
	return s.transition(ctx, a, StatusCompleted, events.AppointmentCompleted)
}

// Cancel cancels an appointment owned by the calling patient or doctor.
func (s *Service) Cancel(ctx context.Context, actor *identity.Actor, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !owns(actor, a) {
		return nil, apperr.NotFound("appointment %s not found", id)
	}
	return s.transition(ctx, a, StatusCancelled, events.AppointmentCancelled)
}

func owns(actor *identity.Actor, a *Appointment) bool {
	if actor == nil {
		return false
	}
	switch actor.Profile.Role {
	case identity.RolePatient:
		return actor.PatientID != nil && *actor.PatientID == a.PatientID
	case identity.RoleDoctor:
		return actor.DoctorID != nil && *actor.DoctorID == a.DoctorID
	default:
		return false
	}
}

func (s *Service) transition(ctx context.Context, a *Appointment, to Status, evt events.Type) (*Appointment, error) {
	if err := CheckTransition(a.Status, to); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, a.ID, a.Status, to); err != nil {
		return nil, err
	}
	a.Status = to
	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("status", string(to)).
		Msg("appointment status changed")
	s.emit(ctx, evt, a)
	return a, nil
}

func (s *Service) emit(ctx context.Context, t events.Type, a *Appointment) {
	events.Emit(ctx, s.events, s.logger, events.Event{
		Type:       t,
		ID:         a.ID.String(),
		PatientID:  a.PatientID.String(),
		DoctorID:   a.DoctorID.String(),
		OccurredAt: s.now().UTC(),
		Data: map[string]string{
			"appointment_date": a.Date,
			"appointment_time": a.Time,
			"status":           string(a.Status),
		},
	})
}

func (s *Service) ListForPatient(ctx context.Context, actor *identity.Actor) ([]*PatientAppointment, error) {
	patientID, err := actor.RequirePatient()
	if err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) ListForDoctor(ctx context.Context, actor *identity.Actor) ([]*DoctorAppointment, error) {
	doctorID, err := actor.RequireDoctor()
	if err != nil {
		return nil, err
	}
	return s.repo.ListByDoctor(ctx, doctorID)
}

func (s *Service) ListDoctorPatients(ctx context.Context, actor *identity.Actor) ([]*DoctorPatient, error) {
	doctorID, err := actor.RequireDoctor()
	if err != nil {
		return nil, err
	}
	return s.repo.ListDoctorPatients(ctx, doctorID)
}

// ScheduledOn lists scheduled appointments on date across all doctors.
func (s *Service) ScheduledOn(ctx context.Context, date string) ([]*DoctorAppointment, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, apperr.Validation("date must be YYYY-MM-DD")
	}
	return s.repo.ListScheduledOn(ctx, date)
}

// HasSeen reports whether doctorID has any appointment with patientID.
func (s *Service) HasSeen(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, doctorID, patientID)
}
