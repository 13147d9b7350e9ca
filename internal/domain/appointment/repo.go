package appointment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// UpdateStatus moves the appointment from -> to only if it is still in
	// from. It returns NotFound for an unknown id and a validation error
	// when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*PatientAppointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*DoctorAppointment, error)
	ListDoctorPatients(ctx context.Context, doctorID uuid.UUID) ([]*DoctorPatient, error)
	ListScheduledOn(ctx context.Context, date string) ([]*DoctorAppointment, error)
	Exists(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error)
}
