package records

import (
	"context"

	"github.com/google/uuid"
)

// Repository has no update or delete: records are append-only.
type Repository interface {
	Create(ctx context.Context, r *HealthRecord) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*PatientRecord, error)
	CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
}
