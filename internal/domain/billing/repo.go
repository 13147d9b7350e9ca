package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	// MarkPaid moves a pending bill to paid with paid_date = paidAt. It
	// returns NotFound for an unknown id and a validation error when the
	// bill is already paid.
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error
	ListAll(ctx context.Context) ([]*AdminBill, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Bill, error)
}
