package identity

import (
	"context"

	"github.com/google/uuid"
)

type ProfileRepository interface {
	GetByIdentity(ctx context.Context, identityID string) (*Profile, error)
	List(ctx context.Context, limit, offset int) ([]*Profile, int, error)
	All(ctx context.Context) ([]*Profile, error)
	// Register inserts a profile and its specialization atomically.
	Register(ctx context.Context, p *Profile, patient *Patient, doctor *Doctor) error
}

type SpecializationRepository interface {
	ForProfile(ctx context.Context, profileID uuid.UUID) (Specializations, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
	ListDoctors(ctx context.Context) ([]*DoctorListing, error)
}
