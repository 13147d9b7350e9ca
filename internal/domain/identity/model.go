package identity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/healthhub/portal/internal/platform/apperr"
)

// Role is closed over three variants. Values outside them never reach the
// rest of the system: ParseRole turns them into a fatal data error.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

var allRoles = []Role{RolePatient, RoleDoctor, RoleAdmin}

func Roles() []Role {
	return append([]Role(nil), allRoles...)
}

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return r, nil
	default:
		return "", apperr.FatalData("unknown role %q", s)
	}
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Profile is the portal-side record of an identity. Exactly one exists per
// identity and its role never changes.
type Profile struct {
	ID         uuid.UUID `json:"id"`
	IdentityID string    `json:"identity_id"`
	FullName   string    `json:"full_name"`
	Phone      *string   `json:"phone,omitempty"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// Patient is the specialization of a patient profile.
type Patient struct {
	ID          uuid.UUID `json:"id"`
	ProfileID   uuid.UUID `json:"profile_id"`
	DateOfBirth *string   `json:"date_of_birth,omitempty"`
	Gender      *string   `json:"gender,omitempty"`
	BloodType   *string   `json:"blood_type,omitempty"`
	Allergies   *string   `json:"allergies,omitempty"`
}

// Doctor is the specialization of a doctor profile.
type Doctor struct {
	ID              uuid.UUID `json:"id"`
	ProfileID       uuid.UUID `json:"profile_id"`
	Specialization  string    `json:"specialization"`
	ConsultationFee float64   `json:"consultation_fee"`
}

// DoctorListing is a doctor as shown in the booking picker.
type DoctorListing struct {
	Doctor
	FullName string `json:"full_name"`
}

// Actor is a resolved caller: the profile plus the id of the matching
// specialization record, when one exists.
type Actor struct {
	Profile   Profile    `json:"profile"`
	PatientID *uuid.UUID `json:"patient_id,omitempty"`
	DoctorID  *uuid.UUID `json:"doctor_id,omitempty"`
}

// RequirePatient returns the caller's patient id or NotFound when the
// patient record has not been created yet.
func (a *Actor) RequirePatient() (uuid.UUID, error) {
	if a == nil || a.Profile.Role != RolePatient {
		return uuid.Nil, apperr.New(apperr.KindRoleForbidden, "caller is not a patient")
	}
	if a.PatientID == nil {
		return uuid.Nil, apperr.NotFound("no patient record for profile %s", a.Profile.ID)
	}
	return *a.PatientID, nil
}

func (a *Actor) RequireDoctor() (uuid.UUID, error) {
	if a == nil || a.Profile.Role != RoleDoctor {
		return uuid.Nil, apperr.New(apperr.KindRoleForbidden, "caller is not a doctor")
	}
	if a.DoctorID == nil {
		return uuid.Nil, apperr.NotFound("no doctor record for profile %s", a.Profile.ID)
	}
	return *a.DoctorID, nil
}

// Specializations reports which specialization rows point at a profile.
type Specializations struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
}

// RoleCounts partitions profiles by role.
type RoleCounts struct {
	Patient int `json:"patient"`
	Doctor  int `json:"doctor"`
	Admin   int `json:"admin"`
	Total   int `json:"total"`
}

// CountRoles is a pure projection over a profile list.
func CountRoles(profiles []*Profile) RoleCounts {
	var rc RoleCounts
	for _, p := range profiles {
		switch p.Role {
		case RolePatient:
			rc.Patient++
		case RoleDoctor:
			rc.Doctor++
		case RoleAdmin:
			rc.Admin++
		}
	}
	rc.Total = len(profiles)
	return rc
}

// Registration provisions a profile together with its specialization.
type Registration struct {
	IdentityID      string  `json:"identity_id"`
	FullName        string  `json:"full_name"`
	Phone           *string `json:"phone,omitempty"`
	Role            Role    `json:"role"`
	Specialization  string  `json:"specialization,omitempty"`
	ConsultationFee float64 `json:"consultation_fee,omitempty"`
	DateOfBirth     *string `json:"date_of_birth,omitempty"`
	Gender          *string `json:"gender,omitempty"`
	BloodType       *string `json:"blood_type,omitempty"`
	Allergies       *string `json:"allergies,omitempty"`
}

type actorKey struct{}

// WithActor stores the resolved caller in ctx. The access guard sets it
// before any role-restricted handler runs.
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFromContext(ctx context.Context) (*Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(*Actor)
	return a, ok && a != nil
}
