package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthhub/portal/internal/platform/apperr"
	"github.com/healthhub/portal/internal/platform/cache"
)

const profileKeyPrefix = "portal:profile:"

// Resolver maps identities to profiles and role specializations. Profiles
// may be cached; a cache failure only costs a store round trip.
type Resolver struct {
	profiles ProfileRepository
	specs    SpecializationRepository
	kv       cache.KVStore
	ttl      time.Duration
	logger   zerolog.Logger
}

func NewResolver(profiles ProfileRepository, specs SpecializationRepository, logger zerolog.Logger) *Resolver {
	return &Resolver{profiles: profiles, specs: specs, logger: logger}
}

// WithCache enables profile caching in kv for ttl.
func (r *Resolver) WithCache(kv cache.KVStore, ttl time.Duration) *Resolver {
	r.kv = kv
	r.ttl = ttl
	return r
}

// ResolveProfile returns the one profile of identityID.
func (r *Resolver) ResolveProfile(ctx context.Context, identityID string) (*Profile, error) {
	if identityID == "" {
		return nil, apperr.ErrAuthRequired
	}

	if r.kv != nil {
		var p Profile
		err := cache.GetJSON(ctx, r.kv, profileKeyPrefix+identityID, &p)
		switch {
		case err == nil && p.Role.Valid():
			return &p, nil
		case err != nil && !errors.Is(err, cache.ErrCacheMiss):
			r.logger.Warn().Err(err).Str("identity_id", identityID).Msg("profile cache read failed")
		}
	}

	p, err := r.profiles.GetByIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if _, err := ParseRole(string(p.Role)); err != nil {
		return nil, err
	}

	if r.kv != nil {
		if err := cache.SetJSON(ctx, r.kv, profileKeyPrefix+identityID, p, r.ttl); err != nil {
			r.logger.Warn().Err(err).Str("identity_id", identityID).Msg("profile cache write failed")
		}
	}
	return p, nil
}

// ResolveActor returns the profile plus its specialization id. A profile
// whose specialization rows contradict its role is fatal.
func (r *Resolver) ResolveActor(ctx context.Context, identityID string) (*Actor, error) {
	p, err := r.ResolveProfile(ctx, identityID)
	if err != nil {
		return nil, err
	}
	actor := &Actor{Profile: *p}
	if p.Role == RoleAdmin {
		return actor, nil
	}

	specs, err := r.specs.ForProfile(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	switch p.Role {
	case RolePatient:
		if specs.DoctorID != nil {
			return nil, apperr.FatalData("patient profile %s has a doctor record", p.ID)
		}
		actor.PatientID = specs.PatientID
	case RoleDoctor:
		if specs.PatientID != nil {
			return nil, apperr.FatalData("doctor profile %s has a patient record", p.ID)
		}
		actor.DoctorID = specs.DoctorID
	}
	return actor, nil
}

// Evict drops the cached profile of identityID.
func (r *Resolver) Evict(ctx context.Context, identityID string) {
	if r.kv == nil || identityID == "" {
		return
	}
	if err := r.kv.Del(ctx, profileKeyPrefix+identityID); err != nil {
		r.logger.Warn().Err(err).Str("identity_id", identityID).Msg("profile cache evict failed")
	}
}

// OnSessionChange is the identity-session listener: the next lookup for
// identityID goes to the store.
func (r *Resolver) OnSessionChange(identityID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r.Evict(ctx, identityID)
}

func (r *Resolver) ListDoctors(ctx context.Context) ([]*DoctorListing, error) {
	return r.specs.ListDoctors(ctx)
}

func (r *Resolver) ListProfiles(ctx context.Context, limit, offset int) ([]*Profile, int, error) {
	return r.profiles.List(ctx, limit, offset)
}

func (r *Resolver) AllProfiles(ctx context.Context) ([]*Profile, error) {
	return r.profiles.All(ctx)
}

func (r *Resolver) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.specs.GetPatient(ctx, id)
}

// Register provisions a profile and the specialization its role needs.
func (r *Resolver) Register(ctx context.Context, reg Registration) (*Actor, error) {
	reg.IdentityID = strings.TrimSpace(reg.IdentityID)
	reg.FullName = strings.TrimSpace(reg.FullName)
	if reg.IdentityID == "" {
		return nil, apperr.Validation("identity_id is required")
	}
	if reg.FullName == "" {
		return nil, apperr.Validation("full_name is required")
	}
	if !reg.Role.Valid() {
		return nil, apperr.Validation("role must be patient, doctor or admin")
	}

	p := &Profile{IdentityID: reg.IdentityID, FullName: reg.FullName, Phone: reg.Phone, Role: reg.Role}
	var patient *Patient
	var doctor *Doctor
	switch reg.Role {
	case RolePatient:
		patient = &Patient{DateOfBirth: reg.DateOfBirth, Gender: reg.Gender, BloodType: reg.BloodType, Allergies: reg.Allergies}
	case RoleDoctor:
		if strings.TrimSpace(reg.Specialization) == "" {
			return nil, apperr.Validation("specialization is required for doctors")
		}
		if reg.ConsultationFee < 0 {
			return nil, apperr.Validation("consultation_fee must not be negative")
		}
		doctor = &Doctor{Specialization: strings.TrimSpace(reg.Specialization), ConsultationFee: reg.ConsultationFee}
	}

	if err := r.profiles.Register(ctx, p, patient, doctor); err != nil {
		return nil, err
	}

	actor := &Actor{Profile: *p}
	if patient != nil {
		actor.PatientID = &patient.ID
	}
	if doctor != nil {
		actor.DoctorID = &doctor.ID
	}
	r.logger.Info().Str("identity_id", p.IdentityID).Str("role", string(p.Role)).Msg("profile registered")
	return actor, nil
}
