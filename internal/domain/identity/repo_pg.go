package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthhub/portal/internal/platform/db"
)

// =========== Profile Repository ===========

type profileRepoPG struct{ pool *pgxpool.Pool }

func NewProfileRepoPG(pool *pgxpool.Pool) ProfileRepository { return &profileRepoPG{pool: pool} }

const profileCols = `id, identity_id, full_name, phone, role, created_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	var role string
	if err := row.Scan(&p.ID, &p.IdentityID, &p.FullName, &p.Phone, &role, &p.CreatedAt); err != nil {
		return nil, err
	}
	r, err := ParseRole(role)
	if err != nil {
		return nil, err
	}
	p.Role = r
	return &p, nil
}

func (r *profileRepoPG) GetByIdentity(ctx context.Context, identityID string) (*Profile, error) {
	p, err := scanProfile(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+profileCols+` FROM profiles WHERE identity_id = $1`, identityID))
	if err != nil {
		return nil, db.Classify(err, "get profile")
	}
	return p, nil
}

func (r *profileRepoPG) List(ctx context.Context, limit, offset int) ([]*Profile, int, error) {
	q := db.Conn(ctx, r.pool)
	total, err := db.Scalar[int](ctx, q, `SELECT COUNT(*) FROM profiles`)
	if err != nil {
		return nil, 0, db.Classify(err, "count profiles")
	}
	profiles, err := r.query(ctx, `SELECT `+profileCols+` FROM profiles ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

func (r *profileRepoPG) All(ctx context.Context) ([]*Profile, error) {
	return r.query(ctx, `SELECT `+profileCols+` FROM profiles ORDER BY created_at DESC`)
}

func (r *profileRepoPG) query(ctx context.Context, sql string, args ...any) ([]*Profile, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, db.Classify(err, "list profiles")
	}
	defer rows.Close()

	var out []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, db.Classify(err, "scan profile")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err, "list profiles")
	}
	return out, nil
}

func (r *profileRepoPG) Register(ctx context.Context, p *Profile, patient *Patient, doctor *Doctor) error {
	return db.InTx(ctx, r.pool, func(ctx context.Context) error {
		q := db.Conn(ctx, r.pool)
		p.ID = uuid.New()
		err := q.QueryRow(ctx, `
			INSERT INTO profiles (id, identity_id, full_name, phone, role)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at`,
			p.ID, p.IdentityID, p.FullName, p.Phone, string(p.Role)).Scan(&p.CreatedAt)
		if err != nil {
			return db.Classify(err, "insert profile")
		}

		switch {
		case patient != nil:
			patient.ID = uuid.New()
			patient.ProfileID = p.ID
			_, err = q.Exec(ctx, `
				INSERT INTO patients (id, profile_id, date_of_birth, gender, blood_type, allergies)
				VALUES ($1, $2, $3::date, $4, $5, $6)`,
				patient.ID, patient.ProfileID, patient.DateOfBirth, patient.Gender, patient.BloodType, patient.Allergies)
			if err != nil {
				return db.Classify(err, "insert patient")
			}
		case doctor != nil:
			doctor.ID = uuid.New()
			doctor.ProfileID = p.ID
			_, err = q.Exec(ctx, `
				INSERT INTO doctors (id, profile_id, specialization, consultation_fee)
				VALUES ($1, $2, $3, $4)`,
				doctor.ID, doctor.ProfileID, doctor.Specialization, doctor.ConsultationFee)
			if err != nil {
				return db.Classify(err, "insert doctor")
			}
		}
		return nil
	})
}

// =========== Specialization Repository ===========

type specializationRepoPG struct{ pool *pgxpool.Pool }

func NewSpecializationRepoPG(pool *pgxpool.Pool) SpecializationRepository {
	return &specializationRepoPG{pool: pool}
}

func (r *specializationRepoPG) ForProfile(ctx context.Context, profileID uuid.UUID) (Specializations, error) {
	var s Specializations
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT (SELECT id FROM patients WHERE profile_id = $1),
		       (SELECT id FROM doctors WHERE profile_id = $1)`, profileID).Scan(&s.PatientID, &s.DoctorID)
	if err != nil {
		return Specializations{}, db.Classify(err, "get specializations")
	}
	return s, nil
}

func (r *specializationRepoPG) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, profile_id, to_char(date_of_birth, 'YYYY-MM-DD'), gender, blood_type, allergies
		FROM patients WHERE id = $1`, id).
		Scan(&p.ID, &p.ProfileID, &p.DateOfBirth, &p.Gender, &p.BloodType, &p.Allergies)
	if err != nil {
		return nil, db.Classify(err, "get patient")
	}
	return &p, nil
}

func (r *specializationRepoPG) ListDoctors(ctx context.Context) ([]*DoctorListing, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT d.id, d.profile_id, d.specialization, d.consultation_fee::float8, p.full_name
		FROM doctors d
		JOIN profiles p ON p.id = d.profile_id
		ORDER BY p.full_name`)
	if err != nil {
		return nil, db.Classify(err, "list doctors")
	}
	defer rows.Close()

	var out []*DoctorListing
	for rows.Next() {
		var d DoctorListing
		if err := rows.Scan(&d.ID, &d.ProfileID, &d.Specialization, &d.ConsultationFee, &d.FullName); err != nil {
			return nil, db.Classify(err, "scan doctor")
		}
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err, "list doctors")
	}
	return out, nil
}
