package records

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthhub/portal/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) Create(ctx context.Context, rec *HealthRecord) error {
	rec.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO health_records (id, patient_id, doctor_id, diagnosis, symptoms, treatment_plan, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING record_date`,
		rec.ID, rec.PatientID, rec.DoctorID, rec.Diagnosis, rec.Symptoms, rec.TreatmentPlan, rec.Notes).
		Scan(&rec.RecordDate)
	if err != nil {
		return db.Classify(err, "insert health record")
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*PatientRecord, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT h.id, h.patient_id, h.doctor_id, h.diagnosis, h.symptoms, h.treatment_plan, h.notes,
		       h.record_date, p.full_name, d.specialization
		FROM health_records h
		JOIN doctors d ON d.id = h.doctor_id
		JOIN profiles p ON p.id = d.profile_id
		WHERE h.patient_id = $1
		ORDER BY h.record_date DESC`, patientID)
	if err != nil {
		return nil, db.Classify(err, "list health records")
	}
	defer rows.Close()

	var out []*PatientRecord
	for rows.Next() {
		var pr PatientRecord
		if err := rows.Scan(&pr.ID, &pr.PatientID, &pr.DoctorID, &pr.Diagnosis, &pr.Symptoms,
			&pr.TreatmentPlan, &pr.Notes, &pr.RecordDate, &pr.DoctorName, &pr.Specialization); err != nil {
			return nil, db.Classify(err, "scan health record")
		}
		out = append(out, &pr)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err, "list health records")
	}
	return out, nil
}

func (r *repoPG) CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	n, err := db.Scalar[int](ctx, db.Conn(ctx, r.pool),
		`SELECT COUNT(*) FROM health_records WHERE patient_id = $1`, patientID)
	if err != nil {
		return 0, db.Classify(err, "count health records")
	}
	return n, nil
}
