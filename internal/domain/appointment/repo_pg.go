package appointment

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthhub/portal/internal/platform/apperr"
	"github.com/healthhub/portal/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const apptCols = `a.id, a.patient_id, a.doctor_id, to_char(a.appointment_date, 'YYYY-MM-DD'),
	to_char(a.appointment_time, 'HH24:MI'), a.reason, a.status, a.created_at`

func scanAppointment(row pgx.Row, a *Appointment, extra ...any) error {
	var status string
	dest := append([]any{&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time, &a.Reason, &status, &a.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	st, err := ParseStatus(status)
	if err != nil {
		return err
	}
	a.Status = st
	return nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.Status = StatusScheduled
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, appointment_date, appointment_time, reason, status)
		VALUES ($1, $2, $3, $4::date, $5::time, $6, $7)
		RETURNING created_at`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.Time, a.Reason, string(a.Status)).Scan(&a.CreatedAt)
	if err != nil {
		if db.ConstraintName(err) == "appointments_slot_uniq" {
			return apperr.Conflict("doctor already has an appointment at %s %s", a.Date, a.Time)
		}
		return db.Classify(err, "insert appointment")
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var a Appointment
	err := scanAppointment(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments a WHERE a.id = $1`, id), &a)
	if err != nil {
		return nil, db.Classify(err, "get appointment")
	}
	return &a, nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	q := db.Conn(ctx, r.pool)
	tag, err := q.Exec(ctx,
		`UPDATE appointments SET status = $3 WHERE id = $1 AND status = $2`,
		id, string(from), string(to))
	if err != nil {
		return db.Classify(err, "update appointment status")
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	current, err := db.Scalar[string](ctx, q, `SELECT status FROM appointments WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err, "get appointment status")
	}
	return CheckTransition(Status(current), to)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*PatientAppointment, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+apptCols+`, p.full_name, d.specialization
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		JOIN profiles p ON p.id = d.profile_id
		WHERE a.patient_id = $1
		ORDER BY a.appointment_date, a.appointment_time`, patientID)
	if err != nil {
		return nil, db.Classify(err, "list patient appointments")
	}
	defer rows.Close()

	var out []*PatientAppointment
	for rows.Next() {
		var pa PatientAppointment
		if err := scanAppointment(rows, &pa.Appointment, &pa.DoctorName, &pa.Specialization); err != nil {
			return nil, db.Classify(err, "scan appointment")
		}
		out = append(out, &pa)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err, "list patient appointments")
	}
	return out, nil
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*DoctorAppointment, error) {
	return r.queryDoctorAppointments(ctx, `
		SELECT `+apptCols+`, p.full_name, p.phone
		FROM appointments a
		JOIN patients pt ON pt.id = a.patient_id
		JOIN profiles p ON p.id = pt.profile_id
		WHERE a.doctor_id = $1
		ORDER BY a.appointment_date, a.appointment_time`, doctorID)
}

func (r *repoPG) ListScheduledOn(ctx context.Context, date string) ([]*DoctorAppointment, error) {
	return r.queryDoctorAppointments(ctx, `
		SELECT `+apptCols+`, p.full_name, p.phone
		FROM appointments a
		JOIN patients pt ON pt.id = a.patient_id
		JOIN profiles p ON p.id = pt.profile_id
		WHERE a.appointment_date = $1::date AND a.status = 'scheduled'
		ORDER BY a.appointment_time`, date)
}

func (r *repoPG) queryDoctorAppointments(ctx context.Context, sql string, args ...any) ([]*DoctorAppointment, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, db.Classify(err, "list doctor appointments")
	}
	defer rows.Close()

	var out []*DoctorAppointment
	for rows.Next() {
		var da DoctorAppointment
		if err := scanAppointment(rows, &da.Appointment, &da.PatientName, &da.PatientPhone); err != nil {
			return nil, db.Classify(err, "scan appointment")
		}
		out = append(out, &da)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err, "list doctor appointments")
	}
	return out, nil
}

func (r *repoPG) ListDoctorPatients(ctx context.Context, doctorID uuid.UUID) ([]*DoctorPatient, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT a.patient_id, p.full_name, p.phone, COUNT(*),
		       to_char(MAX(a.appointment_date), 'YYYY-MM-DD')
		FROM appointments a
		JOIN patients pt ON pt.id = a.patient_id
		JOIN profiles p ON p.id = pt.profile_id
		WHERE a.doctor_id = $1
		GROUP BY a.patient_id, p.full_name, p.phone
		ORDER BY p.full_name`, doctorID)
	if err != nil {
		return nil, db.Classify(err, "list doctor patients")
	}
	defer rows.Close()

	var out []*DoctorPatient
	for rows.Next() {
		var dp DoctorPatient
		if err := rows.Scan(&dp.PatientID, &dp.FullName, &dp.Phone, &dp.Appointments, &dp.LastVisit); err != nil {
			return nil, db.Classify(err, "scan doctor patient")
		}
		out = append(out, &dp)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err, "list doctor patients")
	}
	return out, nil
}

func (r *repoPG) Exists(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	ok, err := db.Scalar[bool](ctx, db.Conn(ctx, r.pool),
		`SELECT EXISTS (SELECT 1 FROM appointments WHERE doctor_id = $1 AND patient_id = $2)`,
		doctorID, patientID)
	if err != nil {
		return false, db.Classify(err, "check appointment")
	}
	return ok, nil
}
