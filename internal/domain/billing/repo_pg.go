package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthhub/portal/internal/platform/apperr"
	"github.com/healthhub/portal/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const billCols = `b.id, b.patient_id, (b.amount * 100)::bigint, b.description, b.payment_status,
	to_char(b.due_date, 'YYYY-MM-DD'), b.paid_date, b.created_at`

func scanBill(row pgx.Row, b *Bill, extra ...any) error {
	var status string
	dest := append([]any{&b.ID, &b.PatientID, &b.Amount, &b.Description, &status, &b.DueDate, &b.PaidDate, &b.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	st, err := ParseStoredStatus(status)
	if err != nil {
		return err
	}
	b.StoredStatus = st
	b.Status = st
	return b.CheckConsistent()
}

func (r *repoPG) Create(ctx context.Context, b *Bill) error {
	b.ID = uuid.New()
	b.StoredStatus = StatusPending
	b.Status = StatusPending
	b.PaidDate = nil
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO bills (id, patient_id, amount, description, payment_status, due_date)
		VALUES ($1, $2, $3::numeric / 100, $4, $5, $6::date)
		RETURNING created_at`,
		b.ID, b.PatientID, int64(b.Amount), b.Description, string(b.StoredStatus), b.DueDate).Scan(&b.CreatedAt)
	if err != nil {
		return db.Classify(err, "insert bill")
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	var b Bill
	if err := scanBill(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+billCols+` FROM bills b WHERE b.id = $1`, id), &b); err != nil {
		return nil, db.Classify(err, "get bill")
	}
	return &b, nil
}

func (r *repoPG) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	q := db.Conn(ctx, r.pool)
	tag, err := q.Exec(ctx, `
		UPDATE bills SET payment_status = 'paid', paid_date = $2
		WHERE id = $1 AND payment_status = 'pending'`, id, paidAt)
	if err != nil {
		return db.Classify(err, "mark bill paid")
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := db.Scalar[string](ctx, q, `SELECT payment_status FROM bills WHERE id = $1`, id); err != nil {
		return db.Classify(err, "get bill status")
	}
	return apperr.Validation("bill %s is already paid", id)
}

func (r *repoPG) ListAll(ctx context.Context) ([]*AdminBill, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+billCols+`, p.full_name
		FROM bills b
		JOIN patients pt ON pt.id = b.patient_id
		JOIN profiles p ON p.id = pt.profile_id
		ORDER BY b.created_at DESC`)
	if err != nil {
		return nil, db.Classify(err, "list bills")
	}
	defer rows.Close()

	var out []*AdminBill
	for rows.Next() {
		var ab AdminBill
		if err := scanBill(rows, &ab.Bill, &ab.PatientName); err != nil {
			return nil, db.Classify(err, "scan bill")
		}
		out = append(out, &ab)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err, "list bills")
	}
	return out, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Bill, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+billCols+` FROM bills b WHERE b.patient_id = $1 ORDER BY b.created_at DESC`, patientID)
	if err != nil {
		return nil, db.Classify(err, "list patient bills")
	}
	defer rows.Close()

	var out []*Bill
	for rows.Next() {
		var b Bill
		if err := scanBill(rows, &b); err != nil {
			return nil, db.Classify(err, "scan bill")
		}
		out = append(out, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err, "list patient bills")
	}
	return out, nil
}
