package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/healthhub/portal/internal/platform/apperr"
)

const DateLayout = "2006-01-02"

// Status is a bill's payment status. Only pending and paid are stored;
// overdue is derived from the due date when a bill is read.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

func ParseStoredStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusPaid:
		return st, nil
	default:
		return "", apperr.FatalData("unknown payment status %q", s)
	}
}

// Bill is serialised with the effective status as payment_status, so
// clients see overdue. stored_status is the persisted pending or paid value.
type Bill struct {
	ID           uuid.UUID  `json:"id"`
	PatientID    uuid.UUID  `json:"patient_id"`
	Amount       Cents      `json:"amount"`
	Description  *string    `json:"description,omitempty"`
	Status       Status     `json:"payment_status"`
	StoredStatus Status     `json:"stored_status"`
	DueDate      *string    `json:"due_date,omitempty"`
	PaidDate     *time.Time `json:"paid_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// EffectiveStatus is overdue for a pending bill whose due date is before
// today, otherwise the stored status.
func (b *Bill) EffectiveStatus(today string) Status {
	if b.StoredStatus == StatusPending && b.DueDate != nil && *b.DueDate < today {
		return StatusOverdue
	}
	return b.StoredStatus
}

// Derive fills Status for presentation.
func (b *Bill) Derive(today string) {
	b.Status = b.EffectiveStatus(today)
}

// CheckConsistent enforces that paid_date is set exactly when the bill is
// paid.
func (b *Bill) CheckConsistent() error {
	if (b.StoredStatus == StatusPaid) != (b.PaidDate != nil) {
		return apperr.FatalData("bill %s: status %s with paid_date set=%v", b.ID, b.StoredStatus, b.PaidDate != nil)
	}
	return nil
}

// AdminBill is a row of the admin billing list.
type AdminBill struct {
	Bill
	PatientName string `json:"patient_name"`
}

// CreateRequest is the admin's new-bill form.
type CreateRequest struct {
	PatientID   string  `json:"patient_id"`
	Amount      Cents   `json:"amount"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
}

// MaxAmount is the largest amount bills.amount NUMERIC(12,2) can hold.
const MaxAmount Cents = 999999999999

func (r *CreateRequest) Validate() (uuid.UUID, error) {
	r.PatientID = strings.TrimSpace(r.PatientID)
	if r.PatientID == "" {
		return uuid.Nil, apperr.Validation("patient_id is required")
	}
	patientID, err := uuid.Parse(r.PatientID)
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid patient_id")
	}
	if r.Amount <= 0 {
		return uuid.Nil, apperr.Validation("amount must be greater than zero")
	}
	if r.Amount > MaxAmount {
		return uuid.Nil, apperr.Validation("amount must not exceed %s", MaxAmount)
	}
	if r.Description != nil {
		d := strings.TrimSpace(*r.Description)
		if d == "" {
			r.Description = nil
		} else {
			r.Description = &d
		}
	}
	if r.DueDate != nil {
		d := strings.TrimSpace(*r.DueDate)
		if d == "" {
			r.DueDate = nil
		} else if _, err := time.Parse(DateLayout, d); err != nil {
			return uuid.Nil, apperr.Validation("due_date must be YYYY-MM-DD")
		} else {
			r.DueDate = &d
		}
	}
	return patientID, nil
}

// Totals aggregates a bill set by effective status. Pending, paid and
// overdue partition the set, so the three sums add up to TotalRevenue.
type Totals struct {
	TotalRevenue Cents `json:"total_revenue"`
	PaidTotal    Cents `json:"paid_total"`
	PendingTotal Cents `json:"pending_total"`
	OverdueTotal Cents `json:"overdue_total"`
	Count        int   `json:"count"`
	PaidCount    int   `json:"paid_count"`
	PendingCount int   `json:"pending_count"`
	OverdueCount int   `json:"overdue_count"`
}

func Summarize(bills []*Bill, today string) Totals {
	var t Totals
	for _, b := range bills {
		t.TotalRevenue += b.Amount
		t.Count++
		switch b.EffectiveStatus(today) {
		case StatusPaid:
			t.PaidTotal += b.Amount
			t.PaidCount++
		case StatusOverdue:
			t.OverdueTotal += b.Amount
			t.OverdueCount++
		default:
			t.PendingTotal += b.Amount
			t.PendingCount++
		}
	}
	return t
}
