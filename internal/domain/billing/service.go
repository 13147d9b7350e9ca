package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthhub/portal/internal/domain/identity"
	"github.com/healthhub/portal/internal/platform/apperr"
	"github.com/healthhub/portal/internal/platform/events"
)

type Service struct {
	repo   Repository
	events events.Publisher
	logger zerolog.Logger
	now    func() time.Time
	loc    *time.Location
}

func NewService(repo Repository, pub events.Publisher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, events: pub, logger: logger, now: time.Now, loc: time.UTC}
}

func (s *Service) WithClock(now func() time.Time, loc *time.Location) *Service {
	if now != nil {
		s.now = now
	}
	if loc != nil {
		s.loc = loc
	}
	return s
}

func (s *Service) Today() string {
	return s.now().In(s.loc).Format(DateLayout)
}

func requireAdmin(actor *identity.Actor) error {
	if actor == nil || actor.Profile.Role != identity.RoleAdmin {
		return apperr.New(apperr.KindRoleForbidden, "billing changes are restricted to admins")
	}
	return nil
}

// Create issues a pending bill. An unknown patient is rejected by the
// store's foreign key.
func (s *Service) Create(ctx context.Context, actor *identity.Actor, req CreateRequest) (*Bill, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	patientID, err := req.Validate()
	if err != nil {
		return nil, err
	}

	b := &Bill{
		PatientID:   patientID,
		Amount:      req.Amount,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	b.Derive(s.Today())

	s.logger.Info().Str("bill_id", b.ID.String()).Str("amount", b.Amount.String()).Msg("bill created")
	s.emit(ctx, events.BillCreated, b)
	return b, nil
}

// MarkPaid moves a pending or overdue bill to paid with paidDate set to
// the call time. Paying a paid bill again is a validation error.
func (s *Service) MarkPaid(ctx context.Context, actor *identity.Actor, id uuid.UUID) (*Bill, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.StoredStatus == StatusPaid {
		return nil, apperr.Validation("bill %s is already paid", id)
	}

	paidAt := s.now().UTC()
	if err := s.repo.MarkPaid(ctx, id, paidAt); err != nil {
		return nil, err
	}
	b.StoredStatus = StatusPaid
	b.PaidDate = &paidAt
	b.Derive(s.Today())

	s.logger.Info().Str("bill_id", b.ID.String()).Str("amount", b.Amount.String()).Msg("bill paid")
	s.emit(ctx, events.BillPaid, b)
	return b, nil
}

func (s *Service) emit(ctx context.Context, t events.Type, b *Bill) {
	data := map[string]string{
		"amount":         b.Amount.String(),
		"payment_status": string(b.Status),
	}
	if b.DueDate != nil {
		data["due_date"] = *b.DueDate
	}
	events.Emit(ctx, s.events, s.logger, events.Event{
		Type:       t,
		ID:         b.ID.String(),
		PatientID:  b.PatientID.String(),
		OccurredAt: s.now().UTC(),
		Data:       data,
	})
}

// ListAll returns every bill, newest first, with derived status.
func (s *Service) ListAll(ctx context.Context) ([]*AdminBill, error) {
	bills, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	today := s.Today()
	for _, b := range bills {
		b.Derive(today)
	}
	return bills, nil
}

func (s *Service) ListForPatient(ctx context.Context, actor *identity.Actor) ([]*Bill, error) {
	patientID, err := actor.RequirePatient()
	if err != nil {
		return nil, err
	}
	return s.ListByPatient(ctx, patientID)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Bill, error) {
	bills, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	today := s.Today()
	for _, b := range bills {
		b.Derive(today)
	}
	return bills, nil
}

// Totals recomputes the global aggregation on every call.
func (s *Service) Totals(ctx context.Context) (Totals, error) {
	bills, err := s.repo.ListAll(ctx)
	if err != nil {
		return Totals{}, err
	}
	plain := make([]*Bill, len(bills))
	for i, b := range bills {
		plain[i] = &b.Bill
	}
	return Summarize(plain, s.Today()), nil
}
