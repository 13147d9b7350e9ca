package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/healthhub/portal/internal/domain/appointment"
	"github.com/healthhub/portal/internal/domain/billing"
	"github.com/healthhub/portal/internal/domain/identity"
	"github.com/healthhub/portal/internal/platform/apperr"
)

type AppointmentSource interface {
	ListForPatient(ctx context.Context, actor *identity.Actor) ([]*appointment.PatientAppointment, error)
	ListForDoctor(ctx context.Context, actor *identity.Actor) ([]*appointment.DoctorAppointment, error)
}

type RecordSource interface {
	CountForPatient(ctx context.Context, patientID uuid.UUID) (int, error)
}

type BillSource interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*billing.Bill, error)
	ListAll(ctx context.Context) ([]*billing.AdminBill, error)
}

type ProfileSource interface {
	AllProfiles(ctx context.Context) ([]*identity.Profile, error)
}

// Aggregator fans the reads of one dashboard out concurrently and joins
// them before projecting. Any failed read fails the whole aggregation.
type Aggregator struct {
	appointments AppointmentSource
	records      RecordSource
	bills        BillSource
	profiles     ProfileSource
	now          func() time.Time
	loc          *time.Location
}

func NewAggregator(appts AppointmentSource, recs RecordSource, bills BillSource, profiles ProfileSource) *Aggregator {
	return &Aggregator{
		appointments: appts,
		records:      recs,
		bills:        bills,
		profiles:     profiles,
		now:          time.Now,
		loc:          time.UTC,
	}
}

func (a *Aggregator) WithClock(now func() time.Time, loc *time.Location) *Aggregator {
	if now != nil {
		a.now = now
	}
	if loc != nil {
		a.loc = loc
	}
	return a
}

func (a *Aggregator) today() string {
	return a.now().In(a.loc).Format(appointment.DateLayout)
}

// For computes the dashboard of the actor's role.
func (a *Aggregator) For(ctx context.Context, actor *identity.Actor) (Snapshot, error) {
	if actor == nil {
		return Snapshot{}, apperr.ErrAuthRequired
	}
	snap := Snapshot{Role: actor.Profile.Role}
	switch actor.Profile.Role {
	case identity.RolePatient:
		st, err := a.Patient(ctx, actor)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Patient = &st
	case identity.RoleDoctor:
		st, err := a.Doctor(ctx, actor)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Doctor = &st
	case identity.RoleAdmin:
		st, err := a.Admin(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Admin = &st
	default:
		return Snapshot{}, apperr.FatalData("no dashboard for role %q", actor.Profile.Role)
	}
	snap.GeneratedAt = a.now().UTC()
	return snap, nil
}

func (a *Aggregator) Patient(ctx context.Context, actor *identity.Actor) (PatientStats, error) {
	patientID, err := actor.RequirePatient()
	if err != nil {
		return PatientStats{}, err
	}

	var (
		appts []*appointment.PatientAppointment
		count int
		bills []*billing.Bill
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		appts, err = a.appointments.ListForPatient(gctx, actor)
		return wrap(err, "appointments")
	})
	g.Go(func() (err error) {
		count, err = a.records.CountForPatient(gctx, patientID)
		return wrap(err, "health records")
	})
	g.Go(func() (err error) {
		bills, err = a.bills.ListByPatient(gctx, patientID)
		return wrap(err, "bills")
	})
	if err := g.Wait(); err != nil {
		return PatientStats{}, err
	}
	return ProjectPatient(appts, count, bills, a.today()), nil
}

func (a *Aggregator) Doctor(ctx context.Context, actor *identity.Actor) (DoctorStats, error) {
	if _, err := actor.RequireDoctor(); err != nil {
		return DoctorStats{}, err
	}
	appts, err := a.appointments.ListForDoctor(ctx, actor)
	if err != nil {
		return DoctorStats{}, wrap(err, "appointments")
	}
	return ProjectDoctor(appts, a.today()), nil
}

func (a *Aggregator) Admin(ctx context.Context) (AdminStats, error) {
	var (
		profiles []*identity.Profile
		bills    []*billing.AdminBill
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		profiles, err = a.profiles.AllProfiles(gctx)
		return wrap(err, "profiles")
	})
	g.Go(func() (err error) {
		bills, err = a.bills.ListAll(gctx)
		return wrap(err, "bills")
	})
	if err := g.Wait(); err != nil {
		return AdminStats{}, err
	}
	return ProjectAdmin(profiles, bills, a.today()), nil
}

func wrap(err error, what string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("dashboard %s: %w", what, err)
}
