// Package reminder publishes next-day appointment reminders on a schedule.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/healthhub/portal/internal/domain/appointment"
	"github.com/healthhub/portal/internal/platform/events"
)

// Source lists the scheduled appointments on a date.
type Source interface {
	ScheduledOn(ctx context.Context, date string) ([]*appointment.DoctorAppointment, error)
}

type Job struct {
	source  Source
	pub     events.Publisher
	logger  zerolog.Logger
	timeout time.Duration
	now     func() time.Time
	loc     *time.Location
}

func NewJob(source Source, pub events.Publisher, logger zerolog.Logger) *Job {
	return &Job{
		source:  source,
		pub:     pub,
		logger:  logger.With().Str("component", "reminder").Logger(),
		timeout: time.Minute,
		now:     time.Now,
		loc:     time.UTC,
	}
}

func (j *Job) WithClock(now func() time.Time, loc *time.Location) *Job {
	if now != nil {
		j.now = now
	}
	if loc != nil {
		j.loc = loc
	}
	return j
}

// Tomorrow is the reminder target date in the portal's timezone.
func (j *Job) Tomorrow() string {
	return j.now().In(j.loc).AddDate(0, 0, 1).Format(appointment.DateLayout)
}

// RunOnce publishes one reminder per scheduled appointment dated tomorrow
// and returns how many were sent. A failed publish is logged and skipped.
func (j *Job) RunOnce(ctx context.Context) (int, error) {
	date := j.Tomorrow()
	appts, err := j.source.ScheduledOn(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("list appointments on %s: %w", date, err)
	}
	sent := 0
	for _, a := range appts {
		if a.Status != appointment.StatusScheduled {
			continue
		}
		evt := events.Event{
			Type:       events.AppointmentReminder,
			ID:         a.ID.String(),
			PatientID:  a.PatientID.String(),
			DoctorID:   a.DoctorID.String(),
			OccurredAt: j.now().UTC(),
			Data: map[string]string{
				"date":         a.Date,
				"time":         a.Time,
				"patient_name": a.PatientName,
			},
		}
		if err := j.pub.Publish(ctx, evt); err != nil {
			j.logger.Warn().Err(err).Str("appointment_id", evt.ID).Msg("reminder not published")
			continue
		}
		sent++
	}
	j.logger.Info().Str("date", date).Int("scheduled", len(appts)).Int("sent", sent).Msg("reminders published")
	return sent, nil
}

func (j *Job) run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	if _, err := j.RunOnce(ctx); err != nil {
		j.logger.Error().Err(err).Msg("reminder run failed")
	}
}

// Schedule registers the job on a new cron scheduler evaluated in the
// job's timezone. The caller starts and stops the returned scheduler.
func (j *Job) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(j.loc))
	if _, err := c.AddFunc(spec, j.run); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	return c, nil
}
