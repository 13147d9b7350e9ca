// Package events publishes record lifecycle events (booked, completed,
// cancelled, paid, reminders) to a broker. Publishing is best effort: a
// failed publish never undoes the transition that produced it.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

type Type string

const (
	AppointmentBooked    Type = "appointment.booked"
	AppointmentCompleted Type = "appointment.completed"
	AppointmentCancelled Type = "appointment.cancelled"
	AppointmentReminder  Type = "appointment.reminder"
	BillCreated          Type = "bill.created"
	BillPaid             Type = "bill.paid"
	RecordAdded          Type = "record.added"
)

// Event is the JSON document written to the broker.
type Event struct {
	Type       Type              `json:"type"`
	ID         string            `json:"id"`
	PatientID  string            `json:"patient_id"`
	DoctorID   string            `json:"doctor_id,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	Data       map[string]string `json:"data,omitempty"`
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Emit publishes evt and logs a warning on failure instead of returning it.
func Emit(ctx context.Context, pub Publisher, logger zerolog.Logger, evt Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, evt); err != nil {
		logger.Warn().Err(err).
			Str("event_type", string(evt.Type)).
			Str("event_id", evt.ID).
			Msg("failed to publish event")
	}
}
