package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// LogPublisher writes events to the log. It is the development default.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "events").Logger()}
}

func (p *LogPublisher) Publish(_ context.Context, evt Event) error {
	p.logger.Info().
		Str("event_type", string(evt.Type)).
		Str("event_id", evt.ID).
		Str("patient_id", evt.PatientID).
		Str("doctor_id", evt.DoctorID).
		Time("occurred_at", evt.OccurredAt).
		Msg("event")
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Memory keeps published events in order. Tests and the CLI's dry runs use it.
type Memory struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (m *Memory) Publish(_ context.Context, evt Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.events = append(m.events, evt)
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// Types returns the published event types in order.
func (m *Memory) Types() []Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Type, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}
