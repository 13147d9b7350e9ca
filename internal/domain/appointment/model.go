package appointment

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/healthhub/portal/internal/platform/apperr"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return st, nil
	default:
		return "", apperr.FatalData("unknown appointment status %q", s)
	}
}

// Terminal states have no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// transitions is the whole state machine. scheduled is only entered by
// booking, never by a transition.
var transitions = map[Status][]Status{
	StatusScheduled: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns a validation error for an invalid edge.
func CheckTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return apperr.Validation("invalid transition %s -> %s", from, to)
	}
	return nil
}

// Appointment dates and times are wall-clock strings in the portal's
// timezone: YYYY-MM-DD and HH:MM.
type Appointment struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	Date      string    `json:"appointment_date"`
	Time      string    `json:"appointment_time"`
	Reason    string    `json:"reason"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// PatientAppointment is a row of the patient's appointment list.
type PatientAppointment struct {
	Appointment
	DoctorName     string `json:"doctor_name"`
	Specialization string `json:"specialization"`
}

// DoctorAppointment is a row of the doctor's schedule.
type DoctorAppointment struct {
	Appointment
	PatientName  string  `json:"patient_name"`
	PatientPhone *string `json:"patient_phone,omitempty"`
}

// DoctorPatient is a distinct patient seen by a doctor.
type DoctorPatient struct {
	PatientID    uuid.UUID `json:"patient_id"`
	FullName     string    `json:"full_name"`
	Phone        *string   `json:"phone,omitempty"`
	Appointments int       `json:"appointments"`
	LastVisit    string    `json:"last_visit"`
}

// BookRequest is the patient's booking form.
type BookRequest struct {
	DoctorID string `json:"doctor_id"`
	Date     string `json:"appointment_date"`
	Time     string `json:"appointment_time"`
	Reason   string `json:"reason"`
}

// Validate checks the form without touching the store. today is the
// current date in the portal's timezone.
func (r *BookRequest) Validate(today string) (uuid.UUID, error) {
	r.DoctorID = strings.TrimSpace(r.DoctorID)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.Reason = strings.TrimSpace(r.Reason)

	var missing []string
	if r.DoctorID == "" {
		missing = append(missing, "doctor_id")
	}
	if r.Date == "" {
		missing = append(missing, "appointment_date")
	}
	if r.Time == "" {
		missing = append(missing, "appointment_time")
	}
	if r.Reason == "" {
		missing = append(missing, "reason")
	}
	if len(missing) > 0 {
		return uuid.Nil, apperr.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}

	doctorID, err := uuid.Parse(r.DoctorID)
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid doctor_id")
	}
	date, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return uuid.Nil, apperr.Validation("appointment_date must be YYYY-MM-DD")
	}
	clock, err := time.Parse(TimeLayout, r.Time)
	if err != nil {
		return uuid.Nil, apperr.Validation("appointment_time must be HH:MM")
	}
	// time.Parse accepts an unpadded hour; store the canonical form.
	r.Date = date.Format(DateLayout)
	r.Time = clock.Format(TimeLayout)
	// Both are zero-padded ISO strings, so lexical order is date order.
	if r.Date < today {
		return uuid.Nil, apperr.Validation("appointment_date %s is in the past", r.Date)
	}
	return doctorID, nil
}

// DistinctPatients counts the distinct patient ids among appts.
func DistinctPatients[T interface{ GetPatientID() uuid.UUID }](appts []T) int {
	seen := make(map[uuid.UUID]struct{}, len(appts))
	for _, a := range appts {
		seen[a.GetPatientID()] = struct{}{}
	}
	return len(seen)
}

func (a *Appointment) GetPatientID() uuid.UUID { return a.PatientID }
