package appointment

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/healthhub/portal/internal/platform/apperr"
)

var allStatuses = []Status{StatusScheduled, StatusCompleted, StatusCancelled}

func TestStateMachine_TwoTerminalStates(t *testing.T) {
	var terminal []Status
	for _, s := range allStatuses {
		outgoing := 0
		for _, to := range allStatuses {
			if CanTransition(s, to) {
				outgoing++
			}
		}
		if outgoing == 0 {
			terminal = append(terminal, s)
		}
		if (outgoing == 0) != s.Terminal() {
			t.Errorf("%s: Terminal()=%v but has %d outgoing edges", s, s.Terminal(), outgoing)
		}
	}
	if len(terminal) != 2 {
		t.Errorf("expected exactly two terminal states, got %v", terminal)
	}
}

func TestStateMachine_NeverReturnsToScheduled(t *testing.T) {
	// Walk every path from scheduled; once it has been left it must not be
	// reachable again.
	var walk func(s Status, left bool, depth int)
	walk = func(s Status, left bool, depth int) {
		if depth > len(allStatuses) {
			t.Fatalf("cycle detected at %s", s)
		}
		if left && s == StatusScheduled {
			t.Fatal("scheduled reached again after leaving it")
		}
		for _, to := range allStatuses {
			if CanTransition(s, to) {
				walk(to, true, depth+1)
			}
		}
	}
	walk(StatusScheduled, false, 0)
}

func TestCheckTransition(t *testing.T) {
	if err := CheckTransition(StatusScheduled, StatusCompleted); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := CheckTransition(StatusCompleted, StatusCancelled)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err.Error() != "invalid transition completed -> cancelled" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range allStatuses {
		if got, err := ParseStatus(string(s)); err != nil || got != s {
			t.Errorf("ParseStatus(%s) = %s, %v", s, got, err)
		}
	}
	if _, err := ParseStatus("no-show"); !errors.Is(err, apperr.ErrFatalData) {
		t.Errorf("expected fatal data error, got %v", err)
	}
}

func TestBookRequest_Validate(t *testing.T) {
	doctorID := uuid.New().String()
	tests := []struct {
		name    string
		req     BookRequest
		wantErr bool
	}{
		{"valid", BookRequest{DoctorID: doctorID, Date: "2025-06-01", Time: "10:00", Reason: "checkup"}, false},
		{"today", BookRequest{DoctorID: doctorID, Date: "2025-05-20", Time: "10:00", Reason: "checkup"}, false},
		{"missing doctor", BookRequest{Date: "2025-06-01", Time: "10:00", Reason: "checkup"}, true},
		{"blank reason", BookRequest{DoctorID: doctorID, Date: "2025-06-01", Time: "10:00", Reason: "   "}, true},
		{"bad doctor id", BookRequest{DoctorID: "dr-1", Date: "2025-06-01", Time: "10:00", Reason: "x"}, true},
		{"bad date", BookRequest{DoctorID: doctorID, Date: "06/01/2025", Time: "10:00", Reason: "x"}, true},
		{"bad time", BookRequest{DoctorID: doctorID, Date: "2025-06-01", Time: "10am", Reason: "x"}, true},
		{"past date", BookRequest{DoctorID: doctorID, Date: "2025-05-19", Time: "10:00", Reason: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.Validate("2025-05-20")
			if tt.wantErr && !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestBookRequest_ValidateNormalisesTime(t *testing.T) {
	req := BookRequest{DoctorID: uuid.New().String(), Date: " 2025-06-01 ", Time: "9:00", Reason: "checkup"}
	if _, err := req.Validate("2025-05-20"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Time != "09:00" {
		t.Errorf("expected time 09:00, got %q", req.Time)
	}
	if req.Date != "2025-06-01" {
		t.Errorf("expected date 2025-06-01, got %q", req.Date)
	}
}

func TestDistinctPatients(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()
	appts := []*DoctorAppointment{
		{Appointment: Appointment{PatientID: p1}},
		{Appointment: Appointment{PatientID: p1}},
		{Appointment: Appointment{PatientID: p2}},
	}
	if got := DistinctPatients(appts); got != 2 {
		t.Errorf("expected 2 distinct patients, got %d", got)
	}
}
