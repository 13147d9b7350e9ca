// Package dashboard computes the per-role dashboard figures. Each figure is
// a pure projection over records fetched fresh for every view.
package dashboard

import (
	"time"

	"github.com/healthhub/portal/internal/domain/appointment"
	"github.com/healthhub/portal/internal/domain/billing"
	"github.com/healthhub/portal/internal/domain/identity"
)

type PatientStats struct {
	ScheduledAppointments int           `json:"scheduled_appointments"`
	HealthRecords         int           `json:"health_records"`
	PendingBills          billing.Cents `json:"pending_bills"`
	OverdueBills          billing.Cents `json:"overdue_bills"`
}

type DoctorStats struct {
	TodayAppointments int `json:"today_appointments"`
	DistinctPatients  int `json:"distinct_patients"`
	Scheduled         int `json:"scheduled"`
	Completed         int `json:"completed"`
}

type AdminStats struct {
	Users identity.RoleCounts `json:"users"`
	Bills billing.Totals      `json:"bills"`
}

// Snapshot is one computed dashboard. Exactly one of the stats pointers is
// set, matching Role.
type Snapshot struct {
	Role        identity.Role `json:"role"`
	Patient     *PatientStats `json:"patient,omitempty"`
	Doctor      *DoctorStats  `json:"doctor,omitempty"`
	Admin       *AdminStats   `json:"admin,omitempty"`
	GeneratedAt time.Time     `json:"generated_at"`
}

func ProjectPatient(appts []*appointment.PatientAppointment, recordCount int, bills []*billing.Bill, today string) PatientStats {
	st := PatientStats{HealthRecords: recordCount}
	for _, a := range appts {
		if a.Status == appointment.StatusScheduled {
			st.ScheduledAppointments++
		}
	}
	tot := billing.Summarize(bills, today)
	st.PendingBills = tot.PendingTotal
	st.OverdueBills = tot.OverdueTotal
	return st
}

// ProjectDoctor counts today's appointments in any status and the distinct
// patients across all of the doctor's appointments.
func ProjectDoctor(appts []*appointment.DoctorAppointment, today string) DoctorStats {
	st := DoctorStats{DistinctPatients: appointment.DistinctPatients(appts)}
	for _, a := range appts {
		if a.Date == today {
			st.TodayAppointments++
		}
		switch a.Status {
		case appointment.StatusScheduled:
			st.Scheduled++
		case appointment.StatusCompleted:
			st.Completed++
		}
	}
	return st
}

func ProjectAdmin(profiles []*identity.Profile, bills []*billing.AdminBill, today string) AdminStats {
	plain := make([]*billing.Bill, len(bills))
	for i, b := range bills {
		plain[i] = &b.Bill
	}
	return AdminStats{
		Users: identity.CountRoles(profiles),
		Bills: billing.Summarize(plain, today),
	}
}
