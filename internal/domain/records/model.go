package records

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/healthhub/portal/internal/platform/apperr"
)

// HealthRecord is an append-only clinical note written by a doctor.
type HealthRecord struct {
	ID            uuid.UUID `json:"id"`
	PatientID     uuid.UUID `json:"patient_id"`
	DoctorID      uuid.UUID `json:"doctor_id"`
	Diagnosis     string    `json:"diagnosis"`
	Symptoms      *string   `json:"symptoms,omitempty"`
	TreatmentPlan *string   `json:"treatment_plan,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	RecordDate    time.Time `json:"record_date"`
}

// PatientRecord is a row of the patient's record list.
type PatientRecord struct {
	HealthRecord
	DoctorName     string `json:"doctor_name"`
	Specialization string `json:"specialization"`
}

type AddRequest struct {
	PatientID     string  `json:"patient_id"`
	Diagnosis     string  `json:"diagnosis"`
	Symptoms      *string `json:"symptoms,omitempty"`
	TreatmentPlan *string `json:"treatment_plan,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

func (r *AddRequest) Validate() (uuid.UUID, error) {
	r.Diagnosis = strings.TrimSpace(r.Diagnosis)
	if strings.TrimSpace(r.PatientID) == "" {
		return uuid.Nil, apperr.Validation("patient_id is required")
	}
	patientID, err := uuid.Parse(strings.TrimSpace(r.PatientID))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid patient_id")
	}
	if r.Diagnosis == "" {
		return uuid.Nil, apperr.Validation("diagnosis is required")
	}
	r.Symptoms = trimOptional(r.Symptoms)
	r.TreatmentPlan = trimOptional(r.TreatmentPlan)
	r.Notes = trimOptional(r.Notes)
	return patientID, nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
