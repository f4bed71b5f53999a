package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/syntura/hms/internal/domain/identity"
	"github.com/syntura/hms/pkg/dates"
	"github.com/syntura/hms/pkg/optional"
)

const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ValidStatus reports whether s is an appointment status.
func ValidStatus(s string) bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment maps to the appointments table. The patient and doctor names
// and the department (the doctor's specialization) are joined on read.
type Appointment struct {
	ID              uuid.UUID  `json:"id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	PatientName     string     `json:"patient_name"`
	DoctorID        uuid.UUID  `json:"doctor_id"`
	DoctorName      string     `json:"doctor_name"`
	Department      string     `json:"department"`
	AppointmentDate dates.Date `json:"appointment_date"`
	AppointmentTime string     `json:"appointment_time"`
	Reason          *string    `json:"reason"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Filter narrows an appointment listing. Zero values match everything.
// Listings are ordered by date descending unless Ascending is set, in which
// case they run by date then time.
type Filter struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Status    string
	Date      dates.Date
	Ascending bool
}

type BookRequest struct {
	DoctorID        string  `json:"doctor_id" validate:"required"`
	AppointmentDate string  `json:"appointment_date" validate:"required"`
	AppointmentTime string  `json:"appointment_time" validate:"required"`
	Reason          *string `json:"reason"`
}

// Patch is a partial update of an appointment. Patients may only move the
// date, time and reason; admins may also set the status.
type Patch struct {
	Status          optional.Value[string]     `json:"status"`
	AppointmentDate optional.Value[dates.Date] `json:"appointment_date"`
	AppointmentTime optional.Value[string]     `json:"appointment_time"`
	Reason          optional.Value[string]     `json:"reason"`
}

func (p Patch) apply(a *Appointment) {
	p.Status.Apply(&a.Status)
	p.AppointmentDate.Apply(&a.AppointmentDate)
	p.AppointmentTime.Apply(&a.AppointmentTime)
	p.Reason.ApplyPtr(&a.Reason)
}

type StatusUpdate struct {
	Status *string `json:"status"`
}

// Profiles resolves callers to their role profiles.
type Profiles interface {
	DoctorForUser(ctx context.Context, userID uuid.UUID) (*identity.Doctor, error)
	PatientForUser(ctx context.Context, userID uuid.UUID) (*identity.Patient, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*identity.Doctor, error)
}
