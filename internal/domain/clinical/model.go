package clinical

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/syntura/hms/internal/domain/identity"
	"github.com/syntura/hms/pkg/dates"
	"github.com/syntura/hms/pkg/optional"
)

// Treatment maps to the treatments table. A zero FollowUpDate is stored as
// NULL and rendered as null.
type Treatment struct {
	ID           uuid.UUID  `json:"id"`
	PatientID    uuid.UUID  `json:"patient_id"`
	PatientName  string     `json:"patient_name"`
	DoctorID     uuid.UUID  `json:"doctor_id"`
	DoctorName   string     `json:"doctor_name"`
	Department   string     `json:"department"`
	VisitDate    dates.Date `json:"visit_date"`
	Symptoms     string     `json:"symptoms"`
	Diagnosis    string     `json:"diagnosis"`
	Prescription string     `json:"prescription"`
	FollowUpDate dates.Date `json:"follow_up_date"`
	Notes        *string    `json:"notes"`
	CreatedAt    time.Time  `json:"created_at"`
}

type CreateRequest struct {
	PatientID    string     `json:"patient_id" validate:"required"`
	VisitDate    string     `json:"visit_date" validate:"required"`
	Symptoms     string     `json:"symptoms" validate:"required"`
	Diagnosis    string     `json:"diagnosis" validate:"required"`
	Prescription string     `json:"prescription" validate:"required"`
	FollowUpDate dates.Date `json:"follow_up_date"`
	Notes        *string    `json:"notes"`
}

// Patch is a partial update of a treatment. A null or empty follow_up_date
// clears it.
type Patch struct {
	VisitDate    optional.Value[dates.Date] `json:"visit_date"`
	Symptoms     optional.Value[string]     `json:"symptoms"`
	Diagnosis    optional.Value[string]     `json:"diagnosis"`
	Prescription optional.Value[string]     `json:"prescription"`
	FollowUpDate optional.Value[dates.Date] `json:"follow_up_date"`
	Notes        optional.Value[string]     `json:"notes"`
}

func (p Patch) apply(t *Treatment) {
	p.VisitDate.Apply(&t.VisitDate)
	p.Symptoms.Apply(&t.Symptoms)
	p.Diagnosis.Apply(&t.Diagnosis)
	p.Prescription.Apply(&t.Prescription)
	if p.FollowUpDate.Set {
		t.FollowUpDate = p.FollowUpDate.V
	}
	p.Notes.ApplyPtr(&t.Notes)
}

// Profiles resolves callers to their role profiles.
type Profiles interface {
	DoctorForUser(ctx context.Context, userID uuid.UUID) (*identity.Doctor, error)
	PatientForUser(ctx context.Context, userID uuid.UUID) (*identity.Patient, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*identity.Patient, error)
}
