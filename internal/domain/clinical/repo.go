package clinical

import (
	"context"

	"github.com/google/uuid"
)

type TreatmentRepository interface {
	Create(ctx context.Context, t *Treatment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Treatment, error)
	Update(ctx context.Context, t *Treatment) error
	// ListByPatient returns a patient's treatments, newest visit first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Treatment, error)
	// HasCareRelationship reports whether the doctor has an appointment or a
	// treatment with the patient.
	HasCareRelationship(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error)
}
