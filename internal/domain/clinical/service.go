package clinical

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/syntura/hms/internal/platform/apperr"
	"github.com/syntura/hms/internal/platform/db"
	"github.com/syntura/hms/pkg/dates"
)

type Service struct {
	tx         db.Transactor
	treatments TreatmentRepository
	profiles   Profiles
	logger     zerolog.Logger
}

func NewService(tx db.Transactor, treatments TreatmentRepository, profiles Profiles, logger zerolog.Logger) *Service {
	return &Service{tx: tx, treatments: treatments, profiles: profiles, logger: logger}
}

// Create records a visit by the calling doctor.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*Treatment, error) {
	d, err := s.profiles.DoctorForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperr.NotFound("Patient")
	}
	visit, err := dates.Parse(req.VisitDate)
	if err != nil {
		return nil, apperr.Invalid("%s", err.Error())
	}

	var t *Treatment
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.profiles.GetPatient(ctx, patientID); err != nil {
			return err
		}
		t = &Treatment{
			PatientID:    patientID,
			DoctorID:     d.ID,
			VisitDate:    visit,
			Symptoms:     req.Symptoms,
			Diagnosis:    req.Diagnosis,
			Prescription: req.Prescription,
			FollowUpDate: req.FollowUpDate,
			Notes:        req.Notes,
		}
		if err := s.treatments.Create(ctx, t); err != nil {
			return err
		}
		t, err = s.treatments.GetByID(ctx, t.ID)
		return err
	})
	if err != nil {
		return nil, apperr.Wrap("create treatment", err)
	}

	s.logger.Info().
		Str("treatment_id", t.ID.String()).
		Str("patient_id", patientID.String()).
		Msg("treatment recorded")
	return t, nil
}

// Update patches a treatment. Only the doctor who recorded it may change it.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, patch Patch) (*Treatment, error) {
	d, err := s.profiles.DoctorForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if patch.VisitDate.Set && patch.VisitDate.V.IsZero() {
		return nil, apperr.Required("visit_date")
	}

	var t *Treatment
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if t, err = s.treatments.GetByID(ctx, id); err != nil {
			return err
		}
		if t.DoctorID != d.ID {
			return apperr.NotFound("Treatment record")
		}
		patch.apply(t)
		if err := s.treatments.Update(ctx, t); err != nil {
			return err
		}
		t, err = s.treatments.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, apperr.Wrap("update treatment", err)
	}
	return t, nil
}

// PatientHistoryForDoctor returns a patient's history to a doctor who has
// seen or booked them. Anyone else is told the patient does not exist.
func (s *Service) PatientHistoryForDoctor(ctx context.Context, userID, patientID uuid.UUID) ([]*Treatment, error) {
	d, err := s.profiles.DoctorForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.profiles.GetPatient(ctx, patientID); err != nil {
		return nil, err
	}
	ok, err := s.treatments.HasCareRelationship(ctx, d.ID, patientID)
	if err != nil {
		return nil, apperr.Wrap("load patient history", err)
	}
	if !ok {
		return nil, apperr.NotFound("Patient")
	}
	return s.History(ctx, patientID)
}

// MyHistory returns the calling patient's treatments.
func (s *Service) MyHistory(ctx context.Context, userID uuid.UUID) ([]*Treatment, error) {
	p, err := s.profiles.PatientForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.History(ctx, p.ID)
}

// History returns a patient's treatments, newest visit first.
func (s *Service) History(ctx context.Context, patientID uuid.UUID) ([]*Treatment, error) {
	items, err := s.treatments.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperr.Wrap("load patient history", err)
	}
	return items, nil
}
