package scheduling

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/syntura/hms/internal/platform/apperr"
	"github.com/syntura/hms/internal/platform/db"
	"github.com/syntura/hms/pkg/dates"
	"github.com/syntura/hms/pkg/optional"
)

type Service struct {
	tx           db.Transactor
	appointments AppointmentRepository
	profiles     Profiles
	logger       zerolog.Logger
}

func NewService(tx db.Transactor, appointments AppointmentRepository, profiles Profiles, logger zerolog.Logger) *Service {
	return &Service{tx: tx, appointments: appointments, profiles: profiles, logger: logger}
}

func invalidStatus() error {
	return apperr.Invalid("Invalid status. Must be one of: scheduled, completed, cancelled")
}

// -- Admin --

func (s *Service) List(ctx context.Context, status string) ([]*Appointment, error) {
	return s.appointments.List(ctx, Filter{Status: status})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Appointment, error) {
	if patch.Status.Present() && !ValidStatus(patch.Status.V) {
		return nil, invalidStatus()
	}
	return s.save(ctx, "update appointment", func(ctx context.Context) (*Appointment, error) {
		return s.appointments.GetByID(ctx, id)
	}, patch)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.appointments.Delete(ctx, id)
	})
	return apperr.Wrap("delete appointment", err)
}

// save loads an appointment, applies patch and writes it back in one
// transaction, returning the reloaded row.
func (s *Service) save(ctx context.Context, action string, load func(context.Context) (*Appointment, error), patch Patch) (*Appointment, error) {
	var a *Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if a, err = load(ctx); err != nil {
			return err
		}
		patch.apply(a)
		if err := s.appointments.Update(ctx, a); err != nil {
			return err
		}
		a, err = s.appointments.GetByID(ctx, a.ID)
		return err
	})
	if err != nil {
		return nil, apperr.Wrap(action, err)
	}
	return a, nil
}

// -- Doctor --

// DoctorAppointments lists the caller's appointments by date then time.
func (s *Service) DoctorAppointments(ctx context.Context, userID uuid.UUID, status string, date dates.Date) ([]*Appointment, error) {
	d, err := s.profiles.DoctorForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.appointments.List(ctx, Filter{DoctorID: d.ID, Status: status, Date: date, Ascending: true})
}

func (s *Service) DoctorAppointment(ctx context.Context, userID, id uuid.UUID) (*Appointment, error) {
	d, err := s.profiles.DoctorForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.ownedByDoctor(ctx, d.ID, id)
}

func (s *Service) ownedByDoctor(ctx context.Context, doctorID, id uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.DoctorID != doctorID {
		return nil, apperr.NotFound("Appointment")
	}
	return a, nil
}

// SetStatus lets the treating doctor move an appointment to any status.
func (s *Service) SetStatus(ctx context.Context, userID, id uuid.UUID, req StatusUpdate) (*Appointment, error) {
	d, err := s.profiles.DoctorForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Status == nil {
		return nil, apperr.Invalid("Status is required")
	}
	if !ValidStatus(*req.Status) {
		return nil, invalidStatus()
	}

	patch := Patch{Status: optional.Of(*req.Status)}
	return s.save(ctx, "update appointment", func(ctx context.Context) (*Appointment, error) {
		return s.ownedByDoctor(ctx, d.ID, id)
	}, patch)
}

// -- Patient --

func (s *Service) PatientAppointments(ctx context.Context, userID uuid.UUID, status string) ([]*Appointment, error) {
	p, err := s.profiles.PatientForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.appointments.List(ctx, Filter{PatientID: p.ID, Status: status})
}

// Book creates a scheduled appointment for the caller.
func (s *Service) Book(ctx context.Context, userID uuid.UUID, req BookRequest) (*Appointment, error) {
	p, err := s.profiles.PatientForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, apperr.NotFound("Doctor")
	}
	date, err := dates.Parse(req.AppointmentDate)
	if err != nil {
		return nil, apperr.Invalid("%s", err.Error())
	}

	var a *Appointment
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.profiles.GetDoctor(ctx, doctorID); err != nil {
			return err
		}
		a = &Appointment{
			PatientID:       p.ID,
			DoctorID:        doctorID,
			AppointmentDate: date,
			AppointmentTime: req.AppointmentTime,
			Reason:          req.Reason,
			Status:          StatusScheduled,
		}
		if err := s.appointments.Create(ctx, a); err != nil {
			return err
		}
		a, err = s.appointments.GetByID(ctx, a.ID)
		return err
	})
	if err != nil {
		return nil, apperr.Wrap("book appointment", err)
	}

	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("doctor_id", doctorID.String()).
		Str("date", date.String()).
		Msg("appointment booked")
	return a, nil
}

func (s *Service) ownedByPatient(ctx context.Context, patientID, id uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.PatientID != patientID {
		return nil, apperr.NotFound("Appointment")
	}
	return a, nil
}

// Reschedule moves the caller's appointment. Status changes are ignored.
func (s *Service) Reschedule(ctx context.Context, userID, id uuid.UUID, patch Patch) (*Appointment, error) {
	p, err := s.profiles.PatientForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	patch.Status = optional.Value[string]{}
	return s.save(ctx, "reschedule appointment", func(ctx context.Context) (*Appointment, error) {
		return s.ownedByPatient(ctx, p.ID, id)
	}, patch)
}

// Cancel marks the caller's appointment cancelled. Cancelling twice is
// allowed and leaves the status unchanged.
func (s *Service) Cancel(ctx context.Context, userID, id uuid.UUID) error {
	p, err := s.profiles.PatientForUser(ctx, userID)
	if err != nil {
		return err
	}
	patch := Patch{Status: optional.Of(StatusCancelled)}
	_, err = s.save(ctx, "cancel appointment", func(ctx context.Context) (*Appointment, error) {
		return s.ownedByPatient(ctx, p.ID, id)
	}, patch)
	return err
}
