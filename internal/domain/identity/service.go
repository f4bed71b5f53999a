package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/syntura/hms/internal/platform/apperr"
	"github.com/syntura/hms/internal/platform/auth"
	"github.com/syntura/hms/internal/platform/cache"
	"github.com/syntura/hms/internal/platform/db"
	"github.com/syntura/hms/pkg/dates"
	"github.com/syntura/hms/pkg/optional"
)

type Service struct {
	tx          db.Transactor
	users       UserRepository
	doctors     DoctorRepository
	patients    PatientRepository
	tokens      *auth.TokenIssuer
	revocations *auth.TokenRevocationStore
	cache       cache.Cache
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

type Option func(*Service)

// WithCache serves unfiltered doctor listings from c.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithRevocations makes Logout revoke the presented token.
func WithRevocations(store *auth.TokenRevocationStore) Option {
	return func(s *Service) { s.revocations = store }
}

func NewService(tx db.Transactor, users UserRepository, doctors DoctorRepository, patients PatientRepository,
	tokens *auth.TokenIssuer, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		tx:       tx,
		users:    users,
		doctors:  doctors,
		patients: patients,
		tokens:   tokens,
		cache:    cache.Noop{},
		cacheTTL: 5 * time.Minute,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// -- Session --

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if req.Email == "" || req.Password == "" {
		return nil, apperr.Invalid("Email and password are required")
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if u == nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, apperr.Unauthenticated("Invalid email or password")
	}

	pair, err := s.tokens.IssuePair(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	profile, err := s.profileOf(ctx, u)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Message:      "Login successful",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         UserView{ID: u.ID, Email: u.Email, Role: u.Role, Profile: profile},
	}, nil
}

// Register creates a patient user and its profile in one transaction.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*UserView, error) {
	var u *User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		u, err = s.createUser(ctx, req.Email, req.Password, auth.RolePatient)
		if err != nil {
			return err
		}
		p := &Patient{
			UserID:           u.ID,
			Name:             req.Name,
			Age:              derefInt(req.Age),
			Gender:           req.Gender,
			Phone:            req.Phone,
			RegistrationDate: dates.Of(s.now().UTC()),
		}
		return s.patients.Create(ctx, p)
	})
	if err != nil {
		return nil, apperr.Wrap("register", err)
	}

	s.logger.Info().Str("user_id", u.ID.String()).Msg("patient registered")
	return &UserView{ID: u.ID, Email: u.Email, Role: u.Role}, nil
}

// Refresh issues a new access token for the subject of a refresh token.
func (s *Service) Refresh(ctx context.Context, userID uuid.UUID) (string, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.tokens.Issue(u.ID, u.Role, auth.TokenAccess)
}

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*UserView, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profileOf(ctx, u)
	if err != nil {
		return nil, err
	}
	created := u.CreatedAt
	return &UserView{ID: u.ID, Email: u.Email, Role: u.Role, CreatedAt: &created, Profile: profile}, nil
}

// Logout revokes the token presented on ctx until it expires.
func (s *Service) Logout(ctx context.Context) error {
	if s.revocations == nil {
		return nil
	}
	jti := auth.TokenIDFromContext(ctx)
	if jti == "" {
		return apperr.Unauthenticated("invalid token")
	}
	exp, ok := auth.TokenExpiryFromContext(ctx)
	if !ok {
		exp = s.now().Add(24 * time.Hour)
	}
	userID := auth.UserIDFromContext(ctx).String()
	s.revocations.RevokeForUser(jti, userID, exp)
	s.logger.Info().
		Str("user_id", userID).
		Int("revoked_tokens", s.revocations.RevokedForUser(userID)).
		Msg("user logged out")
	return nil
}

func (s *Service) profileOf(ctx context.Context, u *User) (interface{}, error) {
	switch u.Role {
	case auth.RoleDoctor:
		d, err := s.doctors.GetByUserID(ctx, u.ID)
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return d, err
	case auth.RolePatient:
		p, err := s.patients.GetByUserID(ctx, u.ID)
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return p, err
	}
	return nil, nil
}

func (s *Service) createUser(ctx context.Context, email, password, role string) (*User, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("Email already registered")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &User{Email: email, PasswordHash: hash, Role: role}
	if err := s.users.Create(ctx, u); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return nil, apperr.Conflict("Email already registered")
		}
		return nil, err
	}
	return u, nil
}

// changeEmail moves the user to a new address unless another user holds it.
func (s *Service) changeEmail(ctx context.Context, userID uuid.UUID, current, next string) error {
	if next == current {
		return nil
	}
	other, err := s.users.GetByEmail(ctx, next)
	if err != nil {
		return err
	}
	if other != nil {
		return apperr.Conflict("Email already in use")
	}
	if err := s.users.UpdateEmail(ctx, userID, next); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return apperr.Conflict("Email already in use")
		}
		return err
	}
	return nil
}

// -- Doctors --

func (s *Service) ListDoctors(ctx context.Context, f DoctorFilter) ([]*Doctor, error) {
	if !f.empty() {
		return s.doctors.List(ctx, f)
	}
	return cache.GetOrLoad(ctx, s.cache, s.logger, cache.KeyDoctorsAll, s.cacheTTL,
		func(ctx context.Context) ([]*Doctor, error) {
			return s.doctors.List(ctx, DoctorFilter{})
		})
}

// CreateDoctor creates the doctor's user and profile in one transaction.
func (s *Service) CreateDoctor(ctx context.Context, req CreateDoctorRequest) (*Doctor, error) {
	var d *Doctor
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.createUser(ctx, req.Email, req.Password, auth.RoleDoctor)
		if err != nil {
			return err
		}
		d = &Doctor{
			UserID:         u.ID,
			Name:           req.Name,
			Email:          u.Email,
			Phone:          req.Phone,
			Specialization: req.Specialization,
			Qualification:  req.Qualification,
			Experience:     derefInt(req.Experience),
		}
		return s.doctors.Create(ctx, d)
	})
	if err != nil {
		return nil, apperr.Wrap("create doctor", err)
	}
	s.invalidateDoctors(ctx)
	return d, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

// UpdateDoctor applies an admin patch, including an email change.
func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, patch DoctorPatch) (*Doctor, error) {
	var d *Doctor
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if d, err = s.doctors.GetByID(ctx, id); err != nil {
			return err
		}
		return s.saveDoctor(ctx, d, patch)
	})
	if err != nil {
		return nil, apperr.Wrap("update doctor", err)
	}
	s.invalidateDoctors(ctx)
	return d, nil
}

func (s *Service) saveDoctor(ctx context.Context, d *Doctor, patch DoctorPatch) error {
	patch.apply(d)
	if patch.Email.Present() {
		if err := s.changeEmail(ctx, d.UserID, d.Email, patch.Email.V); err != nil {
			return err
		}
		d.Email = patch.Email.V
	}
	return s.doctors.Update(ctx, d)
}

// DeleteDoctor removes the doctor's appointments and treatments, then the
// profile, then the owning user, in one transaction.
func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		d, err := s.doctors.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.doctors.DeleteDependents(ctx, d.ID); err != nil {
			return err
		}
		if err := s.doctors.Delete(ctx, d.ID); err != nil {
			return err
		}
		return s.users.Delete(ctx, d.UserID)
	})
	if err != nil {
		return apperr.Wrap("delete doctor", err)
	}
	s.invalidateDoctors(ctx)
	return nil
}

func (s *Service) invalidateDoctors(ctx context.Context) {
	s.cache.Delete(ctx, cache.KeyDoctorsAll)
}

// DoctorForUser resolves the caller's doctor profile.
func (s *Service) DoctorForUser(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByUserID(ctx, userID)
}

// UpdateDoctorProfile applies a self-service patch. The email stays with
// the admin endpoint.
func (s *Service) UpdateDoctorProfile(ctx context.Context, userID uuid.UUID, patch DoctorPatch) (*Doctor, error) {
	patch.Email = optional.Value[string]{}
	var d *Doctor
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if d, err = s.doctors.GetByUserID(ctx, userID); err != nil {
			return err
		}
		return s.saveDoctor(ctx, d, patch)
	})
	if err != nil {
		return nil, apperr.Wrap("update profile", err)
	}
	s.invalidateDoctors(ctx)
	return d, nil
}

// -- Patients --

func (s *Service) ListPatients(ctx context.Context, search string) ([]*Patient, error) {
	return s.patients.List(ctx, search)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, patch PatientPatch) (*Patient, error) {
	var p *Patient
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = s.patients.GetByID(ctx, id); err != nil {
			return err
		}
		return s.savePatient(ctx, p, patch)
	})
	if err != nil {
		return nil, apperr.Wrap("update patient", err)
	}
	return p, nil
}

func (s *Service) savePatient(ctx context.Context, p *Patient, patch PatientPatch) error {
	patch.apply(p)
	if patch.Email.Present() {
		if err := s.changeEmail(ctx, p.UserID, p.Email, patch.Email.V); err != nil {
			return err
		}
		p.Email = patch.Email.V
	}
	return s.patients.Update(ctx, p)
}

// DeletePatient removes the patient's appointments and treatments, then the
// profile, then the owning user, in one transaction.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.patients.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.patients.DeleteDependents(ctx, p.ID); err != nil {
			return err
		}
		if err := s.patients.Delete(ctx, p.ID); err != nil {
			return err
		}
		return s.users.Delete(ctx, p.UserID)
	})
	return apperr.Wrap("delete patient", err)
}

// PatientForUser resolves the caller's patient profile.
func (s *Service) PatientForUser(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	return s.patients.GetByUserID(ctx, userID)
}

func (s *Service) UpdatePatientProfile(ctx context.Context, userID uuid.UUID, patch PatientPatch) (*Patient, error) {
	patch.Email = optional.Value[string]{}
	patch.RegistrationDate = optional.Value[dates.Date]{}
	var p *Patient
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = s.patients.GetByUserID(ctx, userID); err != nil {
			return err
		}
		return s.savePatient(ctx, p, patch)
	})
	if err != nil {
		return nil, apperr.Wrap("update profile", err)
	}
	return p, nil
}

// PatientsOfDoctor lists the patients with an appointment with the caller.
func (s *Service) PatientsOfDoctor(ctx context.Context, userID uuid.UUID) ([]*Patient, error) {
	d, err := s.doctors.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.patients.ListByDoctor(ctx, d.ID)
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
