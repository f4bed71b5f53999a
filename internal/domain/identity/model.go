package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/syntura/hms/pkg/dates"
	"github.com/syntura/hms/pkg/optional"
)

// User maps to the users table. Every doctor and patient profile is owned by
// exactly one user; admins have no profile.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Doctor maps to the doctors table. Email is read from the owning user.
type Doctor struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Specialization string    `json:"specialization"`
	Qualification  string    `json:"qualification"`
	Experience     int       `json:"experience"`
	CreatedAt      time.Time `json:"created_at"`
}

// Patient maps to the patients table. Email is read from the owning user.
type Patient struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Age              int        `json:"age"`
	Gender           string     `json:"gender"`
	Phone            string     `json:"phone"`
	RegistrationDate dates.Date `json:"registration_date"`
	CreatedAt        time.Time  `json:"created_at"`
}

// DoctorFilter narrows a doctor listing. Search matches name or
// specialization case-insensitively; Specialization is an exact match.
type DoctorFilter struct {
	Search         string
	Specialization string
}

func (f DoctorFilter) empty() bool {
	return f.Search == "" && f.Specialization == ""
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest creates a patient account. Field order is the order in
// which missing fields are reported.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Age      *int   `json:"age" validate:"required,gte=0"`
	Gender   string `json:"gender" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
}

type CreateDoctorRequest struct {
	Email          string `json:"email" validate:"required"`
	Password       string `json:"password" validate:"required"`
	Name           string `json:"name" validate:"required"`
	Phone          string `json:"phone" validate:"required"`
	Specialization string `json:"specialization" validate:"required"`
	Qualification  string `json:"qualification" validate:"required"`
	Experience     *int   `json:"experience" validate:"required,gte=0"`
}

// DoctorPatch is a partial update; only fields present in the request body
// are written. Email is honoured for admin updates only.
type DoctorPatch struct {
	Name           optional.Value[string] `json:"name"`
	Phone          optional.Value[string] `json:"phone"`
	Specialization optional.Value[string] `json:"specialization"`
	Qualification  optional.Value[string] `json:"qualification"`
	Experience     optional.Value[int]    `json:"experience"`
	Email          optional.Value[string] `json:"email"`
}

func (p DoctorPatch) apply(d *Doctor) {
	p.Name.Apply(&d.Name)
	p.Phone.Apply(&d.Phone)
	p.Specialization.Apply(&d.Specialization)
	p.Qualification.Apply(&d.Qualification)
	p.Experience.Apply(&d.Experience)
}

// PatientPatch is a partial update. Email and RegistrationDate are honoured
// for admin updates only.
type PatientPatch struct {
	Name             optional.Value[string]     `json:"name"`
	Age              optional.Value[int]        `json:"age"`
	Gender           optional.Value[string]     `json:"gender"`
	Phone            optional.Value[string]     `json:"phone"`
	RegistrationDate optional.Value[dates.Date] `json:"registration_date"`
	Email            optional.Value[string]     `json:"email"`
}

func (p PatientPatch) apply(pt *Patient) {
	p.Name.Apply(&pt.Name)
	p.Age.Apply(&pt.Age)
	p.Gender.Apply(&pt.Gender)
	p.Phone.Apply(&pt.Phone)
	p.RegistrationDate.Apply(&pt.RegistrationDate)
}

// UserView is the public shape of a user with its role profile attached.
type UserView struct {
	ID        uuid.UUID   `json:"id"`
	Email     string      `json:"email"`
	Role      string      `json:"role"`
	CreatedAt *time.Time  `json:"created_at,omitempty"`
	Profile   interface{} `json:"profile"`
}

type LoginResult struct {
	Message      string   `json:"message"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         UserView `json:"user"`
}
