package identity

import (
	"context"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	// GetByEmail returns nil, nil when no user has the address.
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteDependents removes the doctor's appointments and treatments.
	DeleteDependents(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f DoctorFilter) ([]*Doctor, error)
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteDependents removes the patient's appointments and treatments.
	DeleteDependents(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, search string) ([]*Patient, error)
	// ListByDoctor returns the distinct patients holding at least one
	// appointment with the doctor.
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Patient, error)
}
