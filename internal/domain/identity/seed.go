package identity

import (
	"context"

	"github.com/syntura/hms/internal/platform/apperr"
	"github.com/syntura/hms/internal/platform/auth"
)

const samplePassword = "doctor123"

var sampleDoctors = []CreateDoctorRequest{
	{Email: "rajesh.kumar@syntura.com", Name: "Dr. Rajesh Kumar", Phone: "+91-667-1234-5678", Specialization: "Cardiology", Qualification: "MD", Experience: intPtr(15)},
	{Email: "priya.sharma@syntura.com", Name: "Dr. Priya Sharma", Phone: "+91-666-2345-6789", Specialization: "Neurology", Qualification: "DM", Experience: intPtr(12)},
	{Email: "anil.patel@syntura.com", Name: "Dr. Anil Patel", Phone: "+91-667-3456-7890", Specialization: "Pediatrics", Qualification: "MBBS", Experience: intPtr(8)},
}

var samplePatients = []RegisterRequest{
	{Email: "deepika.singh@email.com", Password: "patient123", Name: "Deepika Singh", Age: intPtr(45), Gender: "Female", Phone: "+91-667-4567-8901"},
	{Email: "arjun.verma@email.com", Password: "patient123", Name: "Arjun Verma", Age: intPtr(32), Gender: "Male", Phone: "+91-666-5678-9012"},
}

// EnsureAdmin creates the admin user unless the address is already taken.
// It reports whether a user was created.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	created := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		_, err := s.createUser(ctx, email, password, auth.RoleAdmin)
		if apperr.Is(err, apperr.KindConflict) {
			return nil
		}
		created = err == nil
		return err
	})
	return created, apperr.Wrap("seed admin", err)
}

// SeedSamples creates the sample doctors and patients that do not exist
// yet and returns how many accounts were added.
func (s *Service) SeedSamples(ctx context.Context) (int, error) {
	added := 0
	for _, req := range sampleDoctors {
		req.Password = samplePassword
		_, err := s.CreateDoctor(ctx, req)
		switch {
		case err == nil:
			added++
		case !apperr.Is(err, apperr.KindConflict):
			return added, err
		}
	}
	for _, req := range samplePatients {
		_, err := s.Register(ctx, req)
		switch {
		case err == nil:
			added++
		case !apperr.Is(err, apperr.KindConflict):
			return added, err
		}
	}
	return added, nil
}

func intPtr(v int) *int { return &v }
