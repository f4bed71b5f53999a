package identity

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/syntura/hms/internal/platform/apperr"
	"github.com/syntura/hms/internal/platform/auth"
	"github.com/syntura/hms/internal/platform/cache"
	"github.com/syntura/hms/internal/platform/db"
	"github.com/syntura/hms/pkg/optional"
)

// -- Mock store shared by the repositories --

type mockStore struct {
	users    map[uuid.UUID]*User
	doctors  map[uuid.UUID]*Doctor
	patients map[uuid.UUID]*Patient
	// visits maps a doctor id to the patients holding appointments with it.
	visits     map[uuid.UUID][]uuid.UUID
	dependents []uuid.UUID
}

func newMockStore() *mockStore {
	return &mockStore{
		users:    make(map[uuid.UUID]*User),
		doctors:  make(map[uuid.UUID]*Doctor),
		patients: make(map[uuid.UUID]*Patient),
		visits:   make(map[uuid.UUID][]uuid.UUID),
	}
}

type mockUserRepo struct{ s *mockStore }

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	for _, existing := range m.s.users {
		if existing.Email == u.Email {
			return apperr.Conflict("duplicate key value violates unique constraint")
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	cp := *u
	m.s.users[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.s.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) UpdateEmail(_ context.Context, id uuid.UUID, email string) error {
	u, ok := m.s.users[id]
	if !ok {
		return apperr.NotFound("User")
	}
	u.Email = email
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.s.users, id)
	return nil
}

type mockDoctorRepo struct{ s *mockStore }

func (m *mockDoctorRepo) withEmail(d *Doctor) *Doctor {
	cp := *d
	if u, ok := m.s.users[d.UserID]; ok {
		cp.Email = u.Email
	}
	return &cp
}

func (m *mockDoctorRepo) Create(_ context.Context, d *Doctor) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	cp := *d
	m.s.doctors[d.ID] = &cp
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := m.s.doctors[id]
	if !ok {
		return nil, apperr.NotFound("Doctor")
	}
	return m.withEmail(d), nil
}

func (m *mockDoctorRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*Doctor, error) {
	for _, d := range m.s.doctors {
		if d.UserID == userID {
			return m.withEmail(d), nil
		}
	}
	return nil, apperr.NotFound("Doctor profile")
}

func (m *mockDoctorRepo) Update(_ context.Context, d *Doctor) error {
	cp := *d
	m.s.doctors[d.ID] = &cp
	return nil
}

func (m *mockDoctorRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.s.doctors, id)
	return nil
}

func (m *mockDoctorRepo) DeleteDependents(_ context.Context, id uuid.UUID) error {
	m.s.dependents = append(m.s.dependents, id)
	delete(m.s.visits, id)
	return nil
}

func (m *mockDoctorRepo) List(_ context.Context, f DoctorFilter) ([]*Doctor, error) {
	out := []*Doctor{}
	for _, d := range m.s.doctors {
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(d.Name), q) && !strings.Contains(strings.ToLower(d.Specialization), q) {
				continue
			}
		}
		if f.Specialization != "" && d.Specialization != f.Specialization {
			continue
		}
		out = append(out, m.withEmail(d))
	}
	return out, nil
}

type mockPatientRepo struct{ s *mockStore }

func (m *mockPatientRepo) withEmail(p *Patient) *Patient {
	cp := *p
	if u, ok := m.s.users[p.UserID]; ok {
		cp.Email = u.Email
	}
	return &cp
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	cp := *p
	m.s.patients[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.s.patients[id]
	if !ok {
		return nil, apperr.NotFound("Patient")
	}
	return m.withEmail(p), nil
}

func (m *mockPatientRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*Patient, error) {
	for _, p := range m.s.patients {
		if p.UserID == userID {
			return m.withEmail(p), nil
		}
	}
	return nil, apperr.NotFound("Patient profile")
}

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	cp := *p
	m.s.patients[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.s.patients, id)
	return nil
}

func (m *mockPatientRepo) DeleteDependents(_ context.Context, id uuid.UUID) error {
	m.s.dependents = append(m.s.dependents, id)
	return nil
}

func (m *mockPatientRepo) List(_ context.Context, search string) ([]*Patient, error) {
	out := []*Patient{}
	for _, p := range m.s.patients {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) && !strings.Contains(p.Phone, search) {
			continue
		}
		out = append(out, m.withEmail(p))
	}
	return out, nil
}

func (m *mockPatientRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*Patient, error) {
	out := []*Patient{}
	for _, id := range m.s.visits[doctorID] {
		if p, ok := m.s.patients[id]; ok {
			out = append(out, m.withEmail(p))
		}
	}
	return out, nil
}

// -- Helpers --

var testIssuer = auth.NewTokenIssuer("test-secret", time.Hour, 720*time.Hour)

func newTestService(opts ...Option) (*Service, *mockStore) {
	s := newMockStore()
	svc := NewService(db.NoopTransactor{}, &mockUserRepo{s}, &mockDoctorRepo{s}, &mockPatientRepo{s},
		testIssuer, zerolog.Nop(), opts...)
	return svc, s
}

func registerReq(email string) RegisterRequest {
	return RegisterRequest{Email: email, Password: "secret1", Name: "Pat", Age: intPtr(30), Gender: "Female", Phone: "555-0100"}
}

func doctorReq(email string) CreateDoctorRequest {
	return CreateDoctorRequest{
		Email: email, Password: "docpass", Name: "Dr. Rao", Phone: "555-0101",
		Specialization: "Cardiology", Qualification: "MD", Experience: intPtr(10),
	}
}

// -- Session Tests --

func TestService_RegisterThenLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, registerReq("p@x.com"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != auth.RolePatient {
		t.Errorf("expected patient role, got %s", user.Role)
	}

	res, err := svc.Login(ctx, LoginRequest{Email: "p@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := testIssuer.Parse(res.AccessToken, auth.TokenAccess)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != auth.RolePatient {
		t.Errorf("expected role claim patient, got %s", claims.Role)
	}
	if claims.Subject != user.ID.String() {
		t.Errorf("expected subject %s, got %s", user.ID, claims.Subject)
	}
	if _, err := testIssuer.Parse(res.RefreshToken, auth.TokenRefresh); err != nil {
		t.Errorf("expected valid refresh token: %v", err)
	}
	profile, ok := res.User.Profile.(*Patient)
	if !ok || profile.Name != "Pat" {
		t.Errorf("expected patient profile, got %#v", res.User.Profile)
	}
	if profile.RegistrationDate.IsZero() {
		t.Error("expected registration date to be set")
	}
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerReq("p@x.com")); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, registerReq("p@x.com"))
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err.Error() != "Email already registered" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestService_LoginFailures(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	svc.Register(ctx, registerReq("p@x.com"))

	_, err := svc.Login(ctx, LoginRequest{Email: "p@x.com"})
	if !apperr.Is(err, apperr.KindValidation) || err.Error() != "Email and password are required" {
		t.Errorf("expected missing field error, got %v", err)
	}

	_, err = svc.Login(ctx, LoginRequest{Email: "p@x.com", Password: "wrong"})
	if !apperr.Is(err, apperr.KindUnauthenticated) || err.Error() != "Invalid email or password" {
		t.Errorf("expected invalid credentials, got %v", err)
	}

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@x.com", Password: "secret1"})
	if !apperr.Is(err, apperr.KindUnauthenticated) {
		t.Errorf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestService_Refresh(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	user, _ := svc.Register(ctx, registerReq("p@x.com"))

	token, err := svc.Refresh(ctx, user.ID)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := testIssuer.Parse(token, auth.TokenAccess); err != nil {
		t.Errorf("expected access token: %v", err)
	}

	_, err = svc.Refresh(ctx, uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) || err.Error() != "User not found" {
		t.Errorf("expected User not found, got %v", err)
	}
}

func TestService_Me_AdminHasNoProfile(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.EnsureAdmin(ctx, "admin@x.com", "admin123"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	res, err := svc.Login(ctx, LoginRequest{Email: "admin@x.com", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	me, err := svc.Me(ctx, res.User.ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.Role != auth.RoleAdmin || me.Profile != nil {
		t.Errorf("expected admin without profile, got %+v", me)
	}
	if me.CreatedAt == nil {
		t.Error("expected created_at on /me")
	}
}

func TestService_Logout_RevokesToken(t *testing.T) {
	store := auth.NewTokenRevocationStore()
	defer store.Close()
	svc, _ := newTestService(WithRevocations(store))

	userID := uuid.New()
	ctx := auth.WithIdentity(context.Background(), userID, auth.RolePatient)
	ctx = context.WithValue(ctx, auth.TokenIDKey, "jti-1")
	ctx = context.WithValue(ctx, auth.TokenExpKey, time.Now().Add(time.Hour))

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !store.IsRevoked("jti-1") {
		t.Error("expected token to be revoked")
	}
	if store.RevokedForUser(userID.String()) != 1 {
		t.Error("expected revocation recorded for user")
	}
}

func TestService_Logout_LogsRevokedCount(t *testing.T) {
	store := auth.NewTokenRevocationStore()
	defer store.Close()
	var buf bytes.Buffer
	s := newMockStore()
	svc := NewService(db.NoopTransactor{}, &mockUserRepo{s}, &mockDoctorRepo{s}, &mockPatientRepo{s},
		testIssuer, zerolog.New(&buf), WithRevocations(store))

	userID := uuid.New()
	for _, jti := range []string{"jti-1", "jti-2"} {
		ctx := auth.WithIdentity(context.Background(), userID, auth.RolePatient)
		ctx = context.WithValue(ctx, auth.TokenIDKey, jti)
		if err := svc.Logout(ctx); err != nil {
			t.Fatalf("logout: %v", err)
		}
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	last := lines[len(lines)-1]
	if !strings.Contains(last, `"revoked_tokens":2`) || !strings.Contains(last, userID.String()) {
		t.Errorf("expected second logout to log two revoked tokens, got %s", last)
	}
}

func TestService_EnsureAdmin_Idempotent(t *testing.T) {
	svc, s := newTestService()
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "admin@x.com", "admin123")
	if err != nil || !created {
		t.Fatalf("expected admin created, got %v %v", created, err)
	}
	created, err = svc.EnsureAdmin(ctx, "admin@x.com", "admin123")
	if err != nil || created {
		t.Fatalf("expected second call to be a no-op, got %v %v", created, err)
	}
	if len(s.users) != 1 {
		t.Errorf("expected 1 user, got %d", len(s.users))
	}
}

func TestService_SeedSamples(t *testing.T) {
	svc, s := newTestService()
	ctx := context.Background()

	added, err := svc.SeedSamples(ctx)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if added != len(sampleDoctors)+len(samplePatients) {
		t.Errorf("expected all samples added, got %d", added)
	}
	added, err = svc.SeedSamples(ctx)
	if err != nil || added != 0 {
		t.Errorf("expected rerun to add nothing, got %d %v", added, err)
	}
	if len(s.doctors) != len(sampleDoctors) {
		t.Errorf("expected %d doctors, got %d", len(sampleDoctors), len(s.doctors))
	}
}

// -- Doctor Tests --

func TestService_CreateDoctor_Duplicate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	d, err := svc.CreateDoctor(ctx, doctorReq("d@x.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.Email != "d@x.com" || d.Experience != 10 {
		t.Errorf("unexpected doctor %+v", d)
	}

	_, err = svc.CreateDoctor(ctx, doctorReq("d@x.com"))
	if !apperr.Is(err, apperr.KindConflict) || err.Error() != "Email already registered" {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestService_DeleteDoctor_RemovesUser(t *testing.T) {
	svc, s := newTestService()
	ctx := context.Background()

	d, _ := svc.CreateDoctor(ctx, doctorReq("d@x.com"))
	if _, err := svc.Login(ctx, LoginRequest{Email: "d@x.com", Password: "docpass"}); err != nil {
		t.Fatalf("login before delete: %v", err)
	}

	if err := svc.DeleteDoctor(ctx, d.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := s.users[d.UserID]; ok {
		t.Error("expected owning user to be deleted")
	}
	if len(s.dependents) != 1 || s.dependents[0] != d.ID {
		t.Error("expected dependents to be removed first")
	}

	_, err := svc.Login(ctx, LoginRequest{Email: "d@x.com", Password: "docpass"})
	if !apperr.Is(err, apperr.KindUnauthenticated) {
		t.Errorf("expected login to fail after delete, got %v", err)
	}

	err = svc.DeleteDoctor(ctx, d.ID)
	if !apperr.Is(err, apperr.KindNotFound) || err.Error() != "Doctor not found" {
		t.Errorf("expected Doctor not found, got %v", err)
	}
}

func TestService_UpdateDoctor_PartialPatch(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	d, _ := svc.CreateDoctor(ctx, doctorReq("d@x.com"))

	updated, err := svc.UpdateDoctor(ctx, d.ID, DoctorPatch{Phone: optional.Of("555-9999")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Phone != "555-9999" {
		t.Errorf("expected phone updated, got %s", updated.Phone)
	}
	if updated.Name != "Dr. Rao" || updated.Specialization != "Cardiology" || updated.Experience != 10 {
		t.Errorf("expected untouched fields to stay, got %+v", updated)
	}
}

func TestService_UpdateDoctor_Email(t *testing.T) {
	svc, s := newTestService()
	ctx := context.Background()
	d, _ := svc.CreateDoctor(ctx, doctorReq("d@x.com"))
	svc.Register(ctx, registerReq("p@x.com"))

	_, err := svc.UpdateDoctor(ctx, d.ID, DoctorPatch{Email: optional.Of("p@x.com")})
	if !apperr.Is(err, apperr.KindConflict) || err.Error() != "Email already in use" {
		t.Fatalf("expected Email already in use, got %v", err)
	}

	updated, err := svc.UpdateDoctor(ctx, d.ID, DoctorPatch{Email: optional.Of("new@x.com")})
	if err != nil {
		t.Fatalf("update email: %v", err)
	}
	if updated.Email != "new@x.com" || s.users[d.UserID].Email != "new@x.com" {
		t.Error("expected user email to change")
	}

	// Same address is not a conflict with itself.
	if _, err := svc.UpdateDoctor(ctx, d.ID, DoctorPatch{Email: optional.Of("new@x.com")}); err != nil {
		t.Errorf("unexpected error re-setting own email: %v", err)
	}
}

func TestService_ListDoctors_Cache(t *testing.T) {
	mem := cache.NewMemory()
	defer mem.Close()
	svc, s := newTestService(WithCache(mem, time.Minute))
	ctx := context.Background()

	svc.CreateDoctor(ctx, doctorReq("d1@x.com"))
	first, err := svc.ListDoctors(ctx, DoctorFilter{})
	if err != nil || len(first) != 1 {
		t.Fatalf("expected 1 doctor, got %d %v", len(first), err)
	}
	if _, ok := mem.Get(ctx, cache.KeyDoctorsAll); !ok {
		t.Fatal("expected doctors:all to be cached")
	}

	// A row written behind the service's back is not visible until invalidation.
	userID := uuid.New()
	s.users[userID] = &User{ID: userID, Email: "ghost@x.com", Role: auth.RoleDoctor}
	ghost := uuid.New()
	s.doctors[ghost] = &Doctor{ID: ghost, UserID: userID, Name: "Ghost", Specialization: "Neurology"}
	cached, _ := svc.ListDoctors(ctx, DoctorFilter{})
	if len(cached) != 1 {
		t.Errorf("expected cached list of 1, got %d", len(cached))
	}

	// Filtered listings bypass the cache.
	filtered, _ := svc.ListDoctors(ctx, DoctorFilter{Specialization: "Neurology"})
	if len(filtered) != 1 || filtered[0].Name != "Ghost" {
		t.Errorf("expected filtered list to read through, got %+v", filtered)
	}

	svc.CreateDoctor(ctx, doctorReq("d2@x.com"))
	fresh, _ := svc.ListDoctors(ctx, DoctorFilter{})
	if len(fresh) != 3 {
		t.Errorf("expected invalidated list of 3, got %d", len(fresh))
	}
}

func TestService_DoctorProfile_NoProfile(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.DoctorForUser(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) || err.Error() != "Doctor profile not found" {
		t.Errorf("expected Doctor profile not found, got %v", err)
	}
	_, err = svc.PatientsOfDoctor(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestService_UpdateDoctorProfile_IgnoresEmail(t *testing.T) {
	svc, s := newTestService()
	ctx := context.Background()
	d, _ := svc.CreateDoctor(ctx, doctorReq("d@x.com"))

	updated, err := svc.UpdateDoctorProfile(ctx, d.UserID, DoctorPatch{
		Qualification:  optional.Of("DM"),
		Specialization: optional.Of("Neurology"),
		Email:          optional.Of("other@x.com"),
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Qualification != "DM" {
		t.Errorf("expected qualification updated, got %s", updated.Qualification)
	}
	if updated.Specialization != "Neurology" {
		t.Errorf("expected specialization updated, got %s", updated.Specialization)
	}
	if s.users[d.UserID].Email != "d@x.com" {
		t.Error("expected email unchanged by self-service update")
	}
}

func TestService_PatientsOfDoctor(t *testing.T) {
	svc, s := newTestService()
	ctx := context.Background()
	d, _ := svc.CreateDoctor(ctx, doctorReq("d@x.com"))
	svc.Register(ctx, registerReq("p1@x.com"))
	svc.Register(ctx, registerReq("p2@x.com"))

	var first uuid.UUID
	for id := range s.patients {
		first = id
		break
	}
	s.visits[d.ID] = []uuid.UUID{first}

	patients, err := svc.PatientsOfDoctor(ctx, d.UserID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(patients) != 1 || patients[0].ID != first {
		t.Errorf("expected only the visiting patient, got %+v", patients)
	}
}

// -- Patient Tests --

func TestService_UpdatePatient(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	user, _ := svc.Register(ctx, registerReq("p@x.com"))
	p, _ := svc.PatientForUser(ctx, user.ID)

	updated, err := svc.UpdatePatient(ctx, p.ID, PatientPatch{Age: optional.Of(31), Email: optional.Of("p2@x.com")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Age != 31 || updated.Email != "p2@x.com" || updated.Name != "Pat" {
		t.Errorf("unexpected patient %+v", updated)
	}

	_, err = svc.UpdatePatient(ctx, uuid.New(), PatientPatch{})
	if err == nil || err.Error() != "Patient not found" {
		t.Errorf("expected Patient not found, got %v", err)
	}
}

func TestService_DeletePatient(t *testing.T) {
	svc, s := newTestService()
	ctx := context.Background()
	user, _ := svc.Register(ctx, registerReq("p@x.com"))
	p, _ := svc.PatientForUser(ctx, user.ID)

	if err := svc.DeletePatient(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(s.users) != 0 || len(s.patients) != 0 {
		t.Error("expected patient and user removed")
	}
	if len(s.dependents) != 1 {
		t.Error("expected dependents removed")
	}
}

func TestService_UpdatePatientProfile_IgnoresAdminFields(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	user, _ := svc.Register(ctx, registerReq("p@x.com"))
	before, _ := svc.PatientForUser(ctx, user.ID)

	var patch PatientPatch
	patch.Phone = optional.Of("555-2222")
	patch.Email = optional.Of("x@x.com")
	patch.RegistrationDate.Set = true

	updated, err := svc.UpdatePatientProfile(ctx, user.ID, patch)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Phone != "555-2222" {
		t.Errorf("expected phone updated, got %s", updated.Phone)
	}
	if updated.Email != "p@x.com" || !updated.RegistrationDate.Equal(before.RegistrationDate.Time) {
		t.Errorf("expected email and registration date untouched, got %+v", updated)
	}
}

type failingDoctorRepo struct{ mockDoctorRepo }

func (f *failingDoctorRepo) Create(context.Context, *Doctor) error {
	return apperr.Failed(errTest)
}

var errTest = &testError{"connection refused"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

func TestService_CreateDoctor_FailurePassesMessageThrough(t *testing.T) {
	s := newMockStore()
	svc := NewService(db.NoopTransactor{}, &mockUserRepo{s}, &failingDoctorRepo{mockDoctorRepo{s}}, &mockPatientRepo{s},
		testIssuer, zerolog.Nop())

	_, err := svc.CreateDoctor(context.Background(), doctorReq("d@x.com"))
	if !apperr.Is(err, apperr.KindOperationFailed) {
		t.Fatalf("expected operation failed, got %v", err)
	}
	if err.Error() != "Failed to create doctor: connection refused" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
