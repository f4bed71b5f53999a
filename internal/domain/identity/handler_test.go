package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/syntura/hms/internal/platform/auth"
	"github.com/syntura/hms/internal/platform/middleware"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _ := newTestService()
	h := NewHandler(svc, nil)
	e := echo.New()
	e.Validator = middleware.NewValidator()
	e.HTTPErrorHandler = middleware.ErrorHandler(zerolog.Nop())
	return h, e
}

func jsonRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func withUser(req *http.Request, userID uuid.UUID, role string) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), userID, role))
}

func TestHandler_Register(t *testing.T) {
	h, e := newTestHandler()
	body := `{"email":"p@x.com","password":"pw","name":"Pat","age":30,"gender":"Male","phone":"555"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, body), rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["message"] != "Registration successful" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_Register_MissingField(t *testing.T) {
	h, e := newTestHandler()
	body := `{"email":"p@x.com","password":"pw","name":"Pat","gender":"Male","phone":"555"}`
	c := e.NewContext(jsonRequest(http.MethodPost, body), httptest.NewRecorder())

	err := h.Register(c)
	if err == nil || err.Error() != "age is required" {
		t.Fatalf("expected age is required, got %v", err)
	}
	if middleware.StatusOf(err) != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", middleware.StatusOf(err))
	}
}

func TestHandler_Register_ZeroAgeIsPresent(t *testing.T) {
	h, e := newTestHandler()
	body := `{"email":"baby@x.com","password":"pw","name":"Baby","age":0,"gender":"Male","phone":"555"}`
	rec := httptest.NewRecorder()
	if err := h.Register(e.NewContext(jsonRequest(http.MethodPost, body), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHandler_Login(t *testing.T) {
	h, e := newTestHandler()
	h.svc.Register(context.Background(), registerReq("p@x.com"))

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, `{"email":"p@x.com","password":"secret1"}`), rec)
	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp LoginResult
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("expected both tokens")
	}
	if resp.User.Role != auth.RolePatient {
		t.Errorf("expected patient, got %s", resp.User.Role)
	}
}

func TestHandler_Login_BadCredentials(t *testing.T) {
	h, e := newTestHandler()
	c := e.NewContext(jsonRequest(http.MethodPost, `{"email":"p@x.com","password":"nope"}`), httptest.NewRecorder())
	err := h.Login(c)
	if middleware.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestHandler_CreateDoctor(t *testing.T) {
	h, e := newTestHandler()
	body := `{"email":"d@x.com","password":"pw","name":"Dr. A","phone":"1","specialization":"Neurology","qualification":"DM","experience":5}`
	rec := httptest.NewRecorder()
	if err := h.CreateDoctor(e.NewContext(jsonRequest(http.MethodPost, body), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	err := h.CreateDoctor(e.NewContext(jsonRequest(http.MethodPost, body), rec))
	if middleware.StatusOf(err) != http.StatusConflict {
		t.Errorf("expected 409, got %v", err)
	}
}

func TestHandler_CreateDoctor_MissingField(t *testing.T) {
	h, e := newTestHandler()
	body := `{"email":"d@x.com","password":"pw","name":"Dr. A","phone":"1","qualification":"DM","experience":5}`
	err := h.CreateDoctor(e.NewContext(jsonRequest(http.MethodPost, body), httptest.NewRecorder()))
	if err == nil || err.Error() != "specialization is required" {
		t.Fatalf("expected specialization is required, got %v", err)
	}
}

func TestHandler_GetDoctor_NotFound(t *testing.T) {
	h, e := newTestHandler()
	for _, id := range []string{uuid.New().String(), "not-a-uuid"} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(id)

		err := h.GetDoctor(c)
		if middleware.StatusOf(err) != http.StatusNotFound || err.Error() != "Doctor not found" {
			t.Errorf("id %s: expected Doctor not found, got %v", id, err)
		}
	}
}

func TestHandler_UpdateDoctor_NullLeavesRequiredField(t *testing.T) {
	h, e := newTestHandler()
	d, _ := h.svc.CreateDoctor(context.Background(), doctorReq("d@x.com"))

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPut, `{"name":null,"experience":11}`), rec)
	c.SetParamNames("id")
	c.SetParamValues(d.ID.String())
	if err := h.UpdateDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Doctor Doctor `json:"doctor"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Doctor.Name != "Dr. Rao" || resp.Doctor.Experience != 11 {
		t.Errorf("unexpected doctor %+v", resp.Doctor)
	}
}

func TestHandler_DeleteDoctor(t *testing.T) {
	h, e := newTestHandler()
	d, _ := h.svc.CreateDoctor(context.Background(), doctorReq("d@x.com"))

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(d.ID.String())
	if err := h.DeleteDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "Doctor deleted successfully") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_ListDoctors_Paged(t *testing.T) {
	h, e := newTestHandler()
	ctx := context.Background()
	h.svc.CreateDoctor(ctx, doctorReq("d1@x.com"))
	h.svc.CreateDoctor(ctx, doctorReq("d2@x.com"))
	h.svc.CreateDoctor(ctx, doctorReq("d3@x.com"))

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?limit=2", nil), rec)
	if err := h.ListDoctors(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var doctors []Doctor
	json.Unmarshal(rec.Body.Bytes(), &doctors)
	if len(doctors) != 2 {
		t.Errorf("expected page of 2, got %d", len(doctors))
	}
	if rec.Header().Get("X-Total-Count") != "3" {
		t.Errorf("expected total 3, got %q", rec.Header().Get("X-Total-Count"))
	}
}

func TestHandler_PatientProfile(t *testing.T) {
	h, e := newTestHandler()
	user, _ := h.svc.Register(context.Background(), registerReq("p@x.com"))

	rec := httptest.NewRecorder()
	req := withUser(httptest.NewRequest(http.MethodGet, "/", nil), user.ID, auth.RolePatient)
	if err := h.GetPatientProfile(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var p Patient
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.Email != "p@x.com" {
		t.Errorf("expected email on profile, got %+v", p)
	}

	req = withUser(httptest.NewRequest(http.MethodGet, "/", nil), uuid.New(), auth.RolePatient)
	err := h.GetPatientProfile(e.NewContext(req, httptest.NewRecorder()))
	if err == nil || err.Error() != "Patient profile not found" {
		t.Errorf("expected Patient profile not found, got %v", err)
	}
}

func TestHandler_Refresh_UnknownUser(t *testing.T) {
	h, e := newTestHandler()
	req := withUser(httptest.NewRequest(http.MethodPost, "/", nil), uuid.New(), auth.RolePatient)
	err := h.Refresh(e.NewContext(req, httptest.NewRecorder()))
	if middleware.StatusOf(err) != http.StatusNotFound || err.Error() != "User not found" {
		t.Errorf("expected User not found, got %v", err)
	}
}

// newRoutedServer mounts the routes behind the real token gate.
func newRoutedServer(t *testing.T) (*echo.Echo, *Service) {
	t.Helper()
	svc, _ := newTestService()
	revocations := auth.NewTokenRevocationStore()
	t.Cleanup(revocations.Close)
	svc.revocations = revocations

	e := echo.New()
	e.Validator = middleware.NewValidator()
	e.HTTPErrorHandler = middleware.ErrorHandler(zerolog.Nop())
	api := e.Group("/api", auth.JWTMiddleware(auth.JWTConfig{
		Issuer: testIssuer, Revocations: revocations, Skipper: auth.AuthSkipper,
	}))
	refresh := auth.JWTMiddleware(auth.JWTConfig{Issuer: testIssuer, TokenType: auth.TokenRefresh, Revocations: revocations})
	NewHandler(svc, refresh).RegisterRoutes(api)
	return e, svc
}

func serve(e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	req := jsonRequest(method, body)
	req.URL.Path = path
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_RoleGate(t *testing.T) {
	e, _ := newRoutedServer(t)

	paths := map[string]string{
		auth.RoleAdmin:   "/api/admin/doctors",
		auth.RoleDoctor:  "/api/doctor/profile",
		auth.RolePatient: "/api/patient/profile",
	}
	roles := []string{auth.RoleAdmin, auth.RoleDoctor, auth.RolePatient}

	for owner, path := range paths {
		for _, role := range roles {
			if role == owner {
				continue
			}
			token, _ := testIssuer.Issue(uuid.New(), role, auth.TokenAccess)
			rec := serve(e, http.MethodGet, path, token, "")
			if rec.Code != http.StatusForbidden {
				t.Errorf("%s on %s: expected 403, got %d", role, path, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), `"error":"Unauthorized access"`) {
				t.Errorf("%s on %s: unexpected body %s", role, path, rec.Body.String())
			}
		}
	}

	if rec := serve(e, http.MethodGet, "/api/admin/doctors", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
}

func TestRoutes_RefreshAndLogout(t *testing.T) {
	e, svc := newRoutedServer(t)
	svc.Register(context.Background(), registerReq("p@x.com"))

	rec := serve(e, http.MethodPost, "/api/auth/login", "", `{"email":"p@x.com","password":"secret1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	var login LoginResult
	json.Unmarshal(rec.Body.Bytes(), &login)

	if rec := serve(e, http.MethodPost, "/api/auth/refresh", login.AccessToken, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected access token to be rejected on refresh, got %d", rec.Code)
	}
	rec = serve(e, http.MethodPost, "/api/auth/refresh", login.RefreshToken, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "access_token") {
		t.Errorf("expected refreshed access token, got %d %s", rec.Code, rec.Body.String())
	}

	if rec := serve(e, http.MethodGet, "/api/auth/me", login.AccessToken, ""); rec.Code != http.StatusOK {
		t.Errorf("me: expected 200, got %d", rec.Code)
	}
	if rec := serve(e, http.MethodPost, "/api/auth/logout", login.AccessToken, ""); rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rec.Code)
	}
	if rec := serve(e, http.MethodGet, "/api/auth/me", login.AccessToken, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected revoked token to be rejected, got %d", rec.Code)
	}
}
