package clinical

import (
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

func newTestHandler() (*Handler, *fixture, *echo.Echo) {
	f := newFixture()
	e := echo.New()
	e.Validator = middleware.NewValidator()
	e.HTTPErrorHandler = middleware.ErrorHandler(zerolog.Nop())
	return NewHandler(f.svc), f, e
}

func request(method, body string, userID uuid.UUID, role string) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req.WithContext(auth.WithIdentity(req.Context(), userID, role))
}

func TestHandler_CreateTreatment(t *testing.T) {
	h, f, e := newTestHandler()
	body := `{"patient_id":"` + f.patient.ID.String() + `","visit_date":"2024-05-02","symptoms":"cough",` +
		`"diagnosis":"cold","prescription":"rest","follow_up_date":""}`
	rec := httptest.NewRecorder()
	c := e.NewContext(request(http.MethodPost, body, f.doctor.UserID, auth.RoleDoctor), rec)

	if err := h.CreateTreatment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var resp struct {
		Message   string                 `json:"message"`
		Treatment map[string]interface{} `json:"treatment"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Message != "Treatment record created successfully" {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if resp.Treatment["follow_up_date"] != nil || resp.Treatment["visit_date"] != "2024-05-02" {
		t.Errorf("unexpected treatment %v", resp.Treatment)
	}
}

func TestHandler_CreateTreatment_MissingField(t *testing.T) {
	h, f, e := newTestHandler()
	body := `{"patient_id":"` + f.patient.ID.String() + `","visit_date":"2024-05-02","symptoms":"cough","prescription":"rest"}`
	c := e.NewContext(request(http.MethodPost, body, f.doctor.UserID, auth.RoleDoctor), httptest.NewRecorder())

	err := h.CreateTreatment(c)
	if err == nil || err.Error() != "diagnosis is required" {
		t.Fatalf("expected diagnosis is required, got %v", err)
	}
	if middleware.StatusOf(err) != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", middleware.StatusOf(err))
	}
}

func TestHandler_UpdateTreatment_NotFound(t *testing.T) {
	h, f, e := newTestHandler()
	for _, id := range []string{uuid.New().String(), "9"} {
		c := e.NewContext(request(http.MethodPut, `{"notes":"x"}`, f.doctor.UserID, auth.RoleDoctor), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(id)

		err := h.UpdateTreatment(c)
		if middleware.StatusOf(err) != http.StatusNotFound || err.Error() != "Treatment record not found" {
			t.Errorf("id %q: expected 404 Treatment record not found, got %v", id, err)
		}
	}
}

func TestHandler_GetMyHistory(t *testing.T) {
	h, f, e := newTestHandler()
	ctx := request(http.MethodGet, "", f.doctor.UserID, auth.RoleDoctor).Context()
	f.svc.Create(ctx, f.doctor.UserID, f.createReq("2024-05-02"))

	req := request(http.MethodGet, "", f.patient.UserID, auth.RolePatient)
	req.URL.RawQuery = "limit=10"
	rec := httptest.NewRecorder()
	if err := h.GetMyHistory(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var items []Treatment
	json.Unmarshal(rec.Body.Bytes(), &items)
	if len(items) != 1 || items[0].DoctorName != "Dr. Rao" {
		t.Errorf("unexpected history %s", rec.Body.String())
	}
	if rec.Header().Get("X-Total-Count") != "1" {
		t.Errorf("expected X-Total-Count 1, got %q", rec.Header().Get("X-Total-Count"))
	}
}

func TestHandler_GetPatientHistory_NoRelationship(t *testing.T) {
	h, f, e := newTestHandler()
	c := e.NewContext(request(http.MethodGet, "", f.other.UserID, auth.RoleDoctor), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(f.patient.ID.String())

	err := h.GetPatientHistory(c)
	if middleware.StatusOf(err) != http.StatusNotFound || err.Error() != "Patient not found" {
		t.Fatalf("expected 404 Patient not found, got %v", err)
	}
}
