package identity

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/syntura/hms/internal/platform/apperr"
	"github.com/syntura/hms/internal/platform/auth"
	"github.com/syntura/hms/internal/platform/middleware"
	"github.com/syntura/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
	// refreshGate authenticates the refresh endpoint with a refresh token.
	refreshGate echo.MiddlewareFunc
}

func NewHandler(svc *Service, refreshGate echo.MiddlewareFunc) *Handler {
	return &Handler{svc: svc, refreshGate: refreshGate}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Public
	api.POST("/auth/login", h.Login)
	api.POST("/auth/register", h.Register)
	if h.refreshGate != nil {
		api.POST("/auth/refresh", h.Refresh, h.refreshGate)
	} else {
		api.POST("/auth/refresh", h.Refresh)
	}

	// Any authenticated role
	api.GET("/auth/me", h.Me)
	api.POST("/auth/logout", h.Logout)

	admin := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/doctors", h.ListDoctors)
	admin.POST("/doctors", h.CreateDoctor)
	admin.GET("/doctors/:id", h.GetDoctor)
	admin.PUT("/doctors/:id", h.UpdateDoctor)
	admin.DELETE("/doctors/:id", h.DeleteDoctor)
	admin.GET("/patients", h.ListPatients)
	admin.GET("/patients/:id", h.GetPatient)
	admin.PUT("/patients/:id", h.UpdatePatient)
	admin.DELETE("/patients/:id", h.DeletePatient)

	doctor := api.Group("/doctor", auth.RequireRole(auth.RoleDoctor))
	doctor.GET("/patients", h.ListMyPatients)
	doctor.GET("/profile", h.GetDoctorProfile)
	doctor.PUT("/profile", h.UpdateDoctorProfile)

	patient := api.Group("/patient", auth.RequireRole(auth.RolePatient))
	patient.GET("/doctors", h.BrowseDoctors)
	patient.GET("/doctors/:id", h.GetDoctor)
	patient.GET("/profile", h.GetPatientProfile)
	patient.PUT("/profile", h.UpdatePatientProfile)
}

func parseID(c echo.Context, entity string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound(entity)
	}
	return id, nil
}

// -- Session Handlers --

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := middleware.Bind(c, &req); err != nil {
		return err
	}
	result, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := middleware.Bind(c, &req); err != nil {
		return err
	}
	user, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Registration successful",
		"user":    user,
	})
}

func (h *Handler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	token, err := h.svc.Refresh(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"access_token": token})
}

func (h *Handler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := h.svc.Me(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) Logout(c echo.Context) error {
	if err := h.svc.Logout(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// -- Doctor Handlers --

func (h *Handler) ListDoctors(c echo.Context) error {
	doctors, err := h.svc.ListDoctors(c.Request().Context(), DoctorFilter{Search: c.QueryParam("search")})
	if err != nil {
		return err
	}
	return page(c, doctors)
}

// BrowseDoctors is the patient-facing listing, filterable by specialization.
func (h *Handler) BrowseDoctors(c echo.Context) error {
	doctors, err := h.svc.ListDoctors(c.Request().Context(), DoctorFilter{Specialization: c.QueryParam("specialization")})
	if err != nil {
		return err
	}
	return page(c, doctors)
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var req CreateDoctorRequest
	if err := middleware.Bind(c, &req); err != nil {
		return err
	}
	d, err := h.svc.CreateDoctor(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Doctor created successfully",
		"doctor":  d,
	})
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := parseID(c, "Doctor")
	if err != nil {
		return err
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := parseID(c, "Doctor")
	if err != nil {
		return err
	}
	var patch DoctorPatch
	if err := middleware.Bind(c, &patch); err != nil {
		return err
	}
	d, err := h.svc.UpdateDoctor(c.Request().Context(), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Doctor updated successfully",
		"doctor":  d,
	})
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := parseID(c, "Doctor")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDoctor(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Doctor deleted successfully"})
}

func (h *Handler) GetDoctorProfile(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := h.svc.DoctorForUser(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateDoctorProfile(c echo.Context) error {
	var patch DoctorPatch
	if err := middleware.Bind(c, &patch); err != nil {
		return err
	}
	ctx := c.Request().Context()
	d, err := h.svc.UpdateDoctorProfile(ctx, auth.UserIDFromContext(ctx), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Profile updated successfully",
		"doctor":  d,
	})
}

func (h *Handler) ListMyPatients(c echo.Context) error {
	ctx := c.Request().Context()
	patients, err := h.svc.PatientsOfDoctor(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return page(c, patients)
}

// -- Patient Handlers --

func (h *Handler) ListPatients(c echo.Context) error {
	patients, err := h.svc.ListPatients(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return err
	}
	return page(c, patients)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := parseID(c, "Patient")
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := parseID(c, "Patient")
	if err != nil {
		return err
	}
	var patch PatientPatch
	if err := middleware.Bind(c, &patch); err != nil {
		return err
	}
	p, err := h.svc.UpdatePatient(c.Request().Context(), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Patient updated successfully",
		"patient": p,
	})
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := parseID(c, "Patient")
	if err != nil {
		return err
	}
	if err := h.svc.DeletePatient(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Patient deleted successfully"})
}

func (h *Handler) GetPatientProfile(c echo.Context) error {
	ctx := c.Request().Context()
	p, err := h.svc.PatientForUser(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePatientProfile(c echo.Context) error {
	var patch PatientPatch
	if err := middleware.Bind(c, &patch); err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := h.svc.UpdatePatientProfile(ctx, auth.UserIDFromContext(ctx), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Profile updated successfully",
		"patient": p,
	})
}

func page[T any](c echo.Context, items []T) error {
	p := pagination.FromContext(c)
	p.SetHeaders(c, len(items))
	return c.JSON(http.StatusOK, pagination.Slice(items, p))
}
