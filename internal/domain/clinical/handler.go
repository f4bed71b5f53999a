package clinical

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
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	doctor := api.Group("/doctor", auth.RequireRole(auth.RoleDoctor))
	doctor.POST("/treatments", h.CreateTreatment)
	doctor.PUT("/treatments/:id", h.UpdateTreatment)
	doctor.GET("/patients/:id/history", h.GetPatientHistory)

	patient := api.Group("/patient", auth.RequireRole(auth.RolePatient))
	patient.GET("/history", h.GetMyHistory)
}

func parseID(c echo.Context, entity string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound(entity)
	}
	return id, nil
}

func list(c echo.Context, items []*Treatment) error {
	p := pagination.FromContext(c)
	p.SetHeaders(c, len(items))
	return c.JSON(http.StatusOK, pagination.Slice(items, p))
}

func (h *Handler) CreateTreatment(c echo.Context) error {
	var req CreateRequest
	if err := middleware.Bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	t, err := h.svc.Create(ctx, auth.UserIDFromContext(ctx), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":   "Treatment record created successfully",
		"treatment": t,
	})
}

func (h *Handler) UpdateTreatment(c echo.Context) error {
	id, err := parseID(c, "Treatment record")
	if err != nil {
		return err
	}
	var patch Patch
	if err := middleware.Bind(c, &patch); err != nil {
		return err
	}
	ctx := c.Request().Context()
	t, err := h.svc.Update(ctx, auth.UserIDFromContext(ctx), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":   "Treatment record updated successfully",
		"treatment": t,
	})
}

func (h *Handler) GetPatientHistory(c echo.Context) error {
	id, err := parseID(c, "Patient")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	items, err := h.svc.PatientHistoryForDoctor(ctx, auth.UserIDFromContext(ctx), id)
	if err != nil {
		return err
	}
	return list(c, items)
}

func (h *Handler) GetMyHistory(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.svc.MyHistory(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return list(c, items)
}
