package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/syntura/hms/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/admin/dashboard", h.GetDashboard, auth.RequireRole(auth.RoleAdmin))
	api.GET("/patient/departments", h.ListDepartments, auth.RequireRole(auth.RolePatient))
}

func (h *Handler) GetDashboard(c echo.Context) error {
	d, err := h.svc.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDepartments(c echo.Context) error {
	items, err := h.svc.Departments(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}
