package scheduling

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/syntura/hms/internal/platform/apperr"
	"github.com/syntura/hms/internal/platform/auth"
	"github.com/syntura/hms/internal/platform/middleware"
	"github.com/syntura/hms/pkg/dates"
	"github.com/syntura/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	admin := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/appointments", h.ListAppointments)
	admin.GET("/appointments/:id", h.GetAppointment)
	admin.PUT("/appointments/:id", h.UpdateAppointment)
	admin.DELETE("/appointments/:id", h.DeleteAppointment)

	doctor := api.Group("/doctor", auth.RequireRole(auth.RoleDoctor))
	doctor.GET("/appointments", h.ListDoctorAppointments)
	doctor.GET("/appointments/:id", h.GetDoctorAppointment)
	doctor.PUT("/appointments/:id/status", h.UpdateAppointmentStatus)

	patient := api.Group("/patient", auth.RequireRole(auth.RolePatient))
	patient.GET("/appointments", h.ListPatientAppointments)
	patient.POST("/appointments", h.BookAppointment)
	patient.PUT("/appointments/:id", h.RescheduleAppointment)
	patient.DELETE("/appointments/:id", h.CancelAppointment)
}

func appointmentID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound("Appointment")
	}
	return id, nil
}

func list(c echo.Context, items []*Appointment) error {
	p := pagination.FromContext(c)
	p.SetHeaders(c, len(items))
	return c.JSON(http.StatusOK, pagination.Slice(items, p))
}

func withMessage(msg string, a *Appointment) map[string]interface{} {
	return map[string]interface{}{"message": msg, "appointment": a}
}

// -- Admin Handlers --

func (h *Handler) ListAppointments(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return err
	}
	return list(c, items)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := appointmentID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := appointmentID(c)
	if err != nil {
		return err
	}
	var patch Patch
	if err := middleware.Bind(c, &patch); err != nil {
		return err
	}
	a, err := h.svc.Update(c.Request().Context(), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, withMessage("Appointment updated successfully", a))
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, err := appointmentID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Appointment deleted successfully"})
}

// -- Doctor Handlers --

func (h *Handler) ListDoctorAppointments(c echo.Context) error {
	var date dates.Date
	if raw := c.QueryParam("date"); raw != "" {
		parsed, err := dates.Parse(raw)
		if err != nil {
			return apperr.Invalid("%s", err.Error())
		}
		date = parsed
	}
	ctx := c.Request().Context()
	items, err := h.svc.DoctorAppointments(ctx, auth.UserIDFromContext(ctx), c.QueryParam("status"), date)
	if err != nil {
		return err
	}
	return list(c, items)
}

func (h *Handler) GetDoctorAppointment(c echo.Context) error {
	id, err := appointmentID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	a, err := h.svc.DoctorAppointment(ctx, auth.UserIDFromContext(ctx), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) UpdateAppointmentStatus(c echo.Context) error {
	id, err := appointmentID(c)
	if err != nil {
		return err
	}
	var req StatusUpdate
	if err := middleware.Bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	a, err := h.svc.SetStatus(ctx, auth.UserIDFromContext(ctx), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, withMessage("Appointment status updated successfully", a))
}

// -- Patient Handlers --

func (h *Handler) ListPatientAppointments(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.svc.PatientAppointments(ctx, auth.UserIDFromContext(ctx), c.QueryParam("status"))
	if err != nil {
		return err
	}
	return list(c, items)
}

func (h *Handler) BookAppointment(c echo.Context) error {
	var req BookRequest
	if err := middleware.Bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	a, err := h.svc.Book(ctx, auth.UserIDFromContext(ctx), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, withMessage("Appointment booked successfully", a))
}

func (h *Handler) RescheduleAppointment(c echo.Context) error {
	id, err := appointmentID(c)
	if err != nil {
		return err
	}
	var patch Patch
	if err := middleware.Bind(c, &patch); err != nil {
		return err
	}
	ctx := c.Request().Context()
	a, err := h.svc.Reschedule(ctx, auth.UserIDFromContext(ctx), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, withMessage("Appointment rescheduled successfully", a))
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	id, err := appointmentID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.Cancel(ctx, auth.UserIDFromContext(ctx), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Appointment cancelled successfully"})
}
