package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/syntura/hms/internal/platform/apperr"
	"github.com/syntura/hms/internal/platform/auth"
	"github.com/syntura/hms/internal/platform/middleware"
	"github.com/syntura/hms/internal/platform/reporting"
	"github.com/syntura/hms/internal/platform/tasks"
)

// Tasks is the part of tasks.Manager the handlers use.
type Tasks interface {
	Enqueue(ctx context.Context, name, owner string, payload interface{}) (string, error)
	Status(ctx context.Context, id string) (*tasks.Result, error)
}

type Handler struct {
	tasks    Tasks
	patients Patients
}

func NewHandler(t Tasks, patients Patients) *Handler {
	return &Handler{tasks: t, patients: patients}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	patient := api.Group("/tasks", auth.RequireRole(auth.RolePatient))
	patient.POST("/export-history", h.StartExport)
	patient.GET("/export-history/:id", h.GetExportStatus)

	admin := api.Group("/admin/tasks", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/daily-reminders", h.trigger(TaskDailyReminders))
	admin.POST("/monthly-reports", h.trigger(TaskMonthlyReports))
	admin.GET("/:id", h.GetTaskStatus)
}

type ExportRequest struct {
	Format string `json:"format"`
}

// StatusResponse is what pollers see for a task.
type StatusResponse struct {
	State  tasks.State     `json:"state"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func statusOf(r *tasks.Result) StatusResponse {
	return StatusResponse{State: r.State, Status: r.State.Message(), Result: r.Result, Error: r.Error}
}

func started(taskID, msg string) map[string]string {
	return map[string]string{"message": msg, "task_id": taskID, "status": "processing"}
}

func (h *Handler) load(ctx context.Context, id string) (*tasks.Result, error) {
	r, err := h.tasks.Status(ctx, id)
	if errors.Is(err, tasks.ErrNotFound) {
		return nil, apperr.NotFound("Task")
	}
	if err != nil {
		return nil, apperr.Wrap("get task status", err)
	}
	return r, nil
}

// -- Patient --

func (h *Handler) StartExport(c echo.Context) error {
	var req ExportRequest
	if c.Request().ContentLength != 0 {
		if err := middleware.Bind(c, &req); err != nil {
			return err
		}
	}
	format, err := reporting.ParseFormat(req.Format)
	if err != nil {
		return apperr.Invalid("%s", err.Error())
	}

	ctx := c.Request().Context()
	userID := auth.UserIDFromContext(ctx)
	p, err := h.patients.PatientForUser(ctx, userID)
	if err != nil {
		return err
	}
	id, err := h.tasks.Enqueue(ctx, TaskExportHistory, userID.String(),
		ExportPayload{PatientID: p.ID, Format: string(format)})
	if err != nil {
		return apperr.Wrap("start export", err)
	}
	return c.JSON(http.StatusAccepted, started(id, "Export task started"))
}

// GetExportStatus reports an export task. Tasks owned by someone else are
// reported as missing.
func (h *Handler) GetExportStatus(c echo.Context) error {
	ctx := c.Request().Context()
	r, err := h.load(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if r.Name != TaskExportHistory || r.Owner != auth.UserIDFromContext(ctx).String() {
		return apperr.NotFound("Task")
	}
	return c.JSON(http.StatusOK, statusOf(r))
}

// -- Admin --

func (h *Handler) trigger(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := h.tasks.Enqueue(c.Request().Context(), name, "", nil)
		if err != nil {
			return apperr.Wrap("start task", err)
		}
		return c.JSON(http.StatusAccepted, started(id, "Task started"))
	}
}

func (h *Handler) GetTaskStatus(c echo.Context) error {
	r, err := h.load(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusOf(r))
}
