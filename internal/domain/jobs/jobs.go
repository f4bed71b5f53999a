package jobs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/syntura/hms/internal/domain/clinical"
	"github.com/syntura/hms/internal/platform/notification"
	"github.com/syntura/hms/internal/platform/reporting"
	"github.com/syntura/hms/internal/platform/tasks"
	"github.com/syntura/hms/pkg/dates"
)

// HistoryHeader is the header row of a history export.
var HistoryHeader = []string{"Date", "Doctor", "Department", "Symptoms", "Diagnosis", "Prescription", "Follow-up Date", "Notes"}

// Runner implements the task handlers.
type Runner struct {
	history    HistorySource
	sweeps     SweepRepository
	dispatcher *notification.Dispatcher
	logger     zerolog.Logger
	now        func() time.Time
}

func NewRunner(history HistorySource, sweeps SweepRepository, dispatcher *notification.Dispatcher, logger zerolog.Logger) *Runner {
	return &Runner{
		history:    history,
		sweeps:     sweeps,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "jobs").Logger(),
		now:        time.Now,
	}
}

// Register binds every task handler to m.
func (r *Runner) Register(m *tasks.Manager) {
	m.Register(TaskExportHistory, r.exportHistory)
	m.Register(TaskDailyReminders, func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		return r.SendDailyReminders(ctx)
	})
	m.Register(TaskMonthlyReports, func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		return r.SendMonthlyReports(ctx)
	})
}

func (r *Runner) exportHistory(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p ExportPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return r.ExportHistory(ctx, p)
}

// -- History export --

// HistoryTable lays treatments out as export rows.
func HistoryTable(items []*clinical.Treatment) reporting.Table {
	rows := make([][]string, 0, len(items))
	for _, t := range items {
		follow := ""
		if !t.FollowUpDate.IsZero() {
			follow = t.FollowUpDate.String()
		}
		notes := ""
		if t.Notes != nil {
			notes = *t.Notes
		}
		rows = append(rows, []string{
			t.VisitDate.String(), t.DoctorName, t.Department,
			t.Symptoms, t.Diagnosis, t.Prescription, follow, notes,
		})
	}
	return reporting.Table{Sheet: "History", Header: HistoryHeader, Rows: rows}
}

// ExportHistory renders a patient's treatment history as CSV or XLSX.
// XLSX content is base64 encoded.
func (r *Runner) ExportHistory(ctx context.Context, p ExportPayload) (*ExportResult, error) {
	format, err := reporting.ParseFormat(p.Format)
	if err != nil {
		return nil, err
	}
	log := r.logger.With().Str("patient_id", p.PatientID.String()).Logger()
	log.Info().Str("format", string(format)).Msg("exporting patient history")

	items, err := r.history.History(ctx, p.PatientID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	data, err := HistoryTable(items).Encode(format)
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}

	res := &ExportResult{
		Status:    "success",
		PatientID: p.PatientID,
		Format:    string(format),
		Filename:  fmt.Sprintf("patient_%s_history_%s.%s", p.PatientID, r.now().Format("20060102"), format),
		Message:   strings.ToUpper(string(format)) + " export completed successfully",
	}
	if format == reporting.FormatXLSX {
		res.Content = base64.StdEncoding.EncodeToString(data)
	} else {
		res.Content = string(data)
		res.CSVContent = res.Content
	}
	log.Info().Int("rows", len(items)).Msg("patient history exported")
	return res, nil
}

// -- Daily reminders --

// SendDailyReminders notifies every patient with a scheduled appointment
// today. Only patients with an email address are counted.
func (r *Runner) SendDailyReminders(ctx context.Context) (*ReminderResult, error) {
	today := dates.Of(r.now())
	due, err := r.sweeps.RemindersDue(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	sent := 0
	for _, rm := range due {
		if rm.PatientEmail == "" {
			continue
		}
		data := map[string]string{
			"patient_name": rm.PatientName,
			"doctor_name":  rm.DoctorName,
			"department":   rm.Department,
			"date":         today.String(),
			"time":         rm.AppointmentTime,
		}
		to := notification.Recipient{Name: rm.PatientName, Email: rm.PatientEmail, Phone: rm.PatientPhone}
		if _, err := r.dispatcher.Dispatch(ctx, notification.TemplateAppointmentReminder, data, to); err != nil {
			r.logger.Error().Err(err).Str("appointment_id", rm.AppointmentID.String()).Msg("reminder failed")
			continue
		}
		sent++
	}

	r.logger.Info().Int("appointments", len(due)).Int("sent", sent).Msg("daily reminders done")
	return &ReminderResult{
		Status:            "success",
		Date:              today.String(),
		TotalAppointments: len(due),
		RemindersSent:     sent,
	}, nil
}

// -- Monthly reports --

// ReportPeriod returns the previous calendar month as [from, to) and its
// display name.
func ReportPeriod(now time.Time) (from, to dates.Date, month string) {
	to = dates.Of(now).FirstOfMonth()
	from = to.AddMonths(-1)
	return from, to, from.Format("January 2006")
}

// SendMonthlyReports mails every doctor a PDF summary of last month.
func (r *Runner) SendMonthlyReports(ctx context.Context) (*ReportResult, error) {
	now := r.now()
	from, to, month := ReportPeriod(now)
	activity, err := r.sweeps.DoctorActivity(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load doctor activity: %w", err)
	}

	sent := 0
	for _, a := range activity {
		if err := r.sendReport(ctx, a, month, now); err != nil {
			r.logger.Error().Err(err).Str("doctor_id", a.DoctorID.String()).Msg("monthly report failed")
			continue
		}
		sent++
	}

	r.logger.Info().Str("month", month).Int("doctors", len(activity)).Int("sent", sent).Msg("monthly reports done")
	return &ReportResult{
		Status:       "success",
		Month:        month,
		TotalDoctors: len(activity),
		ReportsSent:  sent,
	}, nil
}

func (r *Runner) sendReport(ctx context.Context, a Activity, month string, now time.Time) error {
	if a.Email == "" {
		return fmt.Errorf("doctor %s has no email", a.DoctorID)
	}
	data := map[string]string{
		"doctor_name":            a.DoctorName,
		"month":                  month,
		"specialization":         a.Specialization,
		"total_appointments":     strconv.Itoa(a.Total),
		"completed_appointments": strconv.Itoa(a.Completed),
		"cancelled_appointments": strconv.Itoa(a.Cancelled),
		"treatment_records":      strconv.Itoa(a.Treatments),
	}
	pdf, err := ReportSummary(a, month, now).PDF()
	if err != nil {
		return err
	}
	attachment := notification.Attachment{
		Name:        "report_" + strings.ReplaceAll(month, " ", "_") + ".pdf",
		ContentType: "application/pdf",
		Data:        pdf,
	}
	to := notification.Recipient{Name: a.DoctorName, Email: a.Email}
	_, err = r.dispatcher.Dispatch(ctx, notification.TemplateMonthlyReport, data, to, attachment)
	return err
}

// ReportSummary is the PDF body of a doctor's monthly report.
func ReportSummary(a Activity, month string, generated time.Time) reporting.Summary {
	return reporting.Summary{
		Title:    "Monthly Activity Report",
		Subtitle: a.DoctorName + " (" + a.Specialization + "), " + month,
		Fields: []reporting.Field{
			{Label: "Total appointments", Value: strconv.Itoa(a.Total)},
			{Label: "Completed", Value: strconv.Itoa(a.Completed)},
			{Label: "Cancelled", Value: strconv.Itoa(a.Cancelled)},
			{Label: "Treatment records", Value: strconv.Itoa(a.Treatments)},
		},
		GeneratedAt: generated,
	}
}
