// Package jobs holds the background tasks run by the task workers: the
// patient history export and the reminder and report sweeps.
package jobs

import (
	"context"

	"github.com/google/uuid"

	"github.com/syntura/hms/internal/domain/clinical"
	"github.com/syntura/hms/internal/domain/identity"
	"github.com/syntura/hms/pkg/dates"
)

const (
	TaskExportHistory  = "export_patient_history"
	TaskDailyReminders = "send_daily_reminders"
	TaskMonthlyReports = "send_monthly_reports"
)

// ExportPayload is the export_patient_history task input.
type ExportPayload struct {
	PatientID uuid.UUID `json:"patient_id"`
	Format    string    `json:"format"`
}

// ExportResult is the export_patient_history task output. CSVContent
// repeats Content for csv exports.
type ExportResult struct {
	Status     string    `json:"status"`
	PatientID  uuid.UUID `json:"patient_id"`
	Format     string    `json:"format"`
	Filename   string    `json:"filename"`
	Content    string    `json:"content"`
	CSVContent string    `json:"csv_content,omitempty"`
	Message    string    `json:"message"`
}

type ReminderResult struct {
	Status            string `json:"status"`
	Date              string `json:"date"`
	TotalAppointments int    `json:"total_appointments"`
	RemindersSent     int    `json:"reminders_sent"`
}

type ReportResult struct {
	Status       string `json:"status"`
	Month        string `json:"month"`
	TotalDoctors int    `json:"total_doctors"`
	ReportsSent  int    `json:"reports_sent"`
}

// Reminder is one scheduled appointment due today with its contact details.
type Reminder struct {
	AppointmentID   uuid.UUID
	PatientName     string
	PatientEmail    string
	PatientPhone    string
	DoctorName      string
	Department      string
	AppointmentTime string
}

// Activity is one doctor's appointment and treatment counts for a period.
type Activity struct {
	DoctorID       uuid.UUID
	DoctorName     string
	Email          string
	Specialization string
	Total          int
	Completed      int
	Cancelled      int
	Treatments     int
}

// SweepRepository loads the rows the scheduled sweeps work on.
type SweepRepository interface {
	RemindersDue(ctx context.Context, day dates.Date) ([]Reminder, error)
	// DoctorActivity counts per doctor over [from, to).
	DoctorActivity(ctx context.Context, from, to dates.Date) ([]Activity, error)
}

// HistorySource returns a patient's treatments, newest visit first.
type HistorySource interface {
	History(ctx context.Context, patientID uuid.UUID) ([]*clinical.Treatment, error)
}

// Patients resolves a calling user to their patient profile.
type Patients interface {
	PatientForUser(ctx context.Context, userID uuid.UUID) (*identity.Patient, error)
}
