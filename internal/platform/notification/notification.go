// Package notification renders message templates and delivers them over
// email, SMS, a chat webhook and the service log.
package notification

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// ---------------------------------------------------------------------------
// Notification Types
// ---------------------------------------------------------------------------

// Channel is the medium a notification is delivered over.
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelSMS     Channel = "sms"
	ChannelWebhook Channel = "webhook"
	ChannelLog     Channel = "log"
)

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Attachment is a file carried by an email notification.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Notification records one delivery attempt on one channel.
type Notification struct {
	ID          string       `json:"id"`
	Channel     Channel      `json:"channel"`
	Recipient   string       `json:"recipient"`
	Subject     string       `json:"subject,omitempty"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"-"`
	Status      string       `json:"status"`
	SentAt      *time.Time   `json:"sent_at,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// Recipient is who a notification is addressed to. Channels whose address
// is empty are skipped.
type Recipient struct {
	Name  string
	Email string
	Phone string
}

// ---------------------------------------------------------------------------
// Sender Interfaces
// ---------------------------------------------------------------------------

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string, attachments ...Attachment) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// ChatSender posts a plain-text message to a shared channel.
type ChatSender interface {
	SendChat(ctx context.Context, text string) error
}

// ---------------------------------------------------------------------------
// Template Engine
// ---------------------------------------------------------------------------

const (
	TemplateAppointmentReminder = "appointment-reminder"
	TemplateMonthlyReport       = "monthly-report"
)

// Template is a named subject/body pair with {{key}} placeholders. SMS
// holds the short form sent over SMS and chat; it falls back to Body.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	SMS     string `json:"sms,omitempty"`
}

// Rendered is a template with its placeholders substituted.
type Rendered struct {
	Subject string
	Body    string
	Short   string
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplateAppointmentReminder,
			Name:    "Appointment Reminder",
			Subject: "Appointment Reminder - {{date}}",
			Body: "Dear {{patient_name}},\n\n" +
				"This is a reminder of your appointment today ({{date}}) at {{time}} " +
				"with {{doctor_name}} ({{department}}).\n\n" +
				"If you cannot attend, please cancel the appointment from your dashboard.\n",
			SMS: "Reminder: appointment with {{doctor_name}} today at {{time}}.",
		},
		{
			ID:      TemplateMonthlyReport,
			Name:    "Monthly Activity Report",
			Subject: "Monthly Activity Report - {{month}}",
			Body: "Dear {{doctor_name}},\n\n" +
				"Your activity for {{month}}:\n" +
				"Total appointments: {{total_appointments}}\n" +
				"Completed: {{completed_appointments}}\n" +
				"Cancelled: {{cancelled_appointments}}\n" +
				"Treatment records: {{treatment_records}}\n\n" +
				"The full report is attached.\n",
			SMS: "Monthly report for {{doctor_name}} ({{month}}): {{total_appointments}} appointments, {{treatment_records}} treatments.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// IDs returns the registered template ids in sorted order.
func (e *TemplateEngine) IDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.templates))
	for id := range e.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are left
// as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (Rendered, error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return Rendered{}, fmt.Errorf("template %q not found", templateID)
	}

	short := t.SMS
	if short == "" {
		short = t.Body
	}
	out := Rendered{Subject: t.Subject, Body: t.Body, Short: short}
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		out.Subject = strings.ReplaceAll(out.Subject, placeholder, v)
		out.Body = strings.ReplaceAll(out.Body, placeholder, v)
		out.Short = strings.ReplaceAll(out.Short, placeholder, v)
	}
	return out, nil
}
