package admin

import "github.com/google/uuid"

// Department maps to the departments table. Defaults served before the
// table is seeded carry no id.
type Department struct {
	ID          *uuid.UUID `json:"id,omitempty"`
	Name        string     `json:"name"`
	Icon        string     `json:"icon"`
	Description string     `json:"description"`
}

// DefaultDepartments returns the departments seeded on first run.
func DefaultDepartments() []Department {
	return []Department{
		{Name: "Cardiology", Icon: "❤️", Description: "Heart and cardiovascular care"},
		{Name: "Neurology", Icon: "🧠", Description: "Brain and nervous system"},
		{Name: "Orthopedics", Icon: "🦴", Description: "Bones and joints"},
		{Name: "Pediatrics", Icon: "👶", Description: "Child healthcare"},
		{Name: "Dermatology", Icon: "✨", Description: "Skin care"},
		{Name: "General Medicine", Icon: "🏥", Description: "General healthcare"},
	}
}

// Dashboard holds the headline counts shown on the admin dashboard.
type Dashboard struct {
	TotalDoctors          int `json:"total_doctors"`
	TotalPatients         int `json:"total_patients"`
	TotalAppointments     int `json:"total_appointments"`
	ScheduledAppointments int `json:"scheduled_appointments"`
	CompletedAppointments int `json:"completed_appointments"`
	CancelledAppointments int `json:"cancelled_appointments"`
}
