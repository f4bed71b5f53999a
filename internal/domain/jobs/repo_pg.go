package jobs

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syntura/hms/internal/platform/db"
	"github.com/syntura/hms/pkg/dates"
)

type sweepRepoPG struct{ pool *pgxpool.Pool }

func NewSweepRepoPG(pool *pgxpool.Pool) SweepRepository {
	return &sweepRepoPG{pool: pool}
}

func (r *sweepRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

func (r *sweepRepoPG) RemindersDue(ctx context.Context, day dates.Date) ([]Reminder, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT a.id, p.name, COALESCE(u.email, ''), p.phone, d.name, d.specialization, a.appointment_time
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		LEFT JOIN users u ON u.id = p.user_id
		JOIN doctors d ON d.id = a.doctor_id
		WHERE a.appointment_date = $1 AND a.status = 'scheduled'
		ORDER BY a.appointment_time, a.id`, day)
	if err != nil {
		return nil, db.TranslateError(err, "Appointment")
	}
	defer rows.Close()

	var out []Reminder
	for rows.Next() {
		var rm Reminder
		if err := rows.Scan(&rm.AppointmentID, &rm.PatientName, &rm.PatientEmail, &rm.PatientPhone,
			&rm.DoctorName, &rm.Department, &rm.AppointmentTime); err != nil {
			return nil, db.TranslateError(err, "Appointment")
		}
		out = append(out, rm)
	}
	return out, db.TranslateError(rows.Err(), "Appointment")
}

func (r *sweepRepoPG) DoctorActivity(ctx context.Context, from, to dates.Date) ([]Activity, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT d.id, d.name, COALESCE(u.email, ''), d.specialization,
			COUNT(a.id),
			COUNT(a.id) FILTER (WHERE a.status = 'completed'),
			COUNT(a.id) FILTER (WHERE a.status = 'cancelled'),
			(SELECT COUNT(*) FROM treatments t
			 WHERE t.doctor_id = d.id AND t.visit_date >= $1 AND t.visit_date < $2)
		FROM doctors d
		LEFT JOIN users u ON u.id = d.user_id
		LEFT JOIN appointments a ON a.doctor_id = d.id
			AND a.appointment_date >= $1 AND a.appointment_date < $2
		GROUP BY d.id, d.name, u.email, d.specialization
		ORDER BY d.name, d.id`, from, to)
	if err != nil {
		return nil, db.TranslateError(err, "Doctor")
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.DoctorID, &a.DoctorName, &a.Email, &a.Specialization,
			&a.Total, &a.Completed, &a.Cancelled, &a.Treatments); err != nil {
			return nil, db.TranslateError(err, "Doctor")
		}
		out = append(out, a)
	}
	return out, db.TranslateError(rows.Err(), "Doctor")
}
