package scheduling

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syntura/hms/internal/platform/db"
)

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const apptCols = `a.id, a.patient_id, p.name, a.doctor_id, d.name, d.specialization,
	a.appointment_date, a.appointment_time, a.reason, a.status, a.created_at, a.updated_at`

const apptFrom = ` FROM appointments a
	JOIN patients p ON p.id = a.patient_id
	JOIN doctors d ON d.id = a.doctor_id`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.DoctorID, &a.DoctorName, &a.Department,
		&a.AppointmentDate, &a.AppointmentTime, &a.Reason, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, appointment_date, appointment_time, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.AppointmentDate, a.AppointmentTime, a.Reason, a.Status).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	return db.TranslateError(err, "Appointment")
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+apptFrom+` WHERE a.id = $1`, id))
	return a, db.TranslateError(err, "Appointment")
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE appointments SET appointment_date = $2, appointment_time = $3, reason = $4, status = $5
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.AppointmentDate, a.AppointmentTime, a.Reason, a.Status).Scan(&a.UpdatedAt)
	return db.TranslateError(err, "Appointment")
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err == nil && tag.RowsAffected() == 0 {
		err = pgx.ErrNoRows
	}
	return db.TranslateError(err, "Appointment")
}

func (r *appointmentRepoPG) List(ctx context.Context, f Filter) ([]*Appointment, error) {
	query := `SELECT ` + apptCols + apptFrom + ` WHERE 1=1`
	var args []interface{}
	add := func(clause string, v interface{}) {
		args = append(args, v)
		query += ` AND ` + clause + strconv.Itoa(len(args))
	}

	if f.PatientID != uuid.Nil {
		add(`a.patient_id = $`, f.PatientID)
	}
	if f.DoctorID != uuid.Nil {
		add(`a.doctor_id = $`, f.DoctorID)
	}
	if f.Status != "" {
		add(`a.status = $`, f.Status)
	}
	if !f.Date.IsZero() {
		add(`a.appointment_date = $`, f.Date)
	}
	if f.Ascending {
		query += ` ORDER BY a.appointment_date, a.appointment_time, a.id`
	} else {
		query += ` ORDER BY a.appointment_date DESC, a.appointment_time DESC, a.id`
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, db.TranslateError(err, "Appointment")
	}
	defer rows.Close()

	items := []*Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, db.TranslateError(err, "Appointment")
		}
		items = append(items, a)
	}
	return items, db.TranslateError(rows.Err(), "Appointment")
}
