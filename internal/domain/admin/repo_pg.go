package admin

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syntura/hms/internal/platform/db"
)

// -- Department Repository --

type deptRepoPG struct{ pool *pgxpool.Pool }

func NewDepartmentRepoPG(pool *pgxpool.Pool) DepartmentRepository {
	return &deptRepoPG{pool: pool}
}

func (r *deptRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

func (r *deptRepoPG) List(ctx context.Context) ([]Department, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, name, COALESCE(icon, ''), COALESCE(description, '')
		FROM departments ORDER BY name`)
	if err != nil {
		return nil, db.TranslateError(err, "Department")
	}
	defer rows.Close()

	items := []Department{}
	for rows.Next() {
		var (
			d  Department
			id uuid.UUID
		)
		if err := rows.Scan(&id, &d.Name, &d.Icon, &d.Description); err != nil {
			return nil, db.TranslateError(err, "Department")
		}
		d.ID = &id
		items = append(items, d)
	}
	return items, db.TranslateError(rows.Err(), "Department")
}

func (r *deptRepoPG) Insert(ctx context.Context, d *Department) (bool, error) {
	id := uuid.New()
	tag, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO departments (id, name, icon, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING`,
		id, d.Name, d.Icon, d.Description)
	if err != nil {
		return false, db.TranslateError(err, "Department")
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	d.ID = &id
	return true, nil
}

// -- Stats Repository --

type statsRepoPG struct{ pool *pgxpool.Pool }

func NewStatsRepoPG(pool *pgxpool.Pool) StatsRepository {
	return &statsRepoPG{pool: pool}
}

func (r *statsRepoPG) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM doctors),
			(SELECT COUNT(*) FROM patients),
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'scheduled'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'cancelled')
		FROM appointments`).
		Scan(&d.TotalDoctors, &d.TotalPatients, &d.TotalAppointments,
			&d.ScheduledAppointments, &d.CompletedAppointments, &d.CancelledAppointments)
	if err != nil {
		return nil, db.TranslateError(err, "Dashboard")
	}
	return &d, nil
}
