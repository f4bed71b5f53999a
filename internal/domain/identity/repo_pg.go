package identity

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syntura/hms/internal/platform/db"
)

// =========== User Repository ===========

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository { return &userRepoPG{pool: pool} }

func (r *userRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const userCols = `id, email, password_hash, role, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		u.ID, u.Email, u.PasswordHash, u.Role).Scan(&u.CreatedAt)
	return db.TranslateError(err, "User")
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
	return u, db.TranslateError(err, "User")
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, db.TranslateError(err, "User")
}

func (r *userRepoPG) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE users SET email = $2 WHERE id = $1`, id, email)
	return db.TranslateError(err, "User")
}

func (r *userRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return db.TranslateError(err, "User")
}

// =========== Doctor Repository ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

func (r *doctorRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const doctorCols = `d.id, d.user_id, d.name, u.email, d.phone, d.specialization,
	d.qualification, d.experience, d.created_at`

const doctorFrom = ` FROM doctors d JOIN users u ON u.id = d.user_id`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Email, &d.Phone, &d.Specialization,
		&d.Qualification, &d.Experience, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctors (id, user_id, name, phone, specialization, qualification, experience)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		d.ID, d.UserID, d.Name, d.Phone, d.Specialization, d.Qualification, d.Experience).Scan(&d.CreatedAt)
	return db.TranslateError(err, "Doctor")
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+doctorFrom+` WHERE d.id = $1`, id))
	return d, db.TranslateError(err, "Doctor")
}

func (r *doctorRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	d, err := scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+doctorFrom+` WHERE d.user_id = $1`, userID))
	return d, db.TranslateError(err, "Doctor profile")
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctors SET name = $2, phone = $3, specialization = $4, qualification = $5, experience = $6
		WHERE id = $1`,
		d.ID, d.Name, d.Phone, d.Specialization, d.Qualification, d.Experience)
	return db.TranslateError(err, "Doctor")
}

func (r *doctorRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	return db.TranslateError(err, "Doctor")
}

func (r *doctorRepoPG) DeleteDependents(ctx context.Context, id uuid.UUID) error {
	q := r.conn(ctx)
	if _, err := q.Exec(ctx, `DELETE FROM treatments WHERE doctor_id = $1`, id); err != nil {
		return db.TranslateError(err, "Treatment")
	}
	_, err := q.Exec(ctx, `DELETE FROM appointments WHERE doctor_id = $1`, id)
	return db.TranslateError(err, "Appointment")
}

func (r *doctorRepoPG) List(ctx context.Context, f DoctorFilter) ([]*Doctor, error) {
	query := `SELECT ` + doctorCols + doctorFrom + ` WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.Search != "" {
		query += ` AND (d.name ILIKE $` + strconv.Itoa(idx) + ` OR d.specialization ILIKE $` + strconv.Itoa(idx) + `)`
		args = append(args, "%"+f.Search+"%")
		idx++
	}
	if f.Specialization != "" {
		query += ` AND d.specialization = $` + strconv.Itoa(idx)
		args = append(args, f.Specialization)
		idx++
	}
	query += ` ORDER BY d.name, d.id`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, db.TranslateError(err, "Doctor")
	}
	defer rows.Close()

	items := []*Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, db.TranslateError(err, "Doctor")
		}
		items = append(items, d)
	}
	return items, db.TranslateError(rows.Err(), "Doctor")
}

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

func (r *patientRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const patientCols = `p.id, p.user_id, p.name, u.email, p.age, p.gender, p.phone,
	p.registration_date, p.created_at`

const patientFrom = ` FROM patients p JOIN users u ON u.id = p.user_id`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Email, &p.Age, &p.Gender, &p.Phone,
		&p.RegistrationDate, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (id, user_id, name, age, gender, phone, registration_date)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, CURRENT_DATE))
		RETURNING registration_date, created_at`,
		p.ID, p.UserID, p.Name, p.Age, p.Gender, p.Phone, p.RegistrationDate).
		Scan(&p.RegistrationDate, &p.CreatedAt)
	return db.TranslateError(err, "Patient")
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+patientFrom+` WHERE p.id = $1`, id))
	return p, db.TranslateError(err, "Patient")
}

func (r *patientRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+patientFrom+` WHERE p.user_id = $1`, userID))
	return p, db.TranslateError(err, "Patient profile")
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET name = $2, age = $3, gender = $4, phone = $5, registration_date = $6
		WHERE id = $1`,
		p.ID, p.Name, p.Age, p.Gender, p.Phone, p.RegistrationDate)
	return db.TranslateError(err, "Patient")
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	return db.TranslateError(err, "Patient")
}

func (r *patientRepoPG) DeleteDependents(ctx context.Context, id uuid.UUID) error {
	q := r.conn(ctx)
	if _, err := q.Exec(ctx, `DELETE FROM treatments WHERE patient_id = $1`, id); err != nil {
		return db.TranslateError(err, "Treatment")
	}
	_, err := q.Exec(ctx, `DELETE FROM appointments WHERE patient_id = $1`, id)
	return db.TranslateError(err, "Appointment")
}

func (r *patientRepoPG) List(ctx context.Context, search string) ([]*Patient, error) {
	query := `SELECT ` + patientCols + patientFrom
	var args []interface{}
	if search != "" {
		query += ` WHERE p.name ILIKE $1 OR p.phone ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY p.name, p.id`
	return r.list(ctx, query, args...)
}

func (r *patientRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Patient, error) {
	return r.list(ctx, `SELECT `+patientCols+patientFrom+`
		WHERE EXISTS (SELECT 1 FROM appointments a WHERE a.patient_id = p.id AND a.doctor_id = $1)
		ORDER BY p.name, p.id`, doctorID)
}

func (r *patientRepoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, db.TranslateError(err, "Patient")
	}
	defer rows.Close()

	items := []*Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, db.TranslateError(err, "Patient")
		}
		items = append(items, p)
	}
	return items, db.TranslateError(rows.Err(), "Patient")
}
