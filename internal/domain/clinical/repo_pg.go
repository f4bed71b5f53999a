package clinical

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syntura/hms/internal/platform/db"
)

type treatmentRepoPG struct{ pool *pgxpool.Pool }

func NewTreatmentRepoPG(pool *pgxpool.Pool) TreatmentRepository {
	return &treatmentRepoPG{pool: pool}
}

func (r *treatmentRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const treatmentCols = `t.id, t.patient_id, p.name, t.doctor_id, d.name, d.specialization,
	t.visit_date, t.symptoms, t.diagnosis, t.prescription, t.follow_up_date, t.notes, t.created_at`

const treatmentFrom = ` FROM treatments t
	JOIN patients p ON p.id = t.patient_id
	JOIN doctors d ON d.id = t.doctor_id`

func scanTreatment(row pgx.Row) (*Treatment, error) {
	var t Treatment
	err := row.Scan(&t.ID, &t.PatientID, &t.PatientName, &t.DoctorID, &t.DoctorName, &t.Department,
		&t.VisitDate, &t.Symptoms, &t.Diagnosis, &t.Prescription, &t.FollowUpDate, &t.Notes, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *treatmentRepoPG) Create(ctx context.Context, t *Treatment) error {
	t.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO treatments (id, patient_id, doctor_id, visit_date, symptoms, diagnosis, prescription, follow_up_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		t.ID, t.PatientID, t.DoctorID, t.VisitDate, t.Symptoms, t.Diagnosis, t.Prescription, t.FollowUpDate, t.Notes).
		Scan(&t.CreatedAt)
	return db.TranslateError(err, "Treatment record")
}

func (r *treatmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Treatment, error) {
	t, err := scanTreatment(r.conn(ctx).QueryRow(ctx, `SELECT `+treatmentCols+treatmentFrom+` WHERE t.id = $1`, id))
	return t, db.TranslateError(err, "Treatment record")
}

func (r *treatmentRepoPG) Update(ctx context.Context, t *Treatment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE treatments SET visit_date = $2, symptoms = $3, diagnosis = $4, prescription = $5,
			follow_up_date = $6, notes = $7
		WHERE id = $1`,
		t.ID, t.VisitDate, t.Symptoms, t.Diagnosis, t.Prescription, t.FollowUpDate, t.Notes)
	if err == nil && tag.RowsAffected() == 0 {
		err = pgx.ErrNoRows
	}
	return db.TranslateError(err, "Treatment record")
}

func (r *treatmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Treatment, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+treatmentCols+treatmentFrom+`
		WHERE t.patient_id = $1
		ORDER BY t.visit_date DESC, t.created_at DESC`, patientID)
	if err != nil {
		return nil, db.TranslateError(err, "Treatment record")
	}
	defer rows.Close()

	items := []*Treatment{}
	for rows.Next() {
		t, err := scanTreatment(rows)
		if err != nil {
			return nil, db.TranslateError(err, "Treatment record")
		}
		items = append(items, t)
	}
	return items, db.TranslateError(rows.Err(), "Treatment record")
}

func (r *treatmentRepoPG) HasCareRelationship(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM appointments WHERE doctor_id = $1 AND patient_id = $2)
			OR EXISTS (SELECT 1 FROM treatments WHERE doctor_id = $1 AND patient_id = $2)`,
		doctorID, patientID).Scan(&ok)
	if err != nil {
		return false, db.TranslateError(err, "Patient")
	}
	return ok, nil
}
