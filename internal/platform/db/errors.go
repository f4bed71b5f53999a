package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/syntura/hms/internal/platform/apperr"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// TranslateError maps pgx errors onto apperr kinds. entity names the row
// being read or written and is used for not-found messages.
func TranslateError(err error, entity string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if entity == "" {
			entity = "Record"
		}
		return apperr.NotFound(entity)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &apperr.Error{Kind: apperr.KindConflict, Message: pgErr.Message, Err: err}
		case pgForeignKeyViolation:
			return &apperr.Error{Kind: apperr.KindNotFound, Message: referencedEntity(pgErr.ConstraintName) + " not found", Err: err}
		}
	}
	return apperr.Failed(err)
}

func referencedEntity(constraint string) string {
	switch constraint {
	case "appointments_patient_id_fkey", "treatments_patient_id_fkey":
		return "Patient"
	case "appointments_doctor_id_fkey", "treatments_doctor_id_fkey":
		return "Doctor"
	default:
		return "Referenced record"
	}
}
