package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/syntura/hms/internal/platform/apperr"
)

func TestTxFromContext_Nil(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Error("expected nil tx from empty context")
	}
}

func TestTxFromContext_WithWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), txKey, "not-a-tx")
	if tx := TxFromContext(ctx); tx != nil {
		t.Error("expected nil tx for wrong type")
	}
}

func TestWithinTx_NoPool(t *testing.T) {
	tr := NewTransactor(nil)
	called := false
	err := tr.WithinTx(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatal("expected error without a pool")
	}
	if called {
		t.Error("fn must not run without a transaction")
	}
}

func TestNoopTransactor_PropagatesError(t *testing.T) {
	want := errors.New("boom")
	err := NoopTransactor{}.WithinTx(context.Background(), func(ctx context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    apperr.Kind
		message string
	}{
		{"no rows", pgx.ErrNoRows, apperr.KindNotFound, "Doctor not found"},
		{"unique", &pgconn.PgError{Code: "23505", Message: "duplicate key"}, apperr.KindConflict, "duplicate key"},
		{"fk patient", &pgconn.PgError{Code: "23503", ConstraintName: "appointments_patient_id_fkey"}, apperr.KindNotFound, "Patient not found"},
		{"other", errors.New("connection reset"), apperr.KindOperationFailed, "connection reset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := TranslateError(tt.err, "Doctor")
			var ae *apperr.Error
			if !errors.As(err, &ae) {
				t.Fatalf("expected *apperr.Error, got %T", err)
			}
			if ae.Kind != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, ae.Kind)
			}
			if ae.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, ae.Message)
			}
		})
	}
}

func TestTranslateError_KeepsAppErr(t *testing.T) {
	orig := apperr.Conflict("Email already registered")
	if got := TranslateError(orig, "User"); got != error(orig) {
		t.Errorf("expected app error to pass through unchanged, got %v", got)
	}
	if TranslateError(nil, "User") != nil {
		t.Error("expected nil for nil error")
	}
}
