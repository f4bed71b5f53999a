package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindUnauthenticated, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindOperationFailed, http.StatusInternalServerError},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.kind.Status(); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.kind, tt.want, got)
		}
	}
}

func TestMessages(t *testing.T) {
	if got := Required("email").Error(); got != "email is required" {
		t.Errorf("unexpected message %q", got)
	}
	if got := NotFound("Doctor").Error(); got != "Doctor not found" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestFailed_PassesMessageThrough(t *testing.T) {
	cause := errors.New("duplicate key value violates unique constraint")
	err := Failed(cause)
	if err.Message != cause.Error() {
		t.Errorf("expected message passthrough, got %q", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Error("expected Failed to unwrap to its cause")
	}
	if Failed(nil) != nil {
		t.Error("expected Failed(nil) to be nil")
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("load doctor: %w", NotFound("Doctor"))
	if KindOf(err) != KindNotFound {
		t.Errorf("expected not_found, got %s", KindOf(err))
	}
	if !Is(err, KindNotFound) {
		t.Error("expected Is to match wrapped kind")
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Error("expected plain error to be internal")
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap("create doctor", Failed(cause))
	if KindOf(err) != KindOperationFailed {
		t.Fatalf("expected operation_failed, got %s", KindOf(err))
	}
	if err.Error() != "Failed to create doctor: connection reset" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected Wrap to keep the cause reachable")
	}

	conflict := Conflict("Email already registered")
	if Wrap("create doctor", conflict) != error(conflict) {
		t.Error("expected client-facing kinds to pass through unchanged")
	}
	if Wrap("x", nil) != nil {
		t.Error("expected Wrap(nil) to be nil")
	}
}
