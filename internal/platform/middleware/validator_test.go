package middleware

import (
	"testing"

	"github.com/syntura/hms/internal/platform/apperr"
)

type signup struct {
	Email  string `json:"email" validate:"required,email"`
	Name   string `json:"name" validate:"required"`
	Status string `json:"status" validate:"omitempty,oneof=scheduled completed cancelled"`
	Age    int    `json:"age" validate:"gte=0"`
}

func TestValidator_RequiredUsesJSONName(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&signup{Email: "a@b.test"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation kind, got %v", err)
	}
	if err.Error() != "name is required" {
		t.Errorf("expected %q, got %q", "name is required", err.Error())
	}
}

func TestValidator_Email(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&signup{Email: "nope", Name: "x"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if err.Error() != "email must be a valid email address" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestValidator_OneOf(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&signup{Email: "a@b.test", Name: "x", Status: "pending"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if err.Error() != "status must be one of: scheduled completed cancelled" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestValidator_Valid(t *testing.T) {
	v := NewValidator()
	if err := v.Validate(&signup{Email: "a@b.test", Name: "x", Status: "completed", Age: 30}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
