package handler

import (
	"strings"
	"testing"

	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
)

func TestValidator_RequiredFieldsUseFormNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&domain.VehicleInput{UserID: 1, Make: "Honda"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"model is required", "license_plate is required", "year is required"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
	if strings.Contains(msg, "make") {
		t.Errorf("make was provided, got %q", msg)
	}
}

func TestValidator_Credentials(t *testing.T) {
	v := NewValidator()

	if err := v.Validate(&domain.Credentials{Username: "alice", Email: "alice@example.com", Password: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := v.Validate(&domain.Credentials{Username: "alice", Email: "nope", Password: "x"})
	if err == nil || err.Error() != "email must be a valid email" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidator_UserRole(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&domain.UserAccountInput{Username: "x", Email: "x@example.com", Role: "root"})
	if err == nil || !strings.Contains(err.Error(), "role must be one of: user monitor admin") {
		t.Fatalf("unexpected error: %v", err)
	}
}
