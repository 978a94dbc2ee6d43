package domain

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"admin", RoleAdmin},
		{"ADMIN", RoleAdmin},
		{" Monitor ", RoleMonitor},
		{"user\n", RoleUser},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseRole(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestParseRole_Unknown(t *testing.T) {
	for _, in := range []string{"", "root", "admins"} {
		got, err := ParseRole(in)
		if !errors.Is(err, ErrUnknownRole) {
			t.Errorf("ParseRole(%q): expected ErrUnknownRole, got %v", in, err)
		}
		if got != "" || got.Valid() {
			t.Errorf("ParseRole(%q) returned role %q", in, got)
		}
	}
}
