package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the closed set of roles the backend assigns to accounts.
type Role string

const (
	RoleUser    Role = "user"
	RoleMonitor Role = "monitor"
	RoleAdmin   Role = "admin"
)

var ErrUnknownRole = errors.New("unknown role")

// Roles lists every role in privilege order.
var Roles = []Role{RoleUser, RoleMonitor, RoleAdmin}

// ParseRole maps a wire value onto the closed role set.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleUser, RoleMonitor, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleMonitor, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// Profile is the authenticated account as returned by the auth endpoints.
// It is replaced wholesale on every login or profile fetch.
type Profile struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role"`
}

// Credentials is what the login form collects.
type Credentials struct {
	Username string `json:"username" form:"username" validate:"required"`
	Email    string `json:"email"    form:"email"    validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}
