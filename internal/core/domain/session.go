package domain

import (
	"errors"
	"time"
)

// SessionStatus is the lifecycle state of a client session.
type SessionStatus string

const (
	StatusUninitialized SessionStatus = "uninitialized"
	StatusLoading       SessionStatus = "loading"
	StatusAuthenticated SessionStatus = "authenticated"
	StatusAnonymous     SessionStatus = "anonymous"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("access forbidden")
	ErrNotFound           = errors.New("not found")
	ErrNetwork            = errors.New("network error")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrBusy               = errors.New("request already in progress")
	ErrValidation         = errors.New("validation failed")
	ErrReadOnly           = errors.New("page is read-only")
)

// Session is a point-in-time copy of a client's authentication state.
// Status is Authenticated iff both Token and User are present.
type Session struct {
	Token  string        `json:"-"`
	User   *Profile      `json:"user,omitempty"`
	Status SessionStatus `json:"status"`
}

// Authenticated reports whether the snapshot carries a usable identity.
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.Token != "" && s.User != nil
}

// Role returns the role of the signed-in user, or "" when anonymous.
func (s Session) Role() Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// LoginResult is the structured outcome of a login attempt.
type LoginResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SessionEventType names a session transition recorded in the audit trail.
type SessionEventType string

const (
	EventBootstrapped     SessionEventType = "bootstrapped"
	EventBootstrapFailed  SessionEventType = "bootstrap_failed"
	EventLoggedIn         SessionEventType = "logged_in"
	EventLoginFailed      SessionEventType = "login_failed"
	EventLoggedOut        SessionEventType = "logged_out"
	EventRefreshFailed    SessionEventType = "refresh_failed"
	EventProfileRefreshed SessionEventType = "profile_refreshed"
)

// SessionEvent is one audit record.
type SessionEvent struct {
	ClientID string           `json:"client_id" bson:"client_id"`
	Type     SessionEventType `json:"type" bson:"type"`
	Username string           `json:"username,omitempty" bson:"username,omitempty"`
	Role     Role             `json:"role,omitempty" bson:"role,omitempty"`
	Error    string           `json:"error,omitempty" bson:"error,omitempty"`
	At       time.Time        `json:"at" bson:"at"`
}

// ErrMalformedResponse marks backend payloads that fail to decode or validate.
var ErrMalformedResponse = errors.New("malformed response")

// ServerMessage returns the human-readable message a backend attached to err.
func ServerMessage(err error) (string, bool) {
	var m interface{ ServerMessage() string }
	if errors.As(err, &m) && m.ServerMessage() != "" {
		return m.ServerMessage(), true
	}
	return "", false
}
