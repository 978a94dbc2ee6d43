package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/diosesguerreros/vehicle-portal/internal/api/metrics"
	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
	"github.com/diosesguerreros/vehicle-portal/internal/core/ports"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgNetworkError       = "Network error"
	msgUnexpectedResponse = "Unexpected response from server"
)

// SessionStore is the single writer of one client's authentication state.
// Readers take snapshots; Bootstrap, Login, Logout and Refresh are serialized.
type SessionStore struct {
	clientID string
	tokens   ports.TokenStore
	auth     ports.AuthAPI
	audit    ports.SessionAuditor
	log      zerolog.Logger
	now      func() time.Time

	writeMu sync.Mutex

	mu    sync.RWMutex
	state domain.Session
}

// NewSessionStore returns a store in the Uninitialized state. audit may be nil.
func NewSessionStore(
	clientID string,
	tokens ports.TokenStore,
	auth ports.AuthAPI,
	audit ports.SessionAuditor,
	log zerolog.Logger,
) *SessionStore {
	return &SessionStore{
		clientID: clientID,
		tokens:   tokens,
		auth:     auth,
		audit:    audit,
		log:      log.With().Str("client_id", clientID).Logger(),
		now:      time.Now,
		state:    domain.Session{Status: domain.StatusUninitialized},
	}
}

// Snapshot returns a copy of the current session.
func (s *SessionStore) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySession(s.state)
}

// Bootstrap restores the session from the persisted token. It runs once per
// store; later calls return the settled state. Concurrent callers block until
// the first call settles. A cancelled ctx does not abort it.
func (s *SessionStore) Bootstrap(ctx context.Context) domain.Session {
	ctx = context.WithoutCancel(ctx)
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.Snapshot().Status != domain.StatusUninitialized {
		return s.Snapshot()
	}

	token, err := s.tokens.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("read persisted token failed")
		s.becomeAnonymous(ctx)
		s.publish(domain.EventBootstrapFailed, nil, err)
		return s.Snapshot()
	}
	if token == "" {
		s.set(domain.Session{Status: domain.StatusAnonymous})
		return s.Snapshot()
	}

	s.set(domain.Session{Status: domain.StatusLoading})

	profile, err := s.auth.Me(ctx, token)
	if err != nil {
		s.log.Info().Err(err).Msg("persisted token rejected")
		s.becomeAnonymous(ctx)
		s.publish(domain.EventBootstrapFailed, nil, err)
		return s.Snapshot()
	}

	s.set(domain.Session{Token: token, User: profile, Status: domain.StatusAuthenticated})
	s.publish(domain.EventBootstrapped, profile, nil)
	return s.Snapshot()
}

// Login authenticates creds against the backend. Failures leave any existing
// session untouched and are reported in the result, never as an error.
func (s *SessionStore) Login(ctx context.Context, creds domain.Credentials) domain.LoginResult {
	ctx = context.WithoutCancel(ctx)
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	token, profile, err := s.auth.Login(ctx, creds)
	if err == nil && (token == "" || profile == nil) {
		err = domain.ErrMalformedResponse
	}
	if err != nil {
		msg := loginFailureMessage(err)
		result := "rejected"
		if msg == msgNetworkError || msg == msgUnexpectedResponse {
			result = "error"
		}
		metrics.LoginAttemptsTotal.WithLabelValues(result).Inc()
		s.log.Info().Err(err).Str("username", creds.Username).Msg("login failed")
		s.publishFor(domain.EventLoginFailed, creds.Username, "", err)
		return domain.LoginResult{Success: false, Error: msg}
	}

	if err := s.tokens.Save(ctx, token); err != nil {
		s.log.Error().Err(err).Msg("persist token failed, session will not survive a reload")
	}

	s.set(domain.Session{Token: token, User: profile, Status: domain.StatusAuthenticated})
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("username", profile.Username).Str("role", string(profile.Role)).Msg("logged in")
	s.publish(domain.EventLoggedIn, profile, nil)
	return domain.LoginResult{Success: true}
}

// Logout drops the session locally. It never calls the backend and is idempotent.
func (s *SessionStore) Logout(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev := s.Snapshot()
	s.becomeAnonymous(ctx)
	if prev.Status == domain.StatusAuthenticated {
		s.publish(domain.EventLoggedOut, prev.User, nil)
	}
}

// Refresh re-fetches the profile for the current token. A failure ends the
// session. Like Bootstrap, it runs to completion once started.
func (s *SessionStore) Refresh(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.Snapshot()
	if !cur.Authenticated() {
		return domain.ErrNotAuthenticated
	}

	profile, err := s.auth.Me(ctx, cur.Token)
	if err != nil {
		s.log.Info().Err(err).Msg("profile refresh failed")
		s.becomeAnonymous(ctx)
		s.publish(domain.EventRefreshFailed, cur.User, err)
		return err
	}

	s.set(domain.Session{Token: cur.Token, User: profile, Status: domain.StatusAuthenticated})
	s.publish(domain.EventProfileRefreshed, profile, nil)
	return nil
}

// becomeAnonymous clears memory first so readers never see a stale profile.
func (s *SessionStore) becomeAnonymous(ctx context.Context) {
	s.set(domain.Session{Status: domain.StatusAnonymous})
	if err := s.tokens.Clear(ctx); err != nil {
		s.log.Warn().Err(err).Msg("clear persisted token failed")
	}
}

func (s *SessionStore) set(next domain.Session) {
	s.mu.Lock()
	changed := s.state.Status != next.Status
	s.state = next
	s.mu.Unlock()
	if changed {
		metrics.SessionTransitionsTotal.WithLabelValues(string(next.Status)).Inc()
	}
}

func (s *SessionStore) publish(t domain.SessionEventType, p *domain.Profile, err error) {
	var username string
	var role domain.Role
	if p != nil {
		username, role = p.Username, p.Role
	}
	s.publishFor(t, username, role, err)
}

func (s *SessionStore) publishFor(t domain.SessionEventType, username string, role domain.Role, err error) {
	if s.audit == nil {
		return
	}
	ev := domain.SessionEvent{
		ClientID: s.clientID,
		Type:     t,
		Username: username,
		Role:     role,
		At:       s.now().UTC(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	s.audit.Publish(ev)
}

func loginFailureMessage(err error) string {
	if msg, ok := domain.ServerMessage(err); ok {
		return msg
	}
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		return msgInvalidCredentials
	case errors.Is(err, domain.ErrMalformedResponse):
		return msgUnexpectedResponse
	default:
		return msgNetworkError
	}
}

func copySession(s domain.Session) domain.Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
