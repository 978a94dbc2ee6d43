package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubTokenStore struct {
	mu      sync.Mutex
	token   string
	loadErr error
	saveErr error
	saves   int
	clears  int
}

func (s *stubTokenStore) Load(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.loadErr
}

func (s *stubTokenStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.token = token
	return nil
}

func (s *stubTokenStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	s.token = ""
	return nil
}

func (s *stubTokenStore) stored() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// serverMessageErr mimics a backend error that carries a message.
type serverMessageErr struct {
	base error
	msg  string
}

func (e *serverMessageErr) Error() string         { return e.base.Error() + ": " + e.msg }
func (e *serverMessageErr) Unwrap() error         { return e.base }
func (e *serverMessageErr) ServerMessage() string { return e.msg }

type stubAuthAPI struct {
	mu       sync.Mutex
	users    map[string]*domain.Profile // token -> profile
	accounts map[string]string          // username -> token
	loginErr error
	meErr    error
	meCalls  int
}

func newStubAuthAPI() *stubAuthAPI {
	return &stubAuthAPI{
		users:    make(map[string]*domain.Profile),
		accounts: make(map[string]string),
	}
}

func (a *stubAuthAPI) addUser(token string, p domain.Profile) {
	a.users[token] = &p
	a.accounts[p.Username] = token
}

func (a *stubAuthAPI) Login(_ context.Context, creds domain.Credentials) (string, *domain.Profile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loginErr != nil {
		return "", nil, a.loginErr
	}
	token, ok := a.accounts[creds.Username]
	if !ok || creds.Password != "secret" {
		return "", nil, &serverMessageErr{base: domain.ErrInvalidCredentials, msg: "Invalid credentials"}
	}
	p := *a.users[token]
	return token, &p, nil
}

func (a *stubAuthAPI) Me(ctx context.Context, token string) (*domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.meCalls++
	if a.meErr != nil {
		return nil, a.meErr
	}
	p, ok := a.users[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	c := *p
	return &c, nil
}

type recordingAuditor struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func (r *recordingAuditor) Publish(e domain.SessionEvent) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingAuditor) types() []domain.SessionEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.SessionEventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func newTestStore(tokens *stubTokenStore, auth *stubAuthAPI, audit *recordingAuditor) *SessionStore {
	if audit == nil {
		return NewSessionStore("client-1", tokens, auth, nil, zerolog.Nop())
	}
	return NewSessionStore("client-1", tokens, auth, audit, zerolog.Nop())
}

var alice = domain.Profile{ID: 1, Username: "alice", Email: "alice@example.com", Role: domain.RoleAdmin}

// ---------------------------------------------------------------------------
// Bootstrap
// ---------------------------------------------------------------------------

func TestSessionStore_StartsUninitialized(t *testing.T) {
	s := newTestStore(&stubTokenStore{}, newStubAuthAPI(), nil)
	if got := s.Snapshot().Status; got != domain.StatusUninitialized {
		t.Fatalf("expected uninitialized, got %s", got)
	}
}

func TestSessionStore_Bootstrap_NoToken(t *testing.T) {
	auth := newStubAuthAPI()
	s := newTestStore(&stubTokenStore{}, auth, nil)

	sess := s.Bootstrap(context.Background())
	if sess.Status != domain.StatusAnonymous {
		t.Fatalf("expected anonymous, got %s", sess.Status)
	}
	if auth.meCalls != 0 {
		t.Fatalf("expected no profile call without a token, got %d", auth.meCalls)
	}
}

func TestSessionStore_Bootstrap_RestoresAdmin(t *testing.T) {
	auth := newStubAuthAPI()
	auth.addUser("abc123", alice)
	tokens := &stubTokenStore{token: "abc123"}
	audit := &recordingAuditor{}
	s := newTestStore(tokens, auth, audit)

	sess := s.Bootstrap(context.Background())
	if sess.Status != domain.StatusAuthenticated {
		t.Fatalf("expected authenticated, got %s", sess.Status)
	}
	if sess.User == nil || sess.User.Username != "alice" || sess.Token != "abc123" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	labels := map[string]bool{}
	for _, item := range domain.ResolveMenu(sess.Role()) {
		labels[item.Label] = true
	}
	if !labels["All Users"] || !labels["All Vehicles"] {
		t.Fatalf("admin menu missing admin entries: %v", labels)
	}
	if got := audit.types(); len(got) != 1 || got[0] != domain.EventBootstrapped {
		t.Fatalf("unexpected audit events: %v", got)
	}
}

func TestSessionStore_Bootstrap_SurvivesCancelledRequest(t *testing.T) {
	auth := newStubAuthAPI()
	auth.addUser("abc123", alice)
	tokens := &stubTokenStore{token: "abc123"}
	s := newTestStore(tokens, auth, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sess := s.Bootstrap(ctx)
	if sess.Status != domain.StatusAuthenticated {
		t.Fatalf("expected authenticated despite cancelled request, got %s", sess.Status)
	}
	if got := tokens.stored(); got != "abc123" {
		t.Fatalf("persisted token must survive, got %q", got)
	}
}

func TestSessionStore_Refresh_SurvivesCancelledRequest(t *testing.T) {
	auth := newStubAuthAPI()
	auth.addUser("abc123", alice)
	tokens := &stubTokenStore{token: "abc123"}
	s := newTestStore(tokens, auth, nil)
	s.Bootstrap(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if s.Snapshot().Status != domain.StatusAuthenticated || tokens.stored() != "abc123" {
		t.Fatalf("session lost after cancelled refresh: %+v", s.Snapshot())
	}
}

func TestSessionStore_Bootstrap_RejectedToken(t *testing.T) {
	auth := newStubAuthAPI()
	tokens := &stubTokenStore{token: "expired"}
	s := newTestStore(tokens, auth, nil)

	sess := s.Bootstrap(context.Background())
	if sess.Status != domain.StatusAnonymous {
		t.Fatalf("expected anonymous, got %s", sess.Status)
	}
	if sess.User != nil {
		t.Fatalf("expected no profile, got %+v", sess.User)
	}
	if tokens.stored() != "" {
		t.Fatalf("expected persisted token to be cleared")
	}
}

func TestSessionStore_Bootstrap_StorageError(t *testing.T) {
	tokens := &stubTokenStore{loadErr: errors.New("redis down")}
	s := newTestStore(tokens, newStubAuthAPI(), nil)

	if sess := s.Bootstrap(context.Background()); sess.Status != domain.StatusAnonymous {
		t.Fatalf("expected anonymous, got %s", sess.Status)
	}
	if tokens.clears != 1 {
		t.Fatalf("expected storage to be cleared once, got %d", tokens.clears)
	}
}

func TestSessionStore_Bootstrap_RunsOnce(t *testing.T) {
	auth := newStubAuthAPI()
	auth.addUser("abc123", alice)
	s := newTestStore(&stubTokenStore{token: "abc123"}, auth, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Bootstrap(context.Background())
		}()
	}
	wg.Wait()

	if auth.meCalls != 1 {
		t.Fatalf("expected a single profile call, got %d", auth.meCalls)
	}
}

// ---------------------------------------------------------------------------
// Login / Logout / Refresh
// ---------------------------------------------------------------------------

func TestSessionStore_Login_Success(t *testing.T) {
	auth := newStubAuthAPI()
	auth.addUser("tok-alice", alice)
	tokens := &stubTokenStore{}
	s := newTestStore(tokens, auth, nil)
	s.Bootstrap(context.Background())

	res := s.Login(context.Background(), domain.Credentials{Username: "alice", Email: alice.Email, Password: "secret"})
	if !res.Success || res.Error != "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	sess := s.Snapshot()
	if sess.Status != domain.StatusAuthenticated || sess.User.Username != "alice" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if tokens.stored() != "tok-alice" {
		t.Fatalf("expected token to be persisted, got %q", tokens.stored())
	}
}

func TestSessionStore_Login_InvalidCredentials(t *testing.T) {
	auth := newStubAuthAPI()
	tokens := &stubTokenStore{}
	audit := &recordingAuditor{}
	s := newTestStore(tokens, auth, audit)
	s.Bootstrap(context.Background())

	res := s.Login(context.Background(), domain.Credentials{Username: "bob", Email: "bob@example.com", Password: "nope"})
	if res.Success || res.Error != "Invalid credentials" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if s.Snapshot().Status != domain.StatusAnonymous {
		t.Fatalf("expected to stay anonymous")
	}
	if tokens.saves != 0 || tokens.stored() != "" {
		t.Fatalf("expected nothing persisted")
	}
	if got := audit.types(); len(got) != 1 || got[0] != domain.EventLoginFailed {
		t.Fatalf("unexpected audit events: %v", got)
	}
}

func TestSessionStore_Login_FailureMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"network", domain.ErrNetwork, "Network error"},
		{"unauthorized without message", domain.ErrUnauthorized, "Invalid credentials"},
		{"malformed", domain.ErrMalformedResponse, "Unexpected response from server"},
		{"server message", &serverMessageErr{base: errors.New("500"), msg: "Database unavailable"}, "Database unavailable"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			auth := newStubAuthAPI()
			auth.loginErr = tc.err
			s := newTestStore(&stubTokenStore{}, auth, nil)

			res := s.Login(context.Background(), domain.Credentials{Username: "x", Password: "y"})
			if res.Success || res.Error != tc.want {
				t.Fatalf("expected %q, got %+v", tc.want, res)
			}
		})
	}
}

func TestSessionStore_Login_FailureKeepsExistingSession(t *testing.T) {
	auth := newStubAuthAPI()
	auth.addUser("abc123", alice)
	s := newTestStore(&stubTokenStore{token: "abc123"}, auth, nil)
	s.Bootstrap(context.Background())

	auth.loginErr = domain.ErrNetwork
	if res := s.Login(context.Background(), domain.Credentials{Username: "alice"}); res.Success {
		t.Fatalf("expected failure")
	}
	if sess := s.Snapshot(); !sess.Authenticated() || sess.Token != "abc123" {
		t.Fatalf("expected previous session to survive, got %+v", sess)
	}
}

func TestSessionStore_Login_PersistFailureStillAuthenticates(t *testing.T) {
	auth := newStubAuthAPI()
	auth.addUser("tok-alice", alice)
	s := newTestStore(&stubTokenStore{saveErr: errors.New("disk full")}, auth, nil)

	res := s.Login(context.Background(), domain.Credentials{Username: "alice", Password: "secret"})
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if !s.Snapshot().Authenticated() {
		t.Fatalf("expected authenticated session")
	}
}

func TestSessionStore_Logout_Idempotent(t *testing.T) {
	auth := newStubAuthAPI()
	auth.addUser("abc123", alice)
	tokens := &stubTokenStore{token: "abc123"}
	audit := &recordingAuditor{}
	s := newTestStore(tokens, auth, audit)
	s.Bootstrap(context.Background())

	s.Logout(context.Background())
	first := s.Snapshot()
	s.Logout(context.Background())
	second := s.Snapshot()

	if first.Status != domain.StatusAnonymous || second.Status != domain.StatusAnonymous {
		t.Fatalf("expected anonymous after logout, got %s then %s", first.Status, second.Status)
	}
	if first.User != nil || first.Token != "" {
		t.Fatalf("expected identity to be cleared, got %+v", first)
	}
	if tokens.stored() != "" {
		t.Fatalf("expected persisted token to be cleared")
	}

	var loggedOut int
	for _, typ := range audit.types() {
		if typ == domain.EventLoggedOut {
			loggedOut++
		}
	}
	if loggedOut != 1 {
		t.Fatalf("expected one logged_out event, got %d", loggedOut)
	}
}

func TestSessionStore_Refresh(t *testing.T) {
	auth := newStubAuthAPI()
	auth.addUser("abc123", alice)
	tokens := &stubTokenStore{token: "abc123"}
	s := newTestStore(tokens, auth, nil)

	if err := s.Refresh(context.Background()); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated before bootstrap, got %v", err)
	}

	s.Bootstrap(context.Background())
	auth.users["abc123"].Role = domain.RoleMonitor
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if got := s.Snapshot().Role(); got != domain.RoleMonitor {
		t.Fatalf("expected refreshed role monitor, got %s", got)
	}

	auth.meErr = domain.ErrUnauthorized
	if err := s.Refresh(context.Background()); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if s.Snapshot().Status != domain.StatusAnonymous || tokens.stored() != "" {
		t.Fatalf("expected session to end after failed refresh")
	}
}

func TestSessionStore_SnapshotIsCopy(t *testing.T) {
	auth := newStubAuthAPI()
	auth.addUser("abc123", alice)
	s := newTestStore(&stubTokenStore{token: "abc123"}, auth, nil)
	s.Bootstrap(context.Background())

	snap := s.Snapshot()
	snap.User.Role = domain.RoleUser
	if s.Snapshot().Role() != domain.RoleAdmin {
		t.Fatalf("mutating a snapshot leaked into the store")
	}
}
