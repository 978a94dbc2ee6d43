package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/diosesguerreros/vehicle-portal/internal/api/middleware"
	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
	"github.com/diosesguerreros/vehicle-portal/internal/core/service"
	"github.com/diosesguerreros/vehicle-portal/internal/infrastructure/tokenstore"
)

type noAuth struct{}

func (noAuth) Login(context.Context, domain.Credentials) (string, *domain.Profile, error) {
	return "", nil, domain.ErrInvalidCredentials
}

func (noAuth) Me(context.Context, string) (*domain.Profile, error) {
	return nil, domain.ErrUnauthorized
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestRouter(t *testing.T, backendErr error) http.Handler {
	t.Helper()
	h, _ := newTestRouterWithClients(t, backendErr)
	return h
}

func newTestRouterWithClients(t *testing.T, backendErr error) (http.Handler, *service.ClientRegistry) {
	t.Helper()
	screens := service.NewScreenRegistry(service.DashboardScreen{})
	clients := service.NewClientRegistry(tokenstore.NewMemory().For, noAuth{}, nil, screens, zerolog.Nop())
	reg := prometheus.NewRegistry()
	e, err := NewRouter(Deps{
		Clients:    clients,
		Screens:    screens,
		Cookie:     middleware.CookieOptions{Secret: "test-secret"},
		Backend:    stubPinger{err: backendErr},
		Log:        zerolog.Nop(),
		Registerer: reg,
		Gatherer:   reg,
	})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	return e, clients
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	h := newTestRouter(t, nil)

	for _, path := range []string{"/health", "/static/app.css", "/metrics"} {
		if rec := serve(h, http.MethodGet, path); rec.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRouter_ReadinessWithOptionalStoresDisabled(t *testing.T) {
	rec := serve(newTestRouter(t, nil), http.MethodGet, "/health/ready")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Status       string `json:"status"`
		Dependencies map[string]struct {
			Status string `json:"status"`
		} `json:"dependencies"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Dependencies["mongodb"].Status != "disabled" || body.Dependencies["redis"].Status != "disabled" {
		t.Fatalf("expected optional stores disabled, got %+v", body.Dependencies)
	}
}

func TestRouter_ReadinessBackendDown(t *testing.T) {
	rec := serve(newTestRouter(t, errors.New("connection refused")), http.MethodGet, "/health/ready")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestRouter_ShellIssuesClientCookie(t *testing.T) {
	rec := serve(newTestRouter(t, nil), http.MethodGet, "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `action="/login"`) {
		t.Fatalf("expected login page, got %d", rec.Code)
	}
	var found bool
	for _, c := range rec.Result().Cookies() {
		found = found || c.Name == middleware.ClientCookieName
	}
	if !found {
		t.Fatalf("expected %s cookie", middleware.ClientCookieName)
	}
}

func TestRouter_APIErrorsUseEnvelope(t *testing.T) {
	rec := serve(newTestRouter(t, nil), http.MethodGet, "/api/menu")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error == "" {
		t.Fatalf("expected error envelope, got %q", rec.Body.String())
	}
}

func TestRouter_UnmatchedPathsCreateNoClient(t *testing.T) {
	h, clients := newTestRouterWithClients(t, nil)

	for _, path := range []string{"/favicon.ico", "/wp-login.php", "/api/unknown"} {
		rec := serve(h, http.MethodGet, path)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("GET %s: expected 404, got %d", path, rec.Code)
		}
		if cookies := rec.Result().Cookies(); len(cookies) != 0 {
			t.Fatalf("GET %s: unexpected cookies %v", path, cookies)
		}
	}
	if n := clients.Len(); n != 0 {
		t.Fatalf("expected no client state, got %d", n)
	}

	serve(h, http.MethodGet, "/")
	if n := clients.Len(); n != 1 {
		t.Fatalf("expected one client after visiting the shell, got %d", n)
	}
}
