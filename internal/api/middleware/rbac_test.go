package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
	"github.com/diosesguerreros/vehicle-portal/internal/core/service"
)

// signedIn returns a client state whose session was restored from token.
func signedIn(t *testing.T, role domain.Role) *service.ClientState {
	t.Helper()
	resolver := newStubResolver(map[string]domain.Profile{
		"tok": {ID: 1, Username: "u", Role: role},
	})
	_ = resolver.tokens.For("c1").Save(context.Background(), "tok")
	state := resolver.Get(context.Background(), "c1")
	if !state.Session.Snapshot().Authenticated() {
		t.Fatalf("expected an authenticated session")
	}
	return state
}

func runPageAccess(state *service.ClientState, page string) (called bool, err error) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("page")
	c.SetParamValues(page)
	if state != nil {
		c.Set(clientKey, state)
	}

	handler := PageAccess("page")(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	err = handler(c)
	return called, err
}

func TestPageAccess_Allows(t *testing.T) {
	called, err := runPageAccess(signedIn(t, domain.RoleAdmin), "all-users")
	if err != nil || !called {
		t.Fatalf("admin should reach all-users: called=%v err=%v", called, err)
	}

	called, err = runPageAccess(signedIn(t, domain.RoleUser), "vehicles")
	if err != nil || !called {
		t.Fatalf("user should reach vehicles: called=%v err=%v", called, err)
	}
}

func TestPageAccess_Forbids(t *testing.T) {
	called, err := runPageAccess(signedIn(t, domain.RoleUser), "all-users")
	if called {
		t.Fatalf("should not reach next handler")
	}
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestPageAccess_RequiresSession(t *testing.T) {
	resolver := newStubResolver(nil)
	anon := resolver.Get(context.Background(), "anon")

	called, err := runPageAccess(anon, "vehicles")
	if called || !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got called=%v err=%v", called, err)
	}

	if _, err := runPageAccess(nil, "vehicles"); err == nil {
		t.Fatalf("expected error without client state")
	}
}
