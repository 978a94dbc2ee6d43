package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
	"github.com/diosesguerreros/vehicle-portal/internal/core/service"
)

// SessionHandler exposes the session, menu and screens of the calling client
// as JSON.
type SessionHandler struct {
	screens *service.ScreenRegistry
	log     zerolog.Logger
}

func NewSessionHandler(screens *service.ScreenRegistry, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{screens: screens, log: log.With().Str("component", "session_handler").Logger()}
}

// --- Request / Response types ---

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Status domain.SessionStatus `json:"status"`
	User   *domain.Profile      `json:"user,omitempty"`
}

type menuResponse struct {
	Items       []domain.MenuItem `json:"items"`
	CurrentPage domain.PageID     `json:"current_page"`
	SidebarOpen bool              `json:"sidebar_open"`
}

func toSessionResponse(s domain.Session) sessionResponse {
	return sessionResponse{Status: s.Status, User: s.User}
}

// Get returns the session of the calling client.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /api/session [get]
func (h *SessionHandler) Get(c echo.Context) error {
	state, err := ctxClient(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(state.Session.Snapshot()))
}

// Login authenticates the calling client against the backend.
//
// @Summary      Login
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  domain.LoginResult
// @Failure      401   {object}  domain.LoginResult
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/session [post]
func (h *SessionHandler) Login(c echo.Context) error {
	state, err := ctxClient(c)
	if err != nil {
		return err
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	done, err := state.InFlight.Begin("login")
	if err != nil {
		return err
	}
	defer done()

	result := state.Session.Login(c.Request().Context(), domain.Credentials{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if !result.Success {
		return c.JSON(http.StatusUnauthorized, result)
	}
	state.Router.Select(domain.LandingPage)
	return c.JSON(http.StatusOK, result)
}

// Logout ends the session of the calling client. It is idempotent.
//
// @Summary      Logout
// @Tags         session
// @Success      204
// @Router       /api/session [delete]
func (h *SessionHandler) Logout(c echo.Context) error {
	state, err := ctxClient(c)
	if err != nil {
		return err
	}
	state.Session.Logout(c.Request().Context())
	state.Router.Select(domain.LandingPage)
	return c.NoContent(http.StatusNoContent)
}

// Refresh re-reads the profile behind the stored token.
//
// @Summary      Refresh profile
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/session/refresh [post]
func (h *SessionHandler) Refresh(c echo.Context) error {
	state, err := ctxClient(c)
	if err != nil {
		return err
	}
	if err := state.Session.Refresh(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(state.Session.Snapshot()))
}

// Menu returns the menu of the signed-in role and the navigation state.
//
// @Summary      Menu
// @Tags         navigation
// @Produce      json
// @Success      200  {object}  menuResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/menu [get]
func (h *SessionHandler) Menu(c echo.Context) error {
	state, err := ctxClient(c)
	if err != nil {
		return err
	}
	sess := state.Session.Snapshot()
	nav := state.Router.State()
	return c.JSON(http.StatusOK, menuResponse{
		Items:       domain.ResolveMenu(sess.Role()),
		CurrentPage: state.Router.Resolve(sess.Role()).ID(),
		SidebarOpen: nav.SidebarOpen,
	})
}

// Screen loads one screen for the signed-in user.
//
// @Summary      Load a screen
// @Tags         screens
// @Produce      json
// @Param        page  path      string  true  "Page id (e.g. vehicles)"
// @Success      200   {object}  service.ScreenView
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/screens/{page} [get]
func (h *SessionHandler) Screen(c echo.Context) error {
	state, err := ctxClient(c)
	if err != nil {
		return err
	}
	id := domain.PageID(c.Param("page"))
	screen, ok := h.screens.Lookup(id)
	if !ok {
		return fmt.Errorf("screen %s: %w", id, domain.ErrNotFound)
	}
	return c.JSON(http.StatusOK, screen.Load(c.Request().Context(), state.Session.Snapshot()))
}
