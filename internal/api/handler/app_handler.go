package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
	"github.com/diosesguerreros/vehicle-portal/internal/core/ports"
	"github.com/diosesguerreros/vehicle-portal/internal/core/service"
	"github.com/diosesguerreros/vehicle-portal/internal/web"
)

// AppHandler serves the HTML shell: login form, sidebar, header and the
// screen of the current page. State changes answer with 303 to GET /.
type AppHandler struct {
	screens *service.ScreenRegistry
	log     zerolog.Logger
}

func NewAppHandler(screens *service.ScreenRegistry, log zerolog.Logger) *AppHandler {
	return &AppHandler{screens: screens, log: log.With().Str("component", "app_handler").Logger()}
}

// Index handles GET /. The optional ?edit=<id> query fills the form with the
// matching row of the current screen.
func (h *AppHandler) Index(c echo.Context) error {
	state, err := ctxClient(c)
	if err != nil {
		return err
	}
	shell := buildShell(c.Request().Context(), state)

	if raw := c.QueryParam("edit"); raw != "" && shell.Screen.CanEdit {
		if id, err := strconv.Atoi(raw); err == nil {
			if values, ok := web.FormValues(shell.Screen, id); ok {
				shell.EditingID = id
				shell.Values = values
			}
		}
	}
	return c.Render(http.StatusOK, shell.Page(), shell)
}

// Login handles POST /login.
func (h *AppHandler) Login(c echo.Context) error {
	state, err := ctxClient(c)
	if err != nil {
		return err
	}

	var creds domain.Credentials
	if err := c.Bind(&creds); err != nil {
		return h.renderLogin(c, state, creds, http.StatusBadRequest, "Please check the form")
	}
	if err := c.Validate(&creds); err != nil {
		return h.renderLogin(c, state, creds, http.StatusUnprocessableEntity, err.Error())
	}

	done, err := state.InFlight.Begin("login")
	if err != nil {
		return h.renderLogin(c, state, creds, http.StatusConflict, service.ErrorMessage(err))
	}
	result := state.Session.Login(c.Request().Context(), creds)
	done()

	if !result.Success {
		return h.renderLogin(c, state, creds, http.StatusUnauthorized, result.Error)
	}
	state.Router.Select(domain.LandingPage)
	return c.Redirect(http.StatusSeeOther, "/")
}

// Logout handles POST /logout. It never fails.
func (h *AppHandler) Logout(c echo.Context) error {
	state, err := ctxClient(c)
	if err != nil {
		return err
	}
	state.Session.Logout(c.Request().Context())
	state.Router.Select(domain.LandingPage)
	return c.Redirect(http.StatusSeeOther, "/")
}

// Navigate handles POST /navigate. The selection is stored as sent; what is
// rendered for it is decided when the page is drawn.
func (h *AppHandler) Navigate(c echo.Context) error {
	state, err := ctxClient(c)
	if err != nil {
		return err
	}
	state.Router.Select(domain.PageID(strings.TrimSpace(c.FormValue("page"))))
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *AppHandler) ToggleSidebar(c echo.Context) error {
	state, err := ctxClient(c)
	if err != nil {
		return err
	}
	state.Router.ToggleSidebar()
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *AppHandler) CloseSidebar(c echo.Context) error {
	state, err := ctxClient(c)
	if err != nil {
		return err
	}
	state.Router.CloseSidebar()
	return c.Redirect(http.StatusSeeOther, "/")
}

// Submit handles POST /screens/:page/items and POST /screens/:page/items/:id.
// A failed submission re-renders the shell with the error and the values the
// user typed.
func (h *AppHandler) Submit(c echo.Context) error {
	state, err := ctxClient(c)
	if err != nil {
		return err
	}
	sess := state.Session.Snapshot()
	if !sess.Authenticated() {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	screen, err := h.screenFor(sess, c.Param("page"))
	if err != nil {
		return err
	}
	id, err := optionalID(c)
	if err != nil {
		return err
	}

	attachment, err := formAttachment(c)
	if err != nil {
		return h.renderFailure(c, state, id, fmt.Errorf("%w: %v", domain.ErrValidation, err))
	}

	done, err := state.InFlight.Begin(string(screen.ID()) + ":submit")
	if err != nil {
		return h.renderFailure(c, state, id, err)
	}
	err = screen.Submit(c.Request().Context(), sess, service.SubmitRequest{
		EditingID:  id,
		Bind:       func(v any) error { return (&echo.DefaultBinder{}).BindBody(c, v) },
		Attachment: attachment,
	})
	done()
	if err != nil {
		return h.renderFailure(c, state, id, err)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// Delete handles POST /screens/:page/items/:id/delete.
func (h *AppHandler) Delete(c echo.Context) error {
	state, err := ctxClient(c)
	if err != nil {
		return err
	}
	sess := state.Session.Snapshot()
	if !sess.Authenticated() {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	screen, err := h.screenFor(sess, c.Param("page"))
	if err != nil {
		return err
	}
	id, err := optionalID(c)
	if err != nil {
		return err
	}
	if id == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	done, err := state.InFlight.Begin(fmt.Sprintf("%s:delete:%d", screen.ID(), id))
	if err != nil {
		return h.renderFailure(c, state, 0, err)
	}
	err = screen.Delete(c.Request().Context(), sess, id)
	done()
	if err != nil {
		return h.renderFailure(c, state, 0, err)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// screenFor returns the registered screen for a page the session may see.
func (h *AppHandler) screenFor(sess domain.Session, page string) (service.Screen, error) {
	id := domain.PageID(page)
	if !domain.CanSee(sess.Role(), id) {
		return nil, domain.ErrForbidden
	}
	screen, ok := h.screens.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("screen %s: %w", id, domain.ErrNotFound)
	}
	return screen, nil
}

func (h *AppHandler) renderLogin(c echo.Context, state *service.ClientState, creds domain.Credentials, code int, msg string) error {
	shell := buildShell(c.Request().Context(), state)
	shell.LoginError = msg
	shell.Username = creds.Username
	shell.Email = creds.Email
	return c.Render(code, shell.Page(), shell)
}

func (h *AppHandler) renderFailure(c echo.Context, state *service.ClientState, editingID int, cause error) error {
	h.log.Debug().Err(cause).Str("page", c.Param("page")).Msg("screen action failed")

	shell := buildShell(c.Request().Context(), state)
	shell.Screen.Error = service.ErrorMessage(cause)
	shell.EditingID = editingID
	shell.Values = submittedValues(c)
	return c.Render(failureStatus(cause), shell.Page(), shell)
}

// buildShell assembles everything the current page renders from.
func buildShell(ctx context.Context, state *service.ClientState) web.Shell {
	sess := state.Session.Snapshot()
	shell := web.Shell{
		Status: sess.Status,
		User:   sess.User,
		Nav:    state.Router.State(),
	}
	if sess.Authenticated() {
		shell.Menu = domain.ResolveMenu(sess.Role())
		shell.Screen = state.Router.Resolve(sess.Role()).Load(ctx, sess)
	}
	return shell
}

func failureStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotAuthenticated), errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrReadOnly):
		return http.StatusMethodNotAllowed
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNetwork), errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		if _, ok := domain.ServerMessage(err); ok {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
}

// optionalID parses the :id path param. A route without it yields zero.
func optionalID(c echo.Context) (int, error) {
	raw := c.Param("id")
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// formAttachment returns the first non-empty file of a multipart submission,
// or nil when the form carries none.
func formAttachment(c echo.Context) (*ports.Attachment, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	names := make([]string, 0, len(form.File))
	for name := range form.File {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		for _, fh := range form.File[name] {
			if fh.Filename == "" || fh.Size == 0 {
				continue
			}
			return newAttachment(name, fh), nil
		}
	}
	return nil, nil
}

func newAttachment(field string, fh *multipart.FileHeader) *ports.Attachment {
	return &ports.Attachment{
		Field:    field,
		Filename: fh.Filename,
		Size:     fh.Size,
		Open:     func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// submittedValues echoes the posted fields back into the form.
func submittedValues(c echo.Context) map[string]string {
	params, err := c.FormParams()
	if err != nil {
		return nil
	}
	values := make(map[string]string, len(params))
	for k, v := range params {
		if len(v) > 0 && k != "password" {
			values[k] = v[0]
		}
	}
	return values
}
