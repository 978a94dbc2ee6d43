package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
)

// PageAccess enforces menu visibility on routes that carry a page id in
// param: the signed-in role must see the page in its menu.
func PageAccess(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			state := ClientFrom(c)
			if state == nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "missing client state")
			}
			sess := state.Session.Snapshot()
			if !sess.Authenticated() {
				return domain.ErrNotAuthenticated
			}
			if !domain.CanSee(sess.Role(), domain.PageID(c.Param(param))) {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

// RequireSession rejects anonymous clients with 401.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			state := ClientFrom(c)
			if state == nil || !state.Session.Snapshot().Authenticated() {
				return domain.ErrNotAuthenticated
			}
			return next(c)
		}
	}
}
