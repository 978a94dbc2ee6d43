package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/diosesguerreros/vehicle-portal/internal/api/middleware"
	"github.com/diosesguerreros/vehicle-portal/internal/core/service"
)

// ctxClient returns the client state injected by the Client middleware.
// Its absence means the route was registered outside the client group.
func ctxClient(c echo.Context) (*service.ClientState, error) {
	state := middleware.ClientFrom(c)
	if state == nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "missing client state")
	}
	return state, nil
}
