package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/diosesguerreros/vehicle-portal/internal/core/service"
)

const (
	// ClientCookieName carries the signed browser id.
	ClientCookieName = "portal_client"

	clientKey      = "client"
	clientIDKey    = "client_id"
	clientIssuer   = "vehicle-portal"
	clientLifetime = 365 * 24 * time.Hour
)

// ClientResolver returns the state of a browser, creating it on first use.
type ClientResolver interface {
	Get(ctx context.Context, clientID string) *service.ClientState
}

// CookieOptions controls the browser id cookie.
type CookieOptions struct {
	Secret string
	Secure bool
}

// Client identifies the browser through a signed cookie and injects its
// ClientState into the context. A missing or forged cookie gets a fresh id.
func Client(opts CookieOptions, clients ClientResolver) echo.MiddlewareFunc {
	secret := []byte(opts.Secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			clientID := ""
			if cookie, err := c.Cookie(ClientCookieName); err == nil {
				clientID = parseClientToken(cookie.Value, secret)
			}
			if clientID == "" {
				clientID = uuid.NewString()
				signed, err := signClientToken(clientID, secret, time.Now())
				if err != nil {
					return err
				}
				c.SetCookie(&http.Cookie{
					Name:     ClientCookieName,
					Value:    signed,
					Path:     "/",
					MaxAge:   int(clientLifetime / time.Second),
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			c.Set(clientIDKey, clientID)
			c.Set(clientKey, clients.Get(c.Request().Context(), clientID))
			return next(c)
		}
	}
}

// ClientFrom returns the state injected by Client, or nil.
func ClientFrom(c echo.Context) *service.ClientState {
	state, _ := c.Get(clientKey).(*service.ClientState)
	return state
}

// ClearClientCookie expires the browser id so the next request starts fresh.
func ClearClientCookie(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     ClientCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func signClientToken(clientID string, secret []byte, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   clientID,
		Issuer:    clientIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(clientLifetime)),
	})
	return token.SignedString(secret)
}

// parseClientToken returns the client id of a valid token, or "".
func parseClientToken(raw string, secret []byte) string {
	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	}, jwt.WithIssuer(clientIssuer))
	if err != nil || !tkn.Valid {
		return ""
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return ""
	}
	return claims.Subject
}
