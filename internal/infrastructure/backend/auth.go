package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
)

const (
	loginPath = "/api/auth/login"
	mePath    = "/api/auth/me"
)

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password_hash"`
}

type userSchema struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type loginResponse struct {
	AccessToken string      `json:"access_token"`
	User        *userSchema `json:"user"`
}

type meResponse struct {
	User *userSchema `json:"user"`
}

// profile validates the wire user and maps it onto the domain.
func (u *userSchema) profile() (*domain.Profile, error) {
	if u == nil {
		return nil, errors.New("missing user")
	}
	if u.ID <= 0 || u.Username == "" {
		return nil, errors.New("user without id or username")
	}
	role, err := domain.ParseRole(u.Role)
	if err != nil {
		return nil, err
	}
	return &domain.Profile{ID: u.ID, Username: u.Username, Email: u.Email, Role: role}, nil
}

// Login posts the credentials and returns the issued token with the profile.
// A 401 answer wraps domain.ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (string, *domain.Profile, error) {
	body, err := jsonBody(loginRequest{Username: creds.Username, Email: creds.Email, Password: creds.Password})
	if err != nil {
		return "", nil, err
	}

	payload, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        loginPath,
		body:        body,
		contentType: "application/json",
	})
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Status == http.StatusUnauthorized {
			se.base = domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	var resp loginResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return "", nil, &DecodeError{Path: loginPath, Err: err}
	}
	if resp.AccessToken == "" {
		return "", nil, &DecodeError{Path: loginPath, Err: errors.New("missing access_token")}
	}
	profile, err := resp.User.profile()
	if err != nil {
		return "", nil, &DecodeError{Path: loginPath, Err: err}
	}
	return resp.AccessToken, profile, nil
}

// Me fetches the profile behind token.
func (c *Client) Me(ctx context.Context, token string) (*domain.Profile, error) {
	payload, err := c.do(ctx, request{method: http.MethodGet, path: mePath, token: token})
	if err != nil {
		return nil, err
	}

	var resp meResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, &DecodeError{Path: mePath, Err: err}
	}
	profile, err := resp.User.profile()
	if err != nil {
		return nil, &DecodeError{Path: mePath, Err: err}
	}
	return profile, nil
}
