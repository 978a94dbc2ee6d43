package ports

import (
	"context"

	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
)

// AuthAPI is the authentication surface of the backend.
type AuthAPI interface {
	// Login exchanges credentials for a bearer token and the profile.
	Login(ctx context.Context, creds domain.Credentials) (string, *domain.Profile, error)
	// Me resolves the profile behind token.
	Me(ctx context.Context, token string) (*domain.Profile, error)
}
