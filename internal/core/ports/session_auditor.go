package ports

import (
	"context"

	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
)

// SessionEventRepository persists session audit records.
type SessionEventRepository interface {
	InsertEvent(ctx context.Context, event *domain.SessionEvent) error
}

// SessionAuditor accepts session events without blocking the caller.
type SessionAuditor interface {
	Publish(event domain.SessionEvent)
}
