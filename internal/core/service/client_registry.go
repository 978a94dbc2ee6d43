package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/diosesguerreros/vehicle-portal/internal/api/metrics"
	"github.com/diosesguerreros/vehicle-portal/internal/core/ports"
)

// TokenStoreFactory returns the token store that belongs to clientID.
type TokenStoreFactory func(clientID string) ports.TokenStore

// ClientState is everything the front-end keeps for one browser.
type ClientState struct {
	ID       string
	Session  *SessionStore
	Router   *PageRouter
	InFlight *InFlight

	mu       sync.Mutex
	lastSeen time.Time
}

func (c *ClientState) touch(now time.Time) {
	c.mu.Lock()
	c.lastSeen = now
	c.mu.Unlock()
}

func (c *ClientState) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// ClientRegistry owns the ClientState of every active browser.
type ClientRegistry struct {
	tokens  TokenStoreFactory
	auth    ports.AuthAPI
	audit   ports.SessionAuditor
	screens *ScreenRegistry
	log     zerolog.Logger
	now     func() time.Time

	mu      sync.Mutex
	clients map[string]*ClientState
}

// NewClientRegistry wires the shared collaborators. audit may be nil.
func NewClientRegistry(
	tokens TokenStoreFactory,
	auth ports.AuthAPI,
	audit ports.SessionAuditor,
	screens *ScreenRegistry,
	log zerolog.Logger,
) *ClientRegistry {
	return &ClientRegistry{
		tokens:  tokens,
		auth:    auth,
		audit:   audit,
		screens: screens,
		log:     log,
		now:     time.Now,
		clients: make(map[string]*ClientState),
	}
}

// Get returns the state for clientID, creating it on first use. The session
// is bootstrapped from the persisted token before Get returns.
func (r *ClientRegistry) Get(ctx context.Context, clientID string) *ClientState {
	r.mu.Lock()
	state, ok := r.clients[clientID]
	if !ok {
		state = &ClientState{
			ID:       clientID,
			Session:  NewSessionStore(clientID, r.tokens(clientID), r.auth, r.audit, r.log),
			Router:   NewPageRouter(r.screens),
			InFlight: NewInFlight(),
		}
		r.clients[clientID] = state
		metrics.ActiveClients.Set(float64(len(r.clients)))
	}
	r.mu.Unlock()

	state.touch(r.now())
	state.Session.Bootstrap(ctx)
	return state
}

// Forget drops the in-memory state of clientID. The persisted token is kept.
func (r *ClientRegistry) Forget(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, clientID)
	metrics.ActiveClients.Set(float64(len(r.clients)))
}

// Sweep drops states untouched for longer than idle and returns how many went.
// A swept client bootstraps again from its persisted token on its next request.
func (r *ClientRegistry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for id, state := range r.clients {
		if state.idleSince().Before(cutoff) {
			delete(r.clients, id)
			dropped++
		}
	}
	metrics.ActiveClients.Set(float64(len(r.clients)))
	if dropped > 0 {
		r.log.Debug().Int("dropped", dropped).Int("active", len(r.clients)).Msg("idle clients swept")
	}
	return dropped
}

// Len reports the number of clients held in memory.
func (r *ClientRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}
