// Package tokenstore holds the non-Redis token stores: an in-memory one used
// when Redis is disabled and a file-backed one used by the CLI.
package tokenstore

import (
	"context"
	"sync"

	"github.com/diosesguerreros/vehicle-portal/internal/core/ports"
)

// Memory keeps tokens for every client in process memory. Tokens do not
// survive a restart.
type Memory struct {
	mu     sync.Mutex
	tokens map[string]string
}

func NewMemory() *Memory {
	return &Memory{tokens: make(map[string]string)}
}

// For returns the store view of clientID.
func (m *Memory) For(clientID string) ports.TokenStore {
	return memoryStore{m: m, id: clientID}
}

type memoryStore struct {
	m  *Memory
	id string
}

func (s memoryStore) Load(context.Context) (string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.tokens[s.id], nil
}

func (s memoryStore) Save(_ context.Context, token string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.tokens[s.id] = token
	return nil
}

func (s memoryStore) Clear(context.Context) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.tokens, s.id)
	return nil
}
