package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
)

type stubRepo struct {
	mu     sync.Mutex
	events []domain.SessionEvent
	err    error
	block  chan struct{}
}

func (r *stubRepo) InsertEvent(_ context.Context, e *domain.SessionEvent) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
	return r.err
}

func (r *stubRepo) snapshot() []domain.SessionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.SessionEvent(nil), r.events...)
}

func TestDispatcher_PreservesPerClientOrder(t *testing.T) {
	repo := &stubRepo{}
	d := NewDispatcher(4, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	types := []domain.SessionEventType{domain.EventLoginFailed, domain.EventLoggedIn, domain.EventLoggedOut}
	for _, typ := range types {
		d.Publish(domain.SessionEvent{ClientID: "c1", Type: typ})
		d.Publish(domain.SessionEvent{ClientID: "c2", Type: typ})
	}

	cancel()
	d.Wait()

	var c1 []domain.SessionEventType
	for _, e := range repo.snapshot() {
		if e.ClientID == "c1" {
			c1 = append(c1, e.Type)
		}
	}
	if len(c1) != len(types) {
		t.Fatalf("expected %d events for c1, got %d", len(types), len(c1))
	}
	for i := range types {
		if c1[i] != types[i] {
			t.Fatalf("event %d out of order: got %s want %s", i, c1[i], types[i])
		}
	}
	if got := len(repo.snapshot()); got != 2*len(types) {
		t.Fatalf("expected all events written, got %d", got)
	}
}

func TestDispatcher_ShardIsStable(t *testing.T) {
	d := NewDispatcher(8, &stubRepo{}, zerolog.Nop())
	if d.shardIndex("client-x") != d.shardIndex("client-x") {
		t.Fatalf("shard index must be deterministic")
	}
	if idx := d.shardIndex("client-x"); idx < 0 || idx >= 8 {
		t.Fatalf("shard index out of range: %d", idx)
	}
}

func TestDispatcher_PublishNeverBlocks(t *testing.T) {
	repo := &stubRepo{block: make(chan struct{})}
	d := NewDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	done := make(chan struct{})
	go func() {
		for range channelBuffer + 10 {
			d.Publish(domain.SessionEvent{ClientID: "c1", Type: domain.EventLoggedIn})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Publish blocked on a full queue")
	}

	close(repo.block)
	cancel()
	d.Wait()
}

func TestDispatcher_WriteErrorsAreLogged(t *testing.T) {
	repo := &stubRepo{err: errors.New("mongo down")}
	d := NewDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Publish(domain.SessionEvent{ClientID: "c1", Type: domain.EventLoggedOut})
	cancel()
	d.Wait()

	if got := len(repo.snapshot()); got != 1 {
		t.Fatalf("expected the write to be attempted once, got %d", got)
	}
}
