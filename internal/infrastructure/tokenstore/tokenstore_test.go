package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestMemory_IsolatesClients(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a, b := m.For("a"), m.For("b")

	if err := a.Save(ctx, "tok-a"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got, _ := b.Load(ctx); got != "" {
		t.Fatalf("client b sees %q", got)
	}
	if got, _ := m.For("a").Load(ctx); got != "tok-a" {
		t.Fatalf("expected tok-a, got %q", got)
	}

	_ = a.Clear(ctx)
	_ = a.Clear(ctx)
	if got, _ := a.Load(ctx); got != "" {
		t.Fatalf("expected cleared token, got %q", got)
	}
}

func TestFile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "token")
	f := NewFile(path)

	if got, err := f.Load(ctx); err != nil || got != "" {
		t.Fatalf("missing file should load empty, got %q %v", got, err)
	}
	if err := f.Save(ctx, "abc123"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got, _ := f.Load(ctx); got != "abc123" {
		t.Fatalf("expected abc123, got %q", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600, got %o", perm)
	}

	if err := f.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := f.Clear(ctx); err != nil {
		t.Fatalf("second clear should be a no-op: %v", err)
	}
	if got, _ := f.Load(ctx); got != "" {
		t.Fatalf("expected empty after clear, got %q", got)
	}
}
