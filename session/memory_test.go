package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCreateGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	s, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if s.Token == "" {
		t.Fatal("expected a token")
	}

	got, err := m.Get(ctx, s.Token)
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != "u1" {
		t.Fatalf("expected u1, got %s", got.UserID)
	}

	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	m := NewMemory(WithTTL(time.Minute), WithClock(func() time.Time { return now }))

	s, _ := m.Create(ctx, "u1")
	now = now.Add(2 * time.Minute)

	if _, err := m.Get(ctx, s.Token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired session to be gone, got %v", err)
	}
	if m.Len() != 0 {
		t.Fatal("expected expired session to be evicted on read")
	}
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	a, _ := m.Create(ctx, "u1")
	b, _ := m.Create(ctx, "u1")
	c, _ := m.Create(ctx, "u2")

	if err := m.Delete(ctx, a.Token); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get(ctx, a.Token); !errors.Is(err, ErrNotFound) {
		t.Fatal("expected deleted session to be gone")
	}

	if err := m.DeleteUser(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get(ctx, b.Token); !errors.Is(err, ErrNotFound) {
		t.Fatal("expected user sessions to be gone")
	}
	if _, err := m.Get(ctx, c.Token); err != nil {
		t.Fatal("other users keep their sessions")
	}
}

func TestMemoryMaxSize(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	m := NewMemory(WithMaxSize(2), WithClock(func() time.Time { return now }))

	first, _ := m.Create(ctx, "u1")
	now = now.Add(time.Second)
	_, _ = m.Create(ctx, "u2")
	now = now.Add(time.Second)
	_, _ = m.Create(ctx, "u3")

	if m.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", m.Len())
	}
	if _, err := m.Get(ctx, first.Token); !errors.Is(err, ErrNotFound) {
		t.Fatal("expected oldest session to be evicted")
	}
}
