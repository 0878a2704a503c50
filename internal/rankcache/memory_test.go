package rankcache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore_GetSet(t *testing.T) {
	s := NewMemoryStore(8, time.Hour)
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, "a", []byte("one"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "one" {
		t.Errorf("Get() = %q, want %q", got, "one")
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore(8, time.Hour)
	ctx := context.Background()

	in := []byte("abc")
	_ = s.Set(ctx, "k", in, time.Minute)
	in[0] = 'z'

	out, _ := s.Get(ctx, "k")
	if string(out) != "abc" {
		t.Errorf("stored value aliased caller slice: %q", out)
	}
	out[1] = 'z'
	again, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("returned value aliased stored slice: %q", again)
	}
}

func TestMemoryStore_PerEntryTTL(t *testing.T) {
	s := NewMemoryStore(8, time.Hour)
	ctx := context.Background()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_ = s.Set(ctx, "short", []byte("x"), time.Minute)
	_ = s.Set(ctx, "long", []byte("y"), 30*time.Minute)

	now = now.Add(2 * time.Minute)

	if _, err := s.Get(ctx, "short"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired entry returned err = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, "long"); err != nil {
		t.Errorf("live entry returned err = %v", err)
	}
}

func TestMemoryStore_Bounded(t *testing.T) {
	s := NewMemoryStore(2, time.Hour)
	ctx := context.Background()

	_ = s.Set(ctx, "a", []byte("1"), time.Minute)
	_ = s.Set(ctx, "b", []byte("2"), time.Minute)
	_ = s.Set(ctx, "c", []byte("3"), time.Minute)

	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Error("least recently used entry should have been evicted")
	}
}

func TestMemoryStore_LastWriterWins(t *testing.T) {
	s := NewMemoryStore(8, time.Hour)
	ctx := context.Background()

	_ = s.Set(ctx, "k", []byte("first"), time.Minute)
	_ = s.Set(ctx, "k", []byte("second"), time.Minute)

	got, _ := s.Get(ctx, "k")
	if string(got) != "second" {
		t.Errorf("Get() = %q, want %q", got, "second")
	}
}

func TestNewMemoryStore_DefaultSize(t *testing.T) {
	s := NewMemoryStore(0, time.Hour)
	if s.lru == nil {
		t.Fatal("expected LRU to be initialized")
	}
}
