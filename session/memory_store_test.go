package session

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, 0)
	defer s.Close()

	if _, ok, err := s.Get(ctx, "sid", "k"); ok || err != nil {
		t.Fatalf("Get on empty store = (%v, %v), want (false, nil)", ok, err)
	}

	if err := s.Set(ctx, "sid", "k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, ok, err := s.Get(ctx, "sid", "k")
	if err != nil || !ok || v != "v" {
		t.Fatalf("Get = (%q, %v, %v), want (v, true, nil)", v, ok, err)
	}

	if _, ok, _ := s.Get(ctx, "other", "k"); ok {
		t.Fatal("sessions must be isolated")
	}

	if err := s.Delete(ctx, "sid", "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "sid", "k"); ok {
		t.Fatal("value should be gone after Delete")
	}
	if s.Len() != 0 {
		t.Errorf("empty session should be dropped, Len = %d", s.Len())
	}
}

func TestMemoryStore_EmptySessionID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, 0)

	if err := s.Set(ctx, "", "k", "v"); err != ErrEmptySessionID {
		t.Errorf("Set err = %v, want ErrEmptySessionID", err)
	}
	if _, _, err := s.Get(ctx, "", "k"); err != ErrEmptySessionID {
		t.Errorf("Get err = %v, want ErrEmptySessionID", err)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	s := NewMemoryStore(time.Minute, 0)
	s.now = func() time.Time { return now }

	_ = s.Set(ctx, "sid", "k", "v")

	now = now.Add(30 * time.Second)
	if _, ok, _ := s.Get(ctx, "sid", "k"); !ok {
		t.Fatal("value should still be live")
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := s.Get(ctx, "sid", "k"); ok {
		t.Fatal("value should have expired")
	}
}

func TestMemoryStore_IncrIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Incr(ctx, "sid", "n", 1); err != nil {
				t.Errorf("Incr failed: %v", err)
			}
		}()
	}
	wg.Wait()

	v, _, _ := s.Get(ctx, "sid", "n")
	if v != "50" {
		t.Fatalf("counter = %q, want 50", v)
	}
}

func TestMemoryStore_IncrNotInteger(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, 0)
	_ = s.Set(ctx, "sid", "n", "abc")

	if _, err := s.Incr(ctx, "sid", "n", 1); err != ErrNotInteger {
		t.Fatalf("err = %v, want ErrNotInteger", err)
	}
}
