package memory

import (
	"context"
	"testing"
	"time"

	"github.com/jmcleod/gatehouse/store"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	t.Run("PutAndGet", func(t *testing.T) {
		if err := s.Put(ctx, "k1", []byte("v1"), time.Hour); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := s.Get(ctx, "k1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if string(got) != "v1" {
			t.Fatalf("got %q, want %q", got, "v1")
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := s.Get(ctx, "no-such-key")
		if err != store.ErrNotFound {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		s.Put(ctx, "k-del", []byte("x"), time.Hour)
		s.Delete(ctx, "k-del")
		if _, err := s.Get(ctx, "k-del"); err != store.ErrNotFound {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		// Should not error.
		if err := s.Delete(ctx, "never-existed"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		s.Put(ctx, "k-ow", []byte("v1"), time.Hour)
		s.Put(ctx, "k-ow", []byte("v2"), time.Hour)
		got, err := s.Get(ctx, "k-ow")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if string(got) != "v2" {
			t.Fatalf("got %q, want %q", got, "v2")
		}
	})

	t.Run("ValueIsCopied", func(t *testing.T) {
		v := []byte("original")
		s.Put(ctx, "k-copy", v, time.Hour)
		v[0] = 'X'
		got, _ := s.Get(ctx, "k-copy")
		if string(got) != "original" {
			t.Fatalf("stored value aliased caller's slice: %q", got)
		}
	})
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	base := time.Now()
	now := base
	s.now = func() time.Time { return now }

	s.Put(ctx, "k-exp", []byte("v"), time.Minute)

	if _, err := s.Get(ctx, "k-exp"); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	now = base.Add(2 * time.Minute)
	if _, err := s.Get(ctx, "k-exp"); err != store.ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound after expiry", err)
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	base := time.Now()
	now := base
	s.now = func() time.Time { return now }

	s.Put(ctx, "k-sweep", []byte("v"), time.Minute)
	now = base.Add(2 * time.Minute)
	s.sweep()

	s.mu.RLock()
	_, exists := s.data["k-sweep"]
	s.mu.RUnlock()
	if exists {
		t.Fatal("sweep should remove expired entries")
	}
}
