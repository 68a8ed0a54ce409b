// Package memory provides a thread-safe in-memory implementation of store.Store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jmcleod/gatehouse/internal/util"
	"github.com/jmcleod/gatehouse/store"
)

const sweepInterval = 5 * time.Minute

// Store is a thread-safe in-memory implementation of store.Store.
// Suitable for testing, demos, and single-process deployments.
type Store struct {
	mu   sync.RWMutex
	data map[string]entry

	now      func() time.Time
	stopOnce sync.Once
	stopCh   chan struct{}
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

var _ store.Store = (*Store)(nil)

// New creates an empty in-memory Store and starts a background sweep that
// removes expired entries. Call Close to stop the sweeper.
func New() *Store {
	s := &Store{
		data:   make(map[string]entry),
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// Close stops the background sweep goroutine.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *Store) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = entry{
		value:     util.CopyBytes(value),
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrNotFound
	}
	if s.now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.data, key)
		s.mu.Unlock()
		return nil, store.ErrNotFound
	}
	return util.CopyBytes(e.value), nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *Store) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Store) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.data {
		if now.After(e.expiresAt) {
			delete(s.data, k)
		}
	}
}
