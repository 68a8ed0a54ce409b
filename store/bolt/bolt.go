// Package bolt provides a BBolt-backed store.Store for single-host
// deployments that need rate-limit and session state to survive restarts.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/jmcleod/gatehouse/store"
)

var bucketName = []byte("gatehouse")

const sweepInterval = 5 * time.Minute

// Store implements store.Store backed by a BBolt database. BBolt has no
// native key expiry, so each record carries its deadline and expired records
// are dropped on read and by a periodic sweep.
type Store struct {
	db       *bbolt.DB
	stopOnce sync.Once
	stopCh   chan struct{}
}

type record struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if necessary) a BBolt database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}
	s := &Store{db: db, stopCh: make(chan struct{})}
	go s.sweepLoop()
	return s, nil
}

// Close stops the sweeper and closes the underlying database.
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	return s.db.Close()
}

func (s *Store) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	data, err := json.Marshal(record{
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), data)
	})
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var rec record
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketName).Get([]byte(key))
		if data == nil {
			return store.ErrNotFound
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	if time.Now().After(rec.ExpiresAt) {
		_ = s.db.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket(bucketName).Delete([]byte(key))
		})
		return nil, store.ErrNotFound
	}
	return rec.Value, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
}

func (s *Store) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweepExpired()
		}
	}
}

func (s *Store) sweepExpired() {
	now := time.Now()
	var stale [][]byte
	_ = s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil || now.After(rec.ExpiresAt) {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		return nil
	})
	if len(stale) == 0 {
		return
	}
	_ = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		for _, k := range stale {
			_ = b.Delete(k)
		}
		return nil
	})
}
