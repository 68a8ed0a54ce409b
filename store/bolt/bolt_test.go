package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/jmcleod/gatehouse/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "gate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBoltStore(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	t.Run("PutAndGet", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "k1", []byte("v1"), time.Hour))
		got, err := s.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := s.Get(ctx, "no-such-key")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "k-del", []byte("x"), time.Hour))
		require.NoError(t, s.Delete(ctx, "k-del"))
		_, err := s.Get(ctx, "k-del")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("Expired", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "k-exp", []byte("v"), -time.Second))
		_, err := s.Get(ctx, "k-exp")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("SweepExpired", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "k-sweep", []byte("v"), -time.Second))
		s.sweepExpired()

		var raw []byte
		err := s.db.View(func(tx *bbolt.Tx) error {
			raw = tx.Bucket(bucketName).Get([]byte("k-sweep"))
			return nil
		})
		require.NoError(t, err)
		assert.Nil(t, raw, "sweep should remove the raw record")
	})
}

func TestBoltStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "gate.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Put(ctx, "k-persist", []byte("v"), time.Hour))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(ctx, "k-persist")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}
