package gate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmcleod/gatehouse/internal/uuid"
	"github.com/jmcleod/gatehouse/store"
)

const sessionKeyPrefix = "sid:"

// sessionRecord marks a visitor who has passed the passphrase step and is
// awaiting code verification. It is consumed (deleted) on a successful
// verification; otherwise the store's TTL cleans it up.
type sessionRecord struct {
	CreatedAt time.Time `json:"created_at"`
}

// createSession persists a fresh session and returns its unguessable id.
func (g *Gate) createSession(ctx context.Context) (string, error) {
	sid := uuid.New()
	data, err := json.Marshal(sessionRecord{CreatedAt: g.now().UTC()})
	if err != nil {
		return "", fmt.Errorf("marshaling session: %w", err)
	}
	if err := g.store.Put(ctx, sessionKeyPrefix+sid, data, g.cfg.SessionTTL); err != nil {
		return "", fmt.Errorf("persisting session: %w", err)
	}
	return sid, nil
}

// getSession looks up a session by id. Returns store.ErrNotFound for
// expired or unknown ids.
func (g *Gate) getSession(ctx context.Context, sid string) (sessionRecord, error) {
	data, err := g.store.Get(ctx, sessionKeyPrefix+sid)
	if err != nil {
		return sessionRecord{}, err
	}
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// A corrupt record is as good as missing.
		return sessionRecord{}, store.ErrNotFound
	}
	return rec, nil
}

// deleteSession consumes a session so it cannot be used twice.
func (g *Gate) deleteSession(ctx context.Context, sid string) error {
	if err := g.store.Delete(ctx, sessionKeyPrefix+sid); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}
