package gate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jmcleod/gatehouse/store"
)

// Rate-limit policy. The client IP is the identity key: no better signal
// exists before verification succeeds, and the weakness (shared NAT,
// proxies) is acceptable for a friends-and-family gate.
const (
	passphraseWindow = 10 * time.Minute
	passphraseCap    = 20

	passphraseKeyPrefix = "rl:pw:"
	dispatchKeyPrefix   = "rl:sms:"
)

// rateLimiter keeps counters and cooldown timestamps in the shared store so
// limits hold across processes. The read-modify-write sequences race under
// concurrency; the worst case is one extra passphrase attempt or SMS, which
// this threat model tolerates.
type rateLimiter struct {
	store store.Store
}

type counterRecord struct {
	Count     int       `json:"count"`
	ExpiresAt time.Time `json:"expires_at"`
}

// bumpAndCheck increments the counter under scopeKey, creating it with the
// window's expiry if absent or lapsed, and returns the new count. Callers
// reject once the count exceeds cap.
func (rl *rateLimiter) bumpAndCheck(ctx context.Context, scopeKey string, window time.Duration, now time.Time) (int, error) {
	rec := counterRecord{Count: 0, ExpiresAt: now.Add(window)}
	if data, err := rl.store.Get(ctx, scopeKey); err == nil {
		var existing counterRecord
		if err := json.Unmarshal(data, &existing); err == nil && now.Before(existing.ExpiresAt) {
			rec = existing
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return 0, fmt.Errorf("reading rate counter: %w", err)
	}

	rec.Count++
	data, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("marshaling rate counter: %w", err)
	}
	ttl := rec.ExpiresAt.Sub(now)
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := rl.store.Put(ctx, scopeKey, data, ttl); err != nil {
		return 0, fmt.Errorf("writing rate counter: %w", err)
	}
	return rec.Count, nil
}

// checkCooldown reports whether the action guarded by scopeKey may run now.
// The caller records the new timestamp with markDone only after the guarded
// action succeeds, so a failed dispatch does not burn the cooldown.
func (rl *rateLimiter) checkCooldown(ctx context.Context, scopeKey string, cooldown time.Duration, now time.Time) (bool, error) {
	data, err := rl.store.Get(ctx, scopeKey)
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading cooldown: %w", err)
	}
	last, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return true, nil
	}
	return now.Unix()-last >= int64(cooldown.Seconds()), nil
}

// markDone records the guarded action's completion time.
func (rl *rateLimiter) markDone(ctx context.Context, scopeKey string, cooldown time.Duration, now time.Time) error {
	val := strconv.FormatInt(now.Unix(), 10)
	if err := rl.store.Put(ctx, scopeKey, []byte(val), cooldown); err != nil {
		return fmt.Errorf("writing cooldown: %w", err)
	}
	return nil
}

// extractClientIP returns the best-effort client IP for rate limiting.
// Proxy headers are deliberately not consulted: the gate terminates its own
// connections, and trusting forwarded headers would let anyone reset their
// counters with a crafted request.
func extractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
