package gate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/gatehouse/store/memory"
)

func TestBumpAndCheckCounts(t *testing.T) {
	st := memory.New()
	defer st.Close()
	rl := &rateLimiter{store: st}
	now := time.Now()

	for i := 1; i <= 5; i++ {
		count, err := rl.bumpAndCheck(context.Background(), "rl:pw:1.2.3.4", passphraseWindow, now)
		require.NoError(t, err)
		assert.Equal(t, i, count)
	}
}

func TestBumpAndCheckIsolatesScopes(t *testing.T) {
	st := memory.New()
	defer st.Close()
	rl := &rateLimiter{store: st}
	now := time.Now()

	_, err := rl.bumpAndCheck(context.Background(), "rl:pw:1.2.3.4", passphraseWindow, now)
	require.NoError(t, err)
	count, err := rl.bumpAndCheck(context.Background(), "rl:pw:5.6.7.8", passphraseWindow, now)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBumpAndCheckWindowLapse(t *testing.T) {
	st := memory.New()
	defer st.Close()
	rl := &rateLimiter{store: st}
	now := time.Now()

	for i := 0; i < passphraseCap; i++ {
		_, err := rl.bumpAndCheck(context.Background(), "rl:pw:1.2.3.4", passphraseWindow, now)
		require.NoError(t, err)
	}

	// A lapsed window starts a fresh counter even if the old record is
	// still sitting in the store.
	later := now.Add(passphraseWindow + time.Second)
	count, err := rl.bumpAndCheck(context.Background(), "rl:pw:1.2.3.4", passphraseWindow, later)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCooldown(t *testing.T) {
	st := memory.New()
	defer st.Close()
	rl := &rateLimiter{store: st}
	ctx := context.Background()
	now := time.Now()
	cooldown := 60 * time.Second

	allowed, err := rl.checkCooldown(ctx, "rl:sms:1.2.3.4", cooldown, now)
	require.NoError(t, err)
	assert.True(t, allowed, "no prior dispatch")

	require.NoError(t, rl.markDone(ctx, "rl:sms:1.2.3.4", cooldown, now))

	allowed, err = rl.checkCooldown(ctx, "rl:sms:1.2.3.4", cooldown, now.Add(30*time.Second))
	require.NoError(t, err)
	assert.False(t, allowed, "inside cooldown")

	allowed, err = rl.checkCooldown(ctx, "rl:sms:1.2.3.4", cooldown, now.Add(60*time.Second))
	require.NoError(t, err)
	assert.True(t, allowed, "cooldown elapsed")
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"192.0.2.10:54321", "192.0.2.10"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"unparseable", "unparseable"},
	}
	for _, tc := range tests {
		r := newRequest(t, tc.remoteAddr)
		assert.Equal(t, tc.want, extractClientIP(r))
	}
}
