package gate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokens(t *testing.T, maxAge time.Duration) *trustTokens {
	t.Helper()
	tokens, err := newTrustTokens("test-cookie-secret", maxAge)
	require.NoError(t, err)
	return tokens
}

func TestTrustTokenRoundTrip(t *testing.T) {
	tokens := newTestTokens(t, 30*24*time.Hour)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	token, err := tokens.issue(now)
	require.NoError(t, err)
	assert.True(t, tokens.validate(token, now))
	assert.True(t, tokens.validate(token, now.Add(29*24*time.Hour)))
}

func TestTrustTokenExpiry(t *testing.T) {
	tokens := newTestTokens(t, time.Hour)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	token, err := tokens.issue(now)
	require.NoError(t, err)
	assert.True(t, tokens.validate(token, now.Add(time.Hour)))
	assert.False(t, tokens.validate(token, now.Add(time.Hour+time.Second)))
}

func TestTrustTokenFutureDated(t *testing.T) {
	tokens := newTestTokens(t, time.Hour)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	token, err := tokens.issue(now)
	require.NoError(t, err)
	assert.False(t, tokens.validate(token, now.Add(-time.Second)))
}

func TestTrustTokenTampering(t *testing.T) {
	tokens := newTestTokens(t, time.Hour)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	token, err := tokens.issue(now)
	require.NoError(t, err)
	ts, sig, ok := strings.Cut(token, ".")
	require.True(t, ok)

	// Shift the timestamp by one second without re-signing.
	tampered := "1748779201." + sig
	assert.False(t, tokens.validate(tampered, now))

	// Flip one hex digit of the signature.
	flipped := "0"
	if sig[0] == '0' {
		flipped = "1"
	}
	assert.False(t, tokens.validate(ts+"."+flipped+sig[1:], now))
}

func TestTrustTokenMalformed(t *testing.T) {
	tokens := newTestTokens(t, time.Hour)
	now := time.Now()

	for _, token := range []string{
		"",
		"justonepart",
		".",
		"notanumber.abcdef",
		"1748779200.",
		".abcdef",
	} {
		assert.False(t, tokens.validate(token, now), "token %q", token)
	}
}

func TestTrustTokenKeySeparation(t *testing.T) {
	a := newTestTokens(t, time.Hour)
	b, err := newTrustTokens("a-different-secret", time.Hour)
	require.NoError(t, err)

	now := time.Now()
	token, err := a.issue(now)
	require.NoError(t, err)
	assert.False(t, b.validate(token, now))
}
