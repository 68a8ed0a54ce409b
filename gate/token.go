package gate

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/awnumar/memguard"

	"github.com/jmcleod/gatehouse/internal/util"
)

// trustTokenInfo is the HKDF info string separating the trust-token key from
// any other key derived from the cookie secret.
const trustTokenInfo = "gatehouse:trust-token:v1"

// trustTokenPrefix versions the signed message so a future format change
// cannot be replayed against the old verifier.
const trustTokenPrefix = "gatehouse-trust:v1:"

// trustTokens issues and validates the stateless proof of a completed
// verification. A token is "<unix-seconds>.<hex-hmac>"; validity is
// recomputed from the token itself, nothing is stored server-side.
type trustTokens struct {
	key    *memguard.Enclave
	maxAge time.Duration
}

func newTrustTokens(secret string, maxAge time.Duration) (*trustTokens, error) {
	key, err := util.HKDF([]byte(secret), nil, []byte(trustTokenInfo))
	if err != nil {
		return nil, err
	}
	// NewEnclave wipes the input slice.
	return &trustTokens{key: memguard.NewEnclave(key), maxAge: maxAge}, nil
}

// issue mints a token proving verification at the given instant.
func (t *trustTokens) issue(now time.Time) (string, error) {
	ts := strconv.FormatInt(now.Unix(), 10)
	sig, err := t.signTimestamp(ts)
	if err != nil {
		return "", err
	}
	return ts + "." + sig, nil
}

// validate checks shape, age, and signature. Malformed input of any kind is
// simply invalid, never an error worth surfacing.
func (t *trustTokens) validate(token string, now time.Time) bool {
	ts, sig, ok := strings.Cut(token, ".")
	if !ok || ts == "" || sig == "" {
		return false
	}
	issued, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	age := now.Unix() - issued
	if age < 0 || age > int64(t.maxAge.Seconds()) {
		return false
	}
	expected, err := t.signTimestamp(ts)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(sig))
}

func (t *trustTokens) signTimestamp(ts string) (string, error) {
	buf, err := t.key.Open()
	if err != nil {
		return "", err
	}
	defer buf.Destroy()
	mac := hmac.New(sha256.New, buf.Bytes())
	mac.Write([]byte(trustTokenPrefix + ts))
	return hex.EncodeToString(mac.Sum(nil)), nil
}
