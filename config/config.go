// Package config builds the immutable runtime configuration for the gate.
// Components never read the environment themselves; everything they need is
// resolved here once and passed into constructors.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every tunable the gate needs. It is constructed once at
// startup and treated as read-only afterwards.
type Config struct {
	ListenAddr string

	// UpstreamURL is the protected site requests are proxied to after a
	// valid trust token is presented.
	UpstreamURL *url.URL

	// Passphrase is the shared secret guarding the gate.
	Passphrase string
	// CookieSecret seeds the HMAC keys for trust tokens.
	CookieSecret string
	// CookieDomain scopes all gate cookies (registrable domain, so
	// subdomains share state).
	CookieDomain string

	// Phone is the single number one-time codes are delivered to.
	Phone           string
	CountryCode     string
	AccessKeyID     string
	AccessKeySecret string
	Endpoint        string
	SignName        string
	TemplateCode    string

	CodeValidFor     time.Duration
	CodeLength       int
	CodeType         string
	DispatchInterval time.Duration

	TrustTokenMaxAge time.Duration
	SessionTTL       time.Duration
	DispatchCooldown time.Duration

	// StoreBackend selects the key-value backend: "memory", "redis" or "bolt".
	StoreBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	BoltPath      string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first if present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	upstream := getenv("GATE_UPSTREAM_URL", "")
	var upstreamURL *url.URL
	if upstream != "" {
		u, err := url.Parse(upstream)
		if err != nil {
			return Config{}, fmt.Errorf("parsing GATE_UPSTREAM_URL: %w", err)
		}
		upstreamURL = u
	}

	redisDB, err := getenvInt("GATE_REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}
	codeLength, err := getenvInt("GATE_CODE_LENGTH", 6)
	if err != nil {
		return Config{}, err
	}

	codeValid, err := getenvSeconds("GATE_CODE_VALID_SECONDS", 300)
	if err != nil {
		return Config{}, err
	}
	interval, err := getenvSeconds("GATE_DISPATCH_INTERVAL_SECONDS", 60)
	if err != nil {
		return Config{}, err
	}
	sessionTTL, err := getenvSeconds("GATE_SESSION_TTL_SECONDS", 900)
	if err != nil {
		return Config{}, err
	}
	cooldown, err := getenvSeconds("GATE_DISPATCH_COOLDOWN_SECONDS", 60)
	if err != nil {
		return Config{}, err
	}
	trustDays, err := getenvInt("GATE_TRUST_MAX_AGE_DAYS", 30)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:  getenv("GATE_LISTEN_ADDR", ":8080"),
		UpstreamURL: upstreamURL,

		Passphrase:   os.Getenv("GATE_PASSPHRASE"),
		CookieSecret: os.Getenv("GATE_COOKIE_SECRET"),
		CookieDomain: os.Getenv("GATE_COOKIE_DOMAIN"),

		Phone:           os.Getenv("GATE_SMS_PHONE"),
		CountryCode:     getenv("GATE_SMS_COUNTRY_CODE", "86"),
		AccessKeyID:     os.Getenv("GATE_SMS_ACCESS_KEY_ID"),
		AccessKeySecret: os.Getenv("GATE_SMS_ACCESS_KEY_SECRET"),
		Endpoint:        getenv("GATE_SMS_ENDPOINT", "dypnsapi.aliyuncs.com"),
		SignName:        os.Getenv("GATE_SMS_SIGN_NAME"),
		TemplateCode:    os.Getenv("GATE_SMS_TEMPLATE_CODE"),

		CodeValidFor:     codeValid,
		CodeLength:       codeLength,
		CodeType:         getenv("GATE_CODE_TYPE", "1"),
		DispatchInterval: interval,

		TrustTokenMaxAge: time.Duration(trustDays) * 24 * time.Hour,
		SessionTTL:       sessionTTL,
		DispatchCooldown: cooldown,

		StoreBackend:  getenv("GATE_STORE", "memory"),
		RedisAddr:     getenv("GATE_REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("GATE_REDIS_PASSWORD"),
		RedisDB:       redisDB,
		BoltPath:      getenv("GATE_BOLT_PATH", "./data/gate.db"),
	}
	return cfg, nil
}

// Validate reports the first missing required setting. The error message
// names the setting so an operator can fix the deployment, but is only ever
// logged or returned as a bad-gateway class failure, never echoed verbatim
// into user-facing pages.
func (c Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"GATE_PASSPHRASE", c.Passphrase},
		{"GATE_COOKIE_SECRET", c.CookieSecret},
		{"GATE_COOKIE_DOMAIN", c.CookieDomain},
		{"GATE_SMS_PHONE", c.Phone},
		{"GATE_SMS_ACCESS_KEY_ID", c.AccessKeyID},
		{"GATE_SMS_ACCESS_KEY_SECRET", c.AccessKeySecret},
		{"GATE_SMS_SIGN_NAME", c.SignName},
		{"GATE_SMS_TEMPLATE_CODE", c.TemplateCode},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("missing required setting %s", r.name)
		}
	}
	if c.UpstreamURL == nil {
		return fmt.Errorf("missing required setting GATE_UPSTREAM_URL")
	}
	switch c.StoreBackend {
	case "memory", "redis", "bolt":
	default:
		return fmt.Errorf("unknown GATE_STORE backend %q", c.StoreBackend)
	}
	if c.CodeLength < 4 || c.CodeLength > 8 {
		return fmt.Errorf("GATE_CODE_LENGTH must be between 4 and 8, got %d", c.CodeLength)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return n, nil
}

func getenvSeconds(key string, def int) (time.Duration, error) {
	n, err := getenvInt(key, def)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}
