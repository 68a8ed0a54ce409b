// Package gate implements the access gate in front of the protected site:
// a shared passphrase, then an SMS one-time code, then a long-lived signed
// trust cookie. Visitors who decline can switch to a sanitized placeholder
// view instead.
package gate

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jmcleod/gatehouse/config"
	"github.com/jmcleod/gatehouse/smsapi"
	"github.com/jmcleod/gatehouse/store"
)

// CodeVerifier is the outbound dependency for SMS code dispatch and
// verification. *smsapi.Client satisfies it; tests substitute a stub.
type CodeVerifier interface {
	DispatchCode(ctx context.Context, p smsapi.DispatchParams) (smsapi.Outcome, error)
	CheckCode(ctx context.Context, phone, countryCode, code string) (smsapi.Outcome, error)
}

// Gate holds the dependencies for the HTTP-facing handlers. All cross-request
// state lives in the store; a Gate instance itself is safe for concurrent use.
type Gate struct {
	cfg      config.Config
	store    store.Store
	verifier CodeVerifier
	tokens   *trustTokens
	limiter  *rateLimiter
	audit    *auditLogger
	proxy    *httputil.ReverseProxy

	now func() time.Time
}

// Option configures the Gate instance.
type Option func(*Gate)

// WithLogger sets the structured logger for audit events. If not set, a
// default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.audit = newAuditLogger(logger)
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		g.now = now
	}
}

// New creates a Gate. cfg must already be validated.
func New(cfg config.Config, st store.Store, verifier CodeVerifier, opts ...Option) (*Gate, error) {
	tokens, err := newTrustTokens(cfg.CookieSecret, cfg.TrustTokenMaxAge)
	if err != nil {
		return nil, err
	}
	g := &Gate{
		cfg:      cfg,
		store:    st,
		verifier: verifier,
		tokens:   tokens,
		limiter:  &rateLimiter{store: st},
		proxy:    httputil.NewSingleHostReverseProxy(cfg.UpstreamURL),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.audit == nil {
		g.audit = newAuditLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	return g, nil
}

// Router returns a chi.Router with the gate's endpoints mounted. Every path
// not claimed by an explicit endpoint goes through the routing decision:
// trust token → upstream, public mode → placeholder, otherwise the gate.
func (g *Gate) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/__gate", g.ShowGate)
	r.Get("/__public", g.EnterPublicMode)
	r.Get("/__logout", g.Logout)
	r.Get("/__healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Post("/api/start", g.Start)
	r.Post("/api/verify", g.Verify)

	// Certificate issuance must keep working whatever the visitor state.
	r.Handle("/.well-known/acme-challenge/*", g.proxy)

	r.NotFound(g.Route)
	return r
}
