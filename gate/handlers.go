package gate

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jmcleod/gatehouse/smsapi"
)

// Start handles POST /api/start: the passphrase step. On success a session
// is opened and a one-time code is dispatched to the configured phone.
func (g *Gate) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := g.now()
	clientIP := extractClientIP(r)

	// Every attempt counts against the window, correct or not; otherwise an
	// attacker could probe passphrases for free.
	count, err := g.limiter.bumpAndCheck(ctx, passphraseKeyPrefix+clientIP, passphraseWindow, now)
	if err != nil {
		writeError(w, http.StatusBadGateway, "temporary trouble; try again shortly")
		return
	}
	if count > passphraseCap {
		g.audit.logFailure(AuditStartRateLimited, r, "passphrase attempts over cap",
			slog.String("client_ip", clientIP))
		writeError(w, http.StatusTooManyRequests, "too many attempts; try again later")
		return
	}

	req, ok := decodeJSON[StartRequest](w, r)
	if !ok {
		return
	}

	if !g.passphraseMatches(req.Phrase) {
		// Deliberately vague: no hint whether the phrase was close.
		g.audit.logFailure(AuditStartFailure, r, "wrong passphrase",
			slog.String("client_ip", clientIP))
		writeError(w, http.StatusUnauthorized, "that is not the phrase")
		return
	}

	allowed, err := g.limiter.checkCooldown(ctx, dispatchKeyPrefix+clientIP, g.cfg.DispatchCooldown, now)
	if err != nil {
		writeError(w, http.StatusBadGateway, "temporary trouble; try again shortly")
		return
	}
	if !allowed {
		g.audit.logFailure(AuditStartRateLimited, r, "dispatch cooldown",
			slog.String("client_ip", clientIP))
		writeError(w, http.StatusTooManyRequests, "a code was sent recently; wait a moment")
		return
	}

	sid, err := g.createSession(ctx)
	if err != nil {
		writeError(w, http.StatusBadGateway, "temporary trouble; try again shortly")
		return
	}

	outcome, err := g.verifier.DispatchCode(ctx, g.dispatchParams())
	if err != nil {
		g.audit.logFailure(AuditDispatchFailure, r, err.Error())
		writeError(w, http.StatusBadGateway, "could not reach the verification service")
		return
	}
	if !outcome.OK {
		// The session row left behind is harmless: unused, TTL-bounded.
		g.audit.logFailure(AuditDispatchFailure, r, outcome.Message,
			slog.String("remote_code", outcome.Code))
		writeError(w, http.StatusBadGateway, "code dispatch failed: "+outcome.Message)
		return
	}

	// Only a successful dispatch burns the cooldown.
	if err := g.limiter.markDone(ctx, dispatchKeyPrefix+clientIP, g.cfg.DispatchCooldown, now); err != nil {
		g.audit.logFailure(AuditDispatchFailure, r, "recording cooldown: "+err.Error())
	}

	g.writeCookie(w, sidCookieName, sid, g.cfg.SessionTTL)
	g.clearCookie(w, modeCookieName)
	g.audit.log(AuditStartSuccess, r, slog.String("client_ip", clientIP))
	writeOK(w, "code sent")
}

// Verify handles POST /api/verify: the one-time code step.
func (g *Gate) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sid := cookieValue(r, sidCookieName)
	if sid == "" {
		g.audit.logFailure(AuditSessionError, r, "sid cookie missing")
		writeError(w, http.StatusBadRequest, "no verification in progress")
		return
	}
	if _, err := g.getSession(ctx, sid); err != nil {
		// Distinct from the missing-cookie case so the client knows to
		// restart from the gate.
		g.audit.logFailure(AuditSessionError, r, "session expired or unknown")
		writeError(w, http.StatusGone, "verification window expired; start again")
		return
	}

	req, ok := decodeJSON[VerifyRequest](w, r)
	if !ok {
		return
	}
	code := strings.TrimSpace(req.Code)
	if !validCodeShape(code) {
		// Reject locally before spending a remote call.
		g.audit.logFailure(AuditVerifyFailure, r, "malformed code")
		writeError(w, http.StatusUnauthorized, "invalid code")
		return
	}

	outcome, err := g.verifier.CheckCode(ctx, g.cfg.Phone, g.cfg.CountryCode, code)
	if err != nil {
		writeError(w, http.StatusBadGateway, "could not reach the verification service")
		return
	}
	if !outcome.OK {
		writeError(w, http.StatusBadGateway, "code check failed: "+outcome.Message)
		return
	}
	if !outcome.VerifyPassed() {
		// Transport success, wrong code. The session stays usable for
		// another attempt within its TTL; the remote service's own attempt
		// limits backstop brute force.
		g.audit.logFailure(AuditVerifyFailure, r, "verification result not pass")
		writeError(w, http.StatusUnauthorized, "invalid or expired code")
		return
	}

	// Consume the session so the sid cannot be replayed.
	if err := g.deleteSession(ctx, sid); err != nil {
		writeError(w, http.StatusBadGateway, "temporary trouble; try again shortly")
		return
	}

	token, err := g.tokens.issue(g.now())
	if err != nil {
		writeError(w, http.StatusBadGateway, "temporary trouble; try again shortly")
		return
	}
	g.writeCookie(w, authCookieName, token, g.cfg.TrustTokenMaxAge)
	g.clearCookie(w, sidCookieName)
	g.audit.log(AuditVerifySuccess, r)
	writeOK(w, "welcome back")
}

// ShowGate handles GET /__gate. Arriving here abandons public mode.
func (g *Gate) ShowGate(w http.ResponseWriter, r *http.Request) {
	g.clearCookie(w, modeCookieName)
	writePage(w, gatePage)
}

// EnterPublicMode handles GET /__public: the visitor opts into the
// sanitized placeholder view.
func (g *Gate) EnterPublicMode(w http.ResponseWriter, r *http.Request) {
	g.writeCookie(w, modeCookieName, publicModeValue, modeCookieTTL)
	g.clearCookie(w, sidCookieName)
	g.clearCookie(w, authCookieName)
	g.audit.log(AuditPublicMode, r)
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout handles GET /__logout: clears every gate cookie. Clearing only
// removes the client's copy of the trust token; a captured token stays
// valid until it ages out, which is the accepted tradeoff of stateless
// tokens.
func (g *Gate) Logout(w http.ResponseWriter, r *http.Request) {
	g.clearCookie(w, sidCookieName)
	g.clearCookie(w, authCookieName)
	g.clearCookie(w, modeCookieName)
	g.audit.log(AuditLogout, r)
	http.Redirect(w, r, "/__gate", http.StatusFound)
}

// passphraseMatches compares the submitted phrase against the configured
// secret. Input is NFKC-normalized and trimmed first; mobile keyboards love
// to substitute compatibility characters.
func (g *Gate) passphraseMatches(phrase string) bool {
	normalized := norm.NFKC.String(strings.TrimSpace(phrase))
	return subtle.ConstantTimeCompare([]byte(normalized), []byte(g.cfg.Passphrase)) == 1
}

// validCodeShape accepts 4 to 8 alphanumeric characters.
func validCodeShape(code string) bool {
	if len(code) < 4 || len(code) > 8 {
		return false
	}
	for _, r := range code {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}

func (g *Gate) dispatchParams() smsapi.DispatchParams {
	return smsapi.DispatchParams{
		Phone:        g.cfg.Phone,
		CountryCode:  g.cfg.CountryCode,
		SignName:     g.cfg.SignName,
		TemplateCode: g.cfg.TemplateCode,
		CodeLength:   g.cfg.CodeLength,
		ValidFor:     g.cfg.CodeValidFor,
		Interval:     g.cfg.DispatchInterval,
		CodeType:     g.cfg.CodeType,
	}
}
