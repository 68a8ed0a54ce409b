package gate

import (
	"log/slog"
	"net/http"
)

// AuditEvent identifies the type of security-relevant action being logged.
type AuditEvent string

const (
	AuditStartSuccess     AuditEvent = "start_success"
	AuditStartFailure     AuditEvent = "start_failure"
	AuditStartRateLimited AuditEvent = "start_rate_limited"
	AuditDispatchFailure  AuditEvent = "dispatch_failure"
	AuditVerifySuccess    AuditEvent = "verify_success"
	AuditVerifyFailure    AuditEvent = "verify_failure"
	AuditSessionError     AuditEvent = "session_error"
	AuditPublicMode       AuditEvent = "public_mode"
	AuditLogout           AuditEvent = "logout"
)

// auditLogger wraps slog.Logger for structured security audit logging.
type auditLogger struct {
	logger *slog.Logger
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{logger: logger.With("component", "audit")}
}

func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
	}
	baseAttrs = append(baseAttrs, attrs...)
	al.logger.LogAttrs(r.Context(), slog.LevelInfo, "audit", baseAttrs...)
}

// logFailure logs a failed or rejected attempt with its reason.
func (al *auditLogger) logFailure(event AuditEvent, r *http.Request, reason string, extra ...slog.Attr) {
	attrs := []slog.Attr{slog.String("reason", reason)}
	attrs = append(attrs, extra...)
	al.log(event, r, attrs...)
}
