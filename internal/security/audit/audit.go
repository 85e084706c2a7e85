package audit

import (
	"context"
	"log/slog"
	"time"
)

// RequestIDKey is the context key under which the request id middleware
// stores its id.
type RequestIDKey struct{}

// RequestIDFromContext returns the request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(RequestIDKey{}); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// Logger writes structured audit events for sensitive actions.
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates an audit logger.
func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

// LogAction records one audit event.
func (al *Logger) LogAction(ctx context.Context, userID, action, resource, resourceID, status, details string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", RequestIDFromContext(ctx)),
		slog.Time("timestamp", time.Now()),
	)
}

// LogLogin records a login attempt.
func (al *Logger) LogLogin(ctx context.Context, userID, status, details string) {
	al.LogAction(ctx, userID, "login", "session", "", status, details)
}

// LogLogout records a logout.
func (al *Logger) LogLogout(ctx context.Context, userID string) {
	al.LogAction(ctx, userID, "logout", "session", "", "completed", "")
}

// LogAcknowledge records a feedback acknowledgment.
func (al *Logger) LogAcknowledge(ctx context.Context, userID, feedbackID, status string) {
	al.LogAction(ctx, userID, "acknowledge", "feedback", feedbackID, status, "")
}

// LogFeedbackCreated records creation of a feedback record.
func (al *Logger) LogFeedbackCreated(ctx context.Context, userID, feedbackID string) {
	al.LogAction(ctx, userID, "create", "feedback", feedbackID, "created", "")
}

// LogDenied records a rejected request.
func (al *Logger) LogDenied(ctx context.Context, userID, reason string) {
	al.LogAction(ctx, userID, "access_denied", "api", "", "denied", reason)
}
