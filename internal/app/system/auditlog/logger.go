// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/splereg/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
//
// Each value is one of "all" (MongoDB + zap), "db" (MongoDB only),
// "log" (zap only) or "off".
type Config struct {
	Auth   string // sign-in and sign-out
	Admin  string // edits, deletes, exports
	Intake string // applicant submissions
}

// Logger records audit events to the audit store and to zap.
// A nil *Logger is a valid no-op.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

// ClientIP extracts the client IP from the request, honoring the first
// X-Forwarded-For hop and X-Real-IP. The port is dropped from RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (l *Logger) setting(category string) string {
	var s string
	switch category {
	case audit.CategoryAuth:
		s = l.config.Auth
	case audit.CategoryAdmin:
		s = l.config.Admin
	case audit.CategoryIntake:
		s = l.config.Intake
	}
	if s == "" {
		return "all"
	}
	return s
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.RegistrationID != nil {
		fields = append(fields, zap.String("registration_id", event.RegistrationID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event according to the category's setting.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	setting := l.setting(event.Category)
	if setting == "off" {
		return
	}
	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func fromRequest(r *http.Request, category, eventType string, success bool) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
}

func hexID(s string) *primitive.ObjectID {
	if oid, err := primitive.ObjectIDFromHex(s); err == nil {
		return &oid
	}
	return nil
}

// --- Authentication Events ---

// LoginSuccess logs a successful admin sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLoginSuccess, true)
	e.UserID = &userID
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailed logs a rejected sign-in. userID is nil when no account matched.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, eventType string, userID *primitive.ObjectID, email, reason string) {
	e := fromRequest(r, audit.CategoryAuth, eventType, false)
	e.UserID = userID
	e.FailureReason = reason
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// Logout logs a sign-out. userIDStr comes from the session user.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLogout, true)
	e.UserID = hexID(userIDStr)
	l.Log(ctx, e)
}

// --- Intake Events ---

// RegistrationSubmitted logs a confirmed applicant submission.
func (l *Logger) RegistrationSubmitted(ctx context.Context, r *http.Request, regID primitive.ObjectID, attachments int) {
	e := fromRequest(r, audit.CategoryIntake, audit.EventRegistrationSubmitted, true)
	e.RegistrationID = &regID
	e.Details = map[string]string{"attachments": strconv.Itoa(attachments)}
	l.Log(ctx, e)
}

// SubmissionFailed logs a submission the applicant saw fail.
func (l *Logger) SubmissionFailed(ctx context.Context, r *http.Request, kind, reason string) {
	e := fromRequest(r, audit.CategoryIntake, audit.EventSubmissionFailed, false)
	e.FailureReason = reason
	e.Details = map[string]string{"kind": kind}
	l.Log(ctx, e)
}

// --- Admin Events ---

// RegistrationUpdated logs an admin edit.
func (l *Logger) RegistrationUpdated(ctx context.Context, r *http.Request, actorIDStr string, regID primitive.ObjectID, newFiles int) {
	e := fromRequest(r, audit.CategoryAdmin, audit.EventRegistrationUpdated, true)
	e.UserID = hexID(actorIDStr)
	e.RegistrationID = &regID
	e.Details = map[string]string{"new_files": strconv.Itoa(newFiles)}
	l.Log(ctx, e)
}

// RegistrationDeleted logs a deleted registration.
func (l *Logger) RegistrationDeleted(ctx context.Context, r *http.Request, actorIDStr string, regID primitive.ObjectID, email string) {
	e := fromRequest(r, audit.CategoryAdmin, audit.EventRegistrationDeleted, true)
	e.UserID = hexID(actorIDStr)
	e.RegistrationID = &regID
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// AttachmentRemoved logs removal of one attachment from a registration.
func (l *Logger) AttachmentRemoved(ctx context.Context, r *http.Request, actorIDStr string, regID primitive.ObjectID, name string) {
	e := fromRequest(r, audit.CategoryAdmin, audit.EventAttachmentRemoved, true)
	e.UserID = hexID(actorIDStr)
	e.RegistrationID = &regID
	e.Details = map[string]string{"name": name}
	l.Log(ctx, e)
}

// RegistrationsExported logs a spreadsheet export.
func (l *Logger) RegistrationsExported(ctx context.Context, r *http.Request, actorIDStr, format string, rows int) {
	e := fromRequest(r, audit.CategoryAdmin, audit.EventRegistrationsExport, true)
	e.UserID = hexID(actorIDStr)
	e.Details = map[string]string{"format": format, "rows": strconv.Itoa(rows)}
	l.Log(ctx, e)
}
