// internal/app/system/auditlog/logger.go

// Package auditlog records security-relevant events (sign-ins, account
// and roster mutations) as structured log entries, separate from the
// general application log stream so they can be filtered and retained
// independently.
package auditlog

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/schoolhub/schoolhub/internal/app/system/ratelimit"
)

// Logger emits audit events through zap. A nil Logger is a no-op so
// tests and callers can skip wiring one.
type Logger struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Logger {
	return &Logger{log: log}
}

func (l *Logger) emit(r *http.Request, event string, success bool, fields ...zap.Field) {
	if l == nil {
		return
	}
	all := append([]zap.Field{
		zap.Bool("audit", true),
		zap.String("event", event),
		zap.Bool("success", success),
		zap.String("ip", ratelimit.ClientIP(r)),
		zap.String("user_agent", r.UserAgent()),
	}, fields...)
	if success {
		l.log.Info("audit event", all...)
	} else {
		l.log.Warn("audit event", all...)
	}
}

// --- Authentication events ---

func (l *Logger) LoginSuccess(r *http.Request, userID int64, role string) {
	l.emit(r, "login_success", true,
		zap.Int64("user_id", userID),
		zap.String("role", role))
}

// LoginFailed covers both unknown emails and wrong passwords; the
// reason stays in the log while the HTTP response stays uniform.
func (l *Logger) LoginFailed(r *http.Request, email, reason string) {
	l.emit(r, "login_failed", false,
		zap.String("email", email),
		zap.String("reason", reason))
}

func (l *Logger) LoginRateLimited(r *http.Request, email string) {
	l.emit(r, "login_rate_limited", false, zap.String("email", email))
}

func (l *Logger) Logout(r *http.Request, userID int64) {
	l.emit(r, "logout", true, zap.Int64("user_id", userID))
}

// --- Account events ---

func (l *Logger) UserCreated(r *http.Request, actorID, userID int64, role string) {
	l.emit(r, "user_created", true,
		zap.Int64("actor_id", actorID),
		zap.Int64("user_id", userID),
		zap.String("role", role))
}

func (l *Logger) UserUpdated(r *http.Request, actorID, userID int64) {
	l.emit(r, "user_updated", true,
		zap.Int64("actor_id", actorID),
		zap.Int64("user_id", userID))
}

func (l *Logger) UserDeleted(r *http.Request, actorID, userID int64) {
	l.emit(r, "user_deleted", true,
		zap.Int64("actor_id", actorID),
		zap.Int64("user_id", userID))
}

// --- Roster events ---

func (l *Logger) StudentEnrolled(r *http.Request, actorID, classID, studentID int64) {
	l.emit(r, "student_enrolled", true,
		zap.Int64("actor_id", actorID),
		zap.Int64("class_id", classID),
		zap.Int64("student_id", studentID))
}

func (l *Logger) StudentUnenrolled(r *http.Request, actorID, classID, studentID int64) {
	l.emit(r, "student_unenrolled", true,
		zap.Int64("actor_id", actorID),
		zap.Int64("class_id", classID),
		zap.Int64("student_id", studentID))
}

func (l *Logger) ClassDeleted(r *http.Request, actorID, classID int64) {
	l.emit(r, "class_deleted", true,
		zap.Int64("actor_id", actorID),
		zap.Int64("class_id", classID))
}
