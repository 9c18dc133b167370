package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/schoolhub/schoolhub/internal/app/system/auditlog"
)

func TestNilLoggerIsNoOp(t *testing.T) {
	var logger *auditlog.Logger
	req := httptest.NewRequest("POST", "/login", nil)

	logger.LoginSuccess(req, 1, "admin")
	logger.LoginFailed(req, "x@example.com", "wrong password")
	logger.Logout(req, 1)
}

func TestEventsCarryAuditMarker(t *testing.T) {
	core, recorded := observer.New(zap.InfoLevel)
	logger := auditlog.New(zap.New(core))

	req := httptest.NewRequest("POST", "/login", nil)
	req.RemoteAddr = "192.0.2.4:9999"

	logger.LoginSuccess(req, 42, "teacher")
	logger.LoginFailed(req, "x@example.com", "wrong password")

	entries := recorded.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Level != zap.InfoLevel || entries[1].Level != zap.WarnLevel {
		t.Fatalf("success should log Info, failure Warn; got %v and %v",
			entries[0].Level, entries[1].Level)
	}
	for _, e := range entries {
		fields := e.ContextMap()
		if fields["audit"] != true {
			t.Fatalf("entry %q missing audit marker", e.Message)
		}
		if fields["ip"] != "192.0.2.4" {
			t.Fatalf("entry %q has ip %v, want 192.0.2.4", e.Message, fields["ip"])
		}
	}
	if got := entries[0].ContextMap()["user_id"]; got != int64(42) {
		t.Fatalf("user_id = %v, want 42", got)
	}
}
