package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/splereg/internal/app/store/audit"
	"github.com/dalemusser/splereg/internal/app/system/auditlog"
	"github.com/dalemusser/splereg/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	// must not panic
	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "a@b.c")
	logger.Logout(ctx, req, primitive.NewObjectID().Hex())
	logger.RegistrationDeleted(ctx, req, "", primitive.NewObjectID(), "a@b.c")
}

func TestLogger_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "off", Admin: "off", Intake: "off"})
	req := httptest.NewRequest("POST", "/login", nil)
	userID := primitive.NewObjectID()
	logger.LoginSuccess(ctx, req, userID, "admin@test.com")

	n, err := store.CountByFilter(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no events when config is 'off', got %d", n)
	}
}

func TestLogger_ConfigLogOnlySkipsStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Admin: "log"})
	req := httptest.NewRequest("POST", "/", nil)
	logger.RegistrationDeleted(ctx, req, primitive.NewObjectID().Hex(), primitive.NewObjectID(), "x@y.z")

	n, _ := store.CountByFilter(ctx, audit.QueryFilter{})
	if n != 0 {
		t.Errorf("expected 0 stored events for 'log', got %d", n)
	}
}

func TestLogger_AdminEventsCarryActorAndRegistration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Admin: "db"})
	actor := primitive.NewObjectID()
	regID := primitive.NewObjectID()
	req := httptest.NewRequest("POST", "/admin/registrations/x/attachments/0/delete", nil)

	logger.AttachmentRemoved(ctx, req, actor.Hex(), regID, "transcript.pdf")

	events, err := store.ForRegistration(ctx, regID, 10)
	if err != nil {
		t.Fatalf("ForRegistration failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.EventType != audit.EventAttachmentRemoved {
		t.Errorf("EventType: got %q", ev.EventType)
	}
	if ev.UserID == nil || *ev.UserID != actor {
		t.Errorf("UserID: got %v, want %v", ev.UserID, actor)
	}
	if ev.Details["name"] != "transcript.pdf" {
		t.Errorf("Details[name]: got %q", ev.Details["name"])
	}
}

func TestLogger_LoginFailed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "all"})
	req := httptest.NewRequest("POST", "/login", nil)
	logger.LoginFailed(ctx, req, audit.EventLoginFailedUserNotFound, nil, "ghost@test.com", "user not found")

	events, _ := store.Query(ctx, audit.QueryFilter{EventType: audit.EventLoginFailedUserNotFound})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Success {
		t.Error("expected Success=false")
	}
	if events[0].FailureReason != "user not found" {
		t.Errorf("FailureReason: got %q", events[0].FailureReason)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name string
		xff  string
		xri  string
		addr string
		want string
	}{
		{"forwarded first hop", "203.0.113.195, 10.0.0.1", "192.168.1.1", "127.0.0.1:1", "203.0.113.195"},
		{"real ip", "", "192.168.1.100", "127.0.0.1:1", "192.168.1.100"},
		{"remote addr port stripped", "", "", "10.0.0.5:12345", "10.0.0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			req.RemoteAddr = tt.addr
			if got := auditlog.ClientIP(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
