package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/splereg/internal/app/features/logout"
	"github.com/dalemusser/splereg/internal/app/store/audit"
	"github.com/dalemusser/splereg/internal/app/system/auditlog"
	"github.com/dalemusser/splereg/internal/app/system/auth"
	"github.com/dalemusser/splereg/internal/app/system/registry"
	"github.com/dalemusser/splereg/internal/domain/models"
	"github.com/dalemusser/splereg/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const cookieName = "splereg-test"

type emptyFeed struct{}

func (emptyFeed) Latest() ([]models.Registration, bool) { return nil, false }

type fixture struct {
	h        *logout.Handler
	sm       *auth.SessionManager
	sessions *registry.Sessions
	logs     *observer.ObservedLogs
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	sm, err := auth.NewSessionManager("logout-test-key-0123456789abcdefghij", cookieName, "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	core, logs := observer.New(zapcore.InfoLevel)
	audits := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: "log"})
	sessions := registry.NewSessions(4, time.Hour, emptyFeed{}, nil)
	return fixture{
		h:        logout.NewHandler(sm, audits, sessions, zap.NewNop()),
		sm:       sm,
		sessions: sessions,
		logs:     logs,
	}
}

// signedIn returns a logout request carrying a real session cookie and
// the matching context user.
func (f fixture) signedIn(t *testing.T) (*http.Request, testutil.TestUser) {
	t.Helper()
	user := testutil.AdminUser()
	login := httptest.NewRecorder()
	viewID, err := f.sm.SignIn(login, httptest.NewRequest(http.MethodPost, "/login", nil), auth.SessionUser{
		ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role,
	})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	user.SessionID = viewID

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	for _, c := range login.Result().Cookies() {
		req.AddCookie(c)
	}
	return testutil.WithUser(req, user), user
}

func deletedCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	return nil
}

func TestServeLogout_SignedInAdmin(t *testing.T) {
	f := newFixture(t)
	req, user := f.signedIn(t)
	f.sessions.For(user.SessionID)

	rec := httptest.NewRecorder()
	f.h.ServeLogout(rec, req)

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("got %d to %q, want 303 to /", rec.Code, rec.Header().Get("Location"))
	}
	if c := deletedCookie(rec); c == nil || c.MaxAge != -1 {
		t.Errorf("expected the session cookie to be deleted, got %+v", c)
	}
	if n := f.sessions.Len(); n != 0 {
		t.Errorf("registry cache not dropped, %d left", n)
	}

	events := f.logs.FilterField(zap.String("event_type", audit.EventLogout)).All()
	if len(events) != 1 {
		t.Fatalf("want one logout audit entry, got %d", len(events))
	}
	if got := events[0].ContextMap()["user_id"]; got != user.ID {
		t.Errorf("audit user_id = %v, want %s", got, user.ID)
	}
}

func TestServeLogout_Anonymous(t *testing.T) {
	f := newFixture(t)
	f.sessions.For("someone-else")

	rec := httptest.NewRecorder()
	f.h.ServeLogout(rec, httptest.NewRequest(http.MethodGet, "/logout", nil))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rec.Code)
	}
	if f.sessions.Len() != 1 {
		t.Error("an anonymous logout must not touch other sessions' caches")
	}
	if f.logs.Len() != 0 {
		t.Errorf("anonymous logout should not be audited, got %d entries", f.logs.Len())
	}
}

func TestServeLogout_HTMX(t *testing.T) {
	f := newFixture(t)
	req, _ := f.signedIn(t)
	req.Header.Set("HX-Request", "true")

	rec := httptest.NewRecorder()
	f.h.ServeLogout(rec, req)

	if rec.Code != http.StatusOK || rec.Header().Get("HX-Redirect") != "/" {
		t.Errorf("got %d HX-Redirect=%q, want 200 and /", rec.Code, rec.Header().Get("HX-Redirect"))
	}
}

func TestServeLogout_StaleCookie(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "from-an-old-key"})

	rec := httptest.NewRecorder()
	f.h.ServeLogout(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rec.Code)
	}
	if c := deletedCookie(rec); c == nil || c.MaxAge != -1 {
		t.Errorf("stale cookie should still be cleared, got %+v", c)
	}
}
