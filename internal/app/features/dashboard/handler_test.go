package dashboard_test

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/splereg/internal/app/features/dashboard"
	uierrors "github.com/dalemusser/splereg/internal/app/features/errors"
	"github.com/dalemusser/splereg/internal/app/system/registry"
	"github.com/dalemusser/splereg/internal/domain/models"
	"github.com/dalemusser/splereg/internal/testutil"
	"go.uber.org/zap"
)

type fakeFeed struct {
	calls int
	err   error
}

func (f *fakeFeed) Reload(ctx context.Context) error {
	f.calls++
	return f.err
}

func (f *fakeFeed) Latest() ([]models.Registration, bool) { return nil, false }

func newTestHandler(t *testing.T, feed *fakeFeed) (*dashboard.Handler, *registry.Sessions) {
	t.Helper()
	logger := zap.NewNop()
	sessions := registry.NewSessions(16, time.Hour, feed, registry.FullReplace{})
	return dashboard.NewHandler(sessions, feed, uierrors.NewErrorLogger(logger), logger), sessions
}

func TestHandleRefresh_ReloadsAndKeepsFilters(t *testing.T) {
	feed := &fakeFeed{}
	h, _ := newTestHandler(t, feed)

	req := testutil.WithUser(httptest.NewRequest("POST", "/admin/refresh?type=pending", nil), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.HandleRefresh(rec, req)

	if feed.calls != 1 {
		t.Errorf("Reload calls: got %d, want 1", feed.calls)
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin?type=pending" {
		t.Errorf("Location: got %q", loc)
	}
}

func TestHandleRefresh_Error(t *testing.T) {
	feed := &fakeFeed{err: errors.New("no server")}
	h, _ := newTestHandler(t, feed)

	req := testutil.WithUser(httptest.NewRequest("POST", "/admin/refresh", nil), testutil.AdminUser())
	rec := httptest.NewRecorder()
	testutil.Render(func() { h.HandleRefresh(rec, req) })

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
}

func TestServeDashboard_NoUserRedirects(t *testing.T) {
	h, _ := newTestHandler(t, &fakeFeed{})

	rec := httptest.NewRecorder()
	h.ServeDashboard(rec, httptest.NewRequest("GET", "/admin", nil))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
}

func TestServeStream_SendsRefreshOnSnapshot(t *testing.T) {
	h, sessions := newTestHandler(t, &fakeFeed{})
	h.KeepAlive = time.Hour
	user := testutil.AdminUser()
	cache := sessions.For(user.SessionID)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeStream(w, testutil.WithUser(r, user))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, "GET", srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type: got %q", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	if !lines.Scan() || lines.Text() != "retry: 3000" {
		t.Fatalf("expected retry preamble, got %q", lines.Text())
	}

	cache.Apply([]models.Registration{{Surname: "Haddad"}})

	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "event: refresh") {
			return
		}
	}
	t.Fatalf("no refresh event before stream ended: %v", lines.Err())
}

// openStream starts ServeStream for user and returns a scanner positioned
// after the preamble.
func openStream(t *testing.T, h *dashboard.Handler, user testutil.TestUser, header http.Header) (*bufio.Scanner, context.Context) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeStream(w, testutil.WithUser(r, user))
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	req, _ := http.NewRequestWithContext(ctx, "GET", srv.URL, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	lines := bufio.NewScanner(resp.Body)
	for lines.Scan() {
		if lines.Text() == "" {
			break
		}
	}
	return lines, ctx
}

func TestServeStream_EndsWhenCacheRetired(t *testing.T) {
	h, sessions := newTestHandler(t, &fakeFeed{})
	h.KeepAlive = time.Hour
	user := testutil.AdminUser()
	sessions.For(user.SessionID)

	lines, ctx := openStream(t, h, user, nil)
	sessions.Drop(user.SessionID)

	for lines.Scan() {
		// drain until the server closes the stream
	}
	if ctx.Err() != nil {
		t.Fatal("stream stayed open on a retired cache")
	}
}

func TestServeStream_ReconnectRefreshesAtOnce(t *testing.T) {
	h, _ := newTestHandler(t, &fakeFeed{})
	h.KeepAlive = time.Hour

	lines, _ := openStream(t, h, testutil.AdminUser(), http.Header{"Last-Event-Id": {"7"}})
	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "event: refresh") {
			return
		}
	}
	t.Fatalf("no refresh after reconnect: %v", lines.Err())
}
