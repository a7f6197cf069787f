package health_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/splereg/internal/app/features/health"
	"github.com/dalemusser/splereg/internal/domain/models"
	"github.com/dalemusser/splereg/internal/testutil"
	"go.uber.org/zap"
)

type stubFeed struct {
	list   []models.Registration
	loaded bool
}

func (s stubFeed) Latest() ([]models.Registration, bool) { return s.list, s.loaded }

type response struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Registry *struct {
		Loaded bool `json:"loaded"`
		Rows   int  `json:"rows"`
	} `json:"registry,omitempty"`
}

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, resp
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	feed := stubFeed{list: make([]models.Registration, 3), loaded: true}
	handler := health.NewHandler(db.Client(), feed, zap.NewNop())

	rec, resp := serve(t, handler)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	if resp.Status != "ok" {
		t.Errorf("status: got %q, want %q", resp.Status, "ok")
	}
	if resp.Database != "connected" {
		t.Errorf("database: got %q, want %q", resp.Database, "connected")
	}
	if resp.Registry == nil || !resp.Registry.Loaded || resp.Registry.Rows != 3 {
		t.Errorf("registry: got %+v", resp.Registry)
	}
}

func TestServe_NoFeed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := health.NewHandler(db.Client(), nil, zap.NewNop())

	rec, resp := serve(t, handler)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if resp.Registry != nil {
		t.Errorf("registry block should be omitted, got %+v", resp.Registry)
	}
}
