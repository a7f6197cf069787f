package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/splereg/internal/app/system/timeouts"
	"github.com/dalemusser/splereg/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Snapshotter reports the registry feed's latest list.
type Snapshotter interface {
	Latest() ([]models.Registration, bool)
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Feed   Snapshotter // nil omits the registry block
	Log    *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client, the
// registry feed and logger.
func NewHandler(client *mongo.Client, feed Snapshotter, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Feed:   feed,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string          `json:"status"`
	Database string          `json:"database"`
	Message  string          `json:"message,omitempty"`
	Error    string          `json:"error,omitempty"`
	Registry *registryStatus `json:"registry,omitempty"`
}

// registryStatus summarizes the feed that drives the dashboard.
type registryStatus struct {
	Loaded bool `json:"loaded"`
	Rows   int  `json:"rows"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "registry":{"loaded":true,"rows":42} }
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	// Informational only; an unloaded feed does not fail the check.
	if h.Feed != nil {
		list, loaded := h.Feed.Latest()
		resp.Registry = &registryStatus{Loaded: loaded, Rows: len(list)}
	}

	_ = json.NewEncoder(w).Encode(resp)
}
