// internal/app/features/dashboard/stream.go
package dashboard

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ServeStream handles GET /admin/stream. It sends a "refresh" event each
// time the session cache takes a new snapshot; the page then re-fetches
// the whole table. Comments keep idle proxies from closing the stream.
// When the cache is retired the stream ends and the browser reconnects
// to the session's new cache; a reconnect carries Last-Event-ID and gets
// an immediate refresh.
func (h *Handler) ServeStream(w http.ResponseWriter, r *http.Request) {
	cache, ok := h.cacheFor(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	seen := cache.Version()
	pending := r.Header.Get("Last-Event-ID") != ""

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprintf(w, "retry: 3000\nid: %d\n\n", seen); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		h.Log.Warn("event stream flush unsupported", zap.Error(err))
		return
	}

	keepAlive := h.KeepAlive
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		changed := cache.Changed()
		if v := cache.Version(); v != seen || pending {
			seen, pending = v, false
			if _, err := fmt.Fprintf(w, "id: %d\nevent: refresh\ndata: %d\n\n", v, v); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
			continue
		}

		select {
		case <-r.Context().Done():
			return
		case <-cache.Done():
			return
		case <-changed:
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
