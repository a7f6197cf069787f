// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/splereg/internal/app/features/errors"
	"github.com/dalemusser/splereg/internal/app/system/auth"
	"github.com/dalemusser/splereg/internal/app/system/registry"
	"go.uber.org/zap"
)

// Reloader forces a fresh full snapshot into every session cache.
type Reloader interface {
	Reload(ctx context.Context) error
}

// DefaultKeepAlive is how often an idle event stream sends a comment.
const DefaultKeepAlive = 25 * time.Second

type Handler struct {
	Sessions  *registry.Sessions
	Feed      Reloader
	ErrLog    *uierrors.ErrorLogger
	Log       *zap.Logger
	KeepAlive time.Duration
}

func NewHandler(sessions *registry.Sessions, feed Reloader, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Sessions:  sessions,
		Feed:      feed,
		ErrLog:    errLog,
		Log:       logger,
		KeepAlive: DefaultKeepAlive,
	}
}

// cacheFor returns the signed-in reviewer's cache. Routes are behind
// RequireRole, so a missing user is a wiring error.
func (h *Handler) cacheFor(r *http.Request) (*registry.Cache, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return nil, false
	}
	return h.Sessions.For(u.ViewKey()), true
}
