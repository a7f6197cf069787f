// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/splereg/internal/app/system/auditlog"
	"github.com/dalemusser/splereg/internal/app/system/auth"
	"github.com/dalemusser/splereg/internal/app/system/registry"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Sessions   *registry.Sessions // may be nil
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, sessions *registry.Sessions, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Sessions:   sessions,
	}
}

// ServeLogout handles GET /logout. It forgets the session's registry
// cache and deletes the cookie.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		if h.Sessions != nil && u.SessionID != "" {
			h.Sessions.Drop(u.SessionID)
		}
		h.AuditLog.Logout(r.Context(), r, u.ID)
	}

	session, err := h.SessionMgr.GetSession(r)
	if err != nil {
		// Still clear the cookie below.
		h.Log.Warn("session decode failed during logout", zap.Error(err))
	}

	// The deletion cookie must match the store settings.
	opts := h.SessionMgr.Store().Options
	if opts != nil {
		session.Options.Domain = opts.Domain
		session.Options.Path = opts.Path
		session.Options.Secure = opts.Secure
		session.Options.HttpOnly = opts.HttpOnly
		session.Options.SameSite = opts.SameSite
	}
	session.Options.MaxAge = -1

	if err := session.Save(r, w); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}

	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
