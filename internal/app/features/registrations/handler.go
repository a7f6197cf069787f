// internal/app/features/registrations/handler.go
package registrations

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/splereg/internal/app/features/errors"
	"github.com/dalemusser/splereg/internal/app/store/audit"
	"github.com/dalemusser/splereg/internal/app/system/auditlog"
	"github.com/dalemusser/splereg/internal/app/system/auth"
	"github.com/dalemusser/splereg/internal/app/system/editor"
	"github.com/dalemusser/splereg/internal/app/system/limits"
	"github.com/dalemusser/splereg/internal/app/system/mediahost"
	"github.com/dalemusser/splereg/internal/app/system/registry"
	"github.com/dalemusser/splereg/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Editor applies reviewer changes against a session cache.
type Editor interface {
	Update(ctx context.Context, cache *registry.Cache, id string, f editor.Fields, files []mediahost.Payload) (int, error)
	DeleteAttachment(ctx context.Context, cache *registry.Cache, id string, index int) (models.Attachment, error)
	Delete(ctx context.Context, id string) error
}

// History lists the audit trail of one registration.
type History interface {
	ForRegistration(ctx context.Context, id primitive.ObjectID, limit int64) ([]audit.Event, error)
}

// historyLimit caps the events shown on the detail page.
const historyLimit = 20

type Handler struct {
	Sessions  *registry.Sessions
	Editor    Editor
	History   History // nil hides the history panel
	AuditLog  *auditlog.Logger
	ErrLog    *uierrors.ErrorLogger
	Log       *zap.Logger
	MaxUpload int64
}

func NewHandler(
	sessions *registry.Sessions,
	ed Editor,
	history History,
	audit *auditlog.Logger,
	errLog *uierrors.ErrorLogger,
	maxUploadMB int,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Sessions:  sessions,
		Editor:    ed,
		History:   history,
		AuditLog:  audit,
		ErrLog:    errLog,
		Log:       logger,
		MaxUpload: limits.UploadBytes(maxUploadMB),
	}
}

// reviewer returns the signed-in admin and their cache.
func (h *Handler) reviewer(r *http.Request) (*auth.SessionUser, *registry.Cache, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return nil, nil, false
	}
	return u, h.Sessions.For(u.ViewKey()), true
}

func detailURL(id string) string { return "/admin/registrations/" + id }

func editURL(id string) string { return detailURL(id) + "/edit" }
