// internal/app/features/auditlog/handler.go
package auditlog

import (
	uierrors "github.com/dalemusser/splereg/internal/app/features/errors"
	"github.com/dalemusser/splereg/internal/app/store/audit"
	userstore "github.com/dalemusser/splereg/internal/app/store/users"
	"github.com/dalemusser/splereg/internal/app/system/registry"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Audit    *audit.Store
	Users    *userstore.Store
	Sessions *registry.Sessions // resolves registration names; nil shows ids
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

// NewHandler constructs an Audit Log feature handler bound to
// the given Mongo database and logger.
func NewHandler(db *mongo.Database, sessions *registry.Sessions, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Audit:    audit.New(db),
		Users:    userstore.New(db),
		Sessions: sessions,
		Log:      logger,
		ErrLog:   errLog,
	}
}
