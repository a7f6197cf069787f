// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/splereg/internal/app/resources"
	userstore "github.com/dalemusser/splereg/internal/app/store/users"
	"github.com/dalemusser/splereg/internal/app/system/timeouts"
	"github.com/dalemusser/splereg/internal/app/system/timezones"
	"github.com/dalemusser/splereg/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built: shared
// templates, process-wide settings, the admin account and the registry feed.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	n := configureTimeouts(appCfg)
	logger.Info("timeouts configured", zap.Int("from_env", n), zap.Any("timeouts", timeouts.Current()))

	if appCfg.TimeZone != "" {
		loc, err := timezones.Resolve(appCfg.TimeZone)
		if err != nil {
			return fmt.Errorf("time zone: %w", err)
		}
		timezones.SetDisplay(loc)
	}
	viewdata.SetSiteName(appCfg.EventName)

	if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, appCfg.AdminPassword, logger); err != nil {
		return err
	}

	// Subscribe before Start so the first snapshot reaches live caches.
	deps.Feed.Subscribe(deps.Sessions.Broadcast)
	deps.Feed.Start()
	return nil
}

// configureTimeouts applies submit_timeout, then the TIMEOUT_*
// environment variables, which win when set.
func configureTimeouts(appCfg AppConfig) int {
	timeouts.Configure(timeouts.Config{Submit: appCfg.SubmitTimeout})
	return timeouts.ConfigureFromEnv()
}

// ensureAdmin creates or updates the admin account named in config. An
// empty email skips it; accounts then have to exist already.
func ensureAdmin(ctx context.Context, deps DBDeps, email, password string, logger *zap.Logger) error {
	if email == "" {
		logger.Info("admin bootstrap skipped; admin_email not set")
		return nil
	}
	created, err := userstore.New(deps.MongoDatabase).EnsureAdmin(ctx, email, password)
	if err != nil {
		logger.Error("ensure admin failed", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		logger.Info("admin account created", zap.String("email", email))
	} else {
		logger.Info("admin account updated", zap.String("email", email))
	}
	return nil
}
