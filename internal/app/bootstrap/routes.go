// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"crypto/sha256"
	"net/http"

	auditlogfeature "github.com/dalemusser/splereg/internal/app/features/auditlog"
	dashboardfeature "github.com/dalemusser/splereg/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/splereg/internal/app/features/errors"
	healthfeature "github.com/dalemusser/splereg/internal/app/features/health"
	loginfeature "github.com/dalemusser/splereg/internal/app/features/login"
	logoutfeature "github.com/dalemusser/splereg/internal/app/features/logout"
	registerfeature "github.com/dalemusser/splereg/internal/app/features/register"
	registrationsfeature "github.com/dalemusser/splereg/internal/app/features/registrations"
	"github.com/dalemusser/splereg/internal/app/store/audit"
	registrationstore "github.com/dalemusser/splereg/internal/app/store/registrations"
	userstore "github.com/dalemusser/splereg/internal/app/store/users"
	"github.com/dalemusser/splereg/internal/app/system/auditlog"
	"github.com/dalemusser/splereg/internal/app/system/auth"
	"github.com/dalemusser/splereg/internal/app/system/editor"
	"github.com/dalemusser/splereg/internal/app/system/intake"
	"github.com/dalemusser/splereg/internal/app/system/mediahost"
	"github.com/dalemusser/splereg/internal/app/system/metrics"
	"github.com/dalemusser/splereg/internal/app/system/ratelimit"
	"github.com/dalemusser/splereg/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. It boots the template engine, builds
// the media uploader and the intake pipeline, and mounts the public
// registration form and the admin review area.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Refresh the signed-in admin on each request so a disabled account
	// loses access immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	uploader, err := newUploader(context.Background(), appCfg, logger)
	if err != nil {
		logger.Error("media host init failed", zap.String("backend", appCfg.MediaBackend), zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	regStore := registrationstore.New(db)
	auditStore := audit.New(db)
	auditLog := auditlog.New(auditStore, logger, auditlog.Config{
		Auth:   appCfg.AuditLogAuth,
		Admin:  appCfg.AuditLogAdmin,
		Intake: appCfg.AuditLogIntake,
	})
	errLog := errorsfeature.NewErrorLogger(logger)

	intakeSvc := intake.New(uploader, regStore, intake.Config{
		SignatureFolder:  appCfg.SignatureFolder,
		AttachmentFolder: appCfg.AttachmentFolder,
		Timeout:          timeouts.Submit(),
	}, logger)
	recordEditor := editor.New(regStore, uploader, appCfg.AttachmentFolder, logger)

	var submitLimiter *ratelimit.Limiter
	if appCfg.SubmitRateLimit > 0 {
		submitLimiter = ratelimit.New(appCfg.SubmitRateLimit, SubmitRateWindow)
	}

	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()
	r.Use(metrics.Middleware)

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Feed, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Public registration form
	registerHandler := registerfeature.NewHandler(intakeSvc, auditLog, errLog, submitLimiter, appCfg.MaxUploadMB, appCfg.EventName, logger)
	r.Mount("/", registerfeature.Routes(registerHandler))

	// Error pages
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)
	r.NotFound(errorsHandler.NotFound)

	// Everything an admin posts to is CSRF protected.
	r.Group(func(ar chi.Router) {
		ar.Use(csrfProtect(appCfg.SessionKey, secure))

		loginHandler := loginfeature.NewHandler(db, sessionMgr, errLog, auditLog, ratelimit.NewLoginLimiter(), logger)
		ar.Mount("/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, deps.Sessions, logger)
		ar.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

		dashboardHandler := dashboardfeature.NewHandler(deps.Sessions, deps.Feed, errLog, logger)
		ar.Mount("/admin", dashboardfeature.Routes(dashboardHandler, sessionMgr))

		regHandler := registrationsfeature.NewHandler(deps.Sessions, recordEditor, auditStore, auditLog, errLog, appCfg.MaxUploadMB, logger)
		ar.Mount("/admin/registrations", registrationsfeature.Routes(regHandler, sessionMgr))

		auditHandler := auditlogfeature.NewHandler(db, deps.Sessions, errLog, logger)
		ar.Mount("/admin/audit", auditlogfeature.Routes(auditHandler, sessionMgr))
	})

	return r, nil
}

// newUploader builds the configured media host client, instrumented with
// upload metrics.
func newUploader(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (mediahost.Uploader, error) {
	switch appCfg.MediaBackend {
	case "s3":
		s3, err := mediahost.NewS3(ctx, mediahost.S3Config{
			Region:    appCfg.S3Region,
			Bucket:    appCfg.S3Bucket,
			Endpoint:  appCfg.S3Endpoint,
			AccessKey: appCfg.S3AccessKey,
			SecretKey: appCfg.S3SecretKey,
			PublicURL: appCfg.S3PublicURL,
		}, logger)
		if err != nil {
			return nil, err
		}
		return mediahost.Instrument(s3, "s3"), nil
	default:
		c, err := mediahost.NewCloudinary(mediahost.CloudinaryConfig{
			CloudName:    appCfg.CloudinaryCloudName,
			UploadPreset: appCfg.CloudinaryUploadPreset,
			BaseURL:      appCfg.CloudinaryBaseURL,
		}, logger)
		if err != nil {
			return nil, err
		}
		return mediahost.Instrument(c, "cloudinary"), nil
	}
}

// csrfProtect wraps gorilla/csrf. The token key is derived from the
// session key. Outside production requests are marked as plain HTTP so
// the origin check accepts http://localhost.
func csrfProtect(sessionKey string, secure bool) func(http.Handler) http.Handler {
	key := sha256.Sum256([]byte("splereg-csrf:" + sessionKey))
	protect := csrf.Protect(key[:],
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			errorsfeature.RenderForbidden(w, r, "Your form has expired. Please reload the page and try again.", "/admin")
		})),
	)
	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			h.ServeHTTP(w, r)
		})
	}
}
