// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/splereg/internal/app/system/timezones"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for splereg.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: SPLEREG_MONGO_URI, SPLEREG_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "sple_kuwait", Desc: "MongoDB database name"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "splereg-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Admin session lifetime (e.g., 8h, 24h)"},
	{Name: "session_cache_size", Default: 256, Desc: "Max reviewer caches held in memory"},
	{Name: "session_cache_ttl", Default: "12h", Desc: "Idle reviewer caches are dropped after this"},

	// Media host
	{Name: "media_backend", Default: "cloudinary", Desc: "Media host: 'cloudinary' or 's3'"},
	{Name: "cloudinary_cloud_name", Default: "", Desc: "Cloudinary cloud name"},
	{Name: "cloudinary_upload_preset", Default: "", Desc: "Cloudinary unsigned upload preset"},
	{Name: "cloudinary_base_url", Default: "", Desc: "Cloudinary API base (blank means the public API)"},
	{Name: "media_signature_folder", Default: "sple-signatures", Desc: "Folder for signature images"},
	{Name: "media_attachment_folder", Default: "sple-attachments", Desc: "Folder for supporting documents"},

	// S3
	{Name: "s3_region", Default: "us-east-1", Desc: "S3 region"},
	{Name: "s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "s3_endpoint", Default: "", Desc: "S3 endpoint override (MinIO)"},
	{Name: "s3_access_key", Default: "", Desc: "S3 access key (blank uses the default credential chain)"},
	{Name: "s3_secret_key", Default: "", Desc: "S3 secret key"},
	{Name: "s3_public_url", Default: "", Desc: "Base URL uploaded objects are served from"},

	// Intake
	{Name: "submit_timeout", Default: "30s", Desc: "How long an applicant waits for the record write"},
	{Name: "submit_rate_limit", Default: 20, Desc: "Submissions per client IP per 10 minutes (0 disables)"},
	{Name: "max_upload_mb", Default: 25, Desc: "Max size of one registration or edit request in MB"},
	{Name: "event_name", Default: "SPLE Kuwait", Desc: "Event name shown on the registration form"},

	// Registry feed
	{Name: "feed_poll_interval", Default: "5s", Desc: "Re-list interval when change streams are unavailable"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Admin account email (created or updated on startup)"},
	{Name: "admin_password", Default: "", Desc: "Admin account password"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_intake", Default: "all", Desc: "Submission event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "time_zone", Default: "Asia/Kuwait", Desc: "IANA time zone for displayed and exported dates"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, SPLEREG_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "SPLEREG", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 24*time.Hour),
		SessionCacheSize: appValues.Int("session_cache_size"),
		SessionCacheTTL:  appValues.Duration("session_cache_ttl", 12*time.Hour),

		// Media host
		MediaBackend:           strings.ToLower(strings.TrimSpace(appValues.String("media_backend"))),
		CloudinaryCloudName:    appValues.String("cloudinary_cloud_name"),
		CloudinaryUploadPreset: appValues.String("cloudinary_upload_preset"),
		CloudinaryBaseURL:      appValues.String("cloudinary_base_url"),
		SignatureFolder:        appValues.String("media_signature_folder"),
		AttachmentFolder:       appValues.String("media_attachment_folder"),

		// S3
		S3Region:    appValues.String("s3_region"),
		S3Bucket:    appValues.String("s3_bucket"),
		S3Endpoint:  appValues.String("s3_endpoint"),
		S3AccessKey: appValues.String("s3_access_key"),
		S3SecretKey: appValues.String("s3_secret_key"),
		S3PublicURL: appValues.String("s3_public_url"),

		// Intake
		SubmitTimeout:   appValues.Duration("submit_timeout", 30*time.Second),
		SubmitRateLimit: appValues.Int("submit_rate_limit"),
		MaxUploadMB:     appValues.Int("max_upload_mb"),
		EventName:       appValues.String("event_name"),

		FeedPollInterval: appValues.Duration("feed_poll_interval", 5*time.Second),

		AdminEmail:    appValues.String("admin_email"),
		AdminPassword: appValues.String("admin_password"),

		AuditLogAuth:   appValues.String("audit_log_auth"),
		AuditLogAdmin:  appValues.String("audit_log_admin"),
		AuditLogIntake: appValues.String("audit_log_intake"),

		TimeZone: appValues.String("time_zone"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI and media host settings are checked here so a bad
// deployment fails before connecting.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if err := validateMedia(appCfg); err != nil {
		logger.Error("invalid media host settings", zap.Error(err))
		return err
	}
	if (appCfg.AdminEmail == "") != (appCfg.AdminPassword == "") {
		return fmt.Errorf("admin_email and admin_password must be set together")
	}
	if appCfg.TimeZone != "" && !timezones.Valid(appCfg.TimeZone) {
		return fmt.Errorf("unknown time_zone %q", appCfg.TimeZone)
	}
	if appCfg.MaxUploadMB < 0 {
		return fmt.Errorf("max_upload_mb must not be negative")
	}
	return nil
}

func validateMedia(appCfg AppConfig) error {
	switch appCfg.MediaBackend {
	case "", "cloudinary":
		if appCfg.CloudinaryCloudName == "" || appCfg.CloudinaryUploadPreset == "" {
			return fmt.Errorf("cloudinary backend requires cloudinary_cloud_name and cloudinary_upload_preset")
		}
	case "s3":
		if appCfg.S3Bucket == "" {
			return fmt.Errorf("s3 backend requires s3_bucket")
		}
		if appCfg.S3PublicURL == "" {
			return fmt.Errorf("s3 backend requires s3_public_url")
		}
		if (appCfg.S3AccessKey == "") != (appCfg.S3SecretKey == "") {
			return fmt.Errorf("s3_access_key and s3_secret_key must be set together")
		}
	default:
		return fmt.Errorf("unknown media_backend %q (want cloudinary or s3)", appCfg.MediaBackend)
	}
	return nil
}
