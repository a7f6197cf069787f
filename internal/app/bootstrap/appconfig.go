// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// the framework-level settings (ports, TLS, logging, CORS); everything
// specific to registration intake and review lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI      string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase string // Database name within MongoDB

	// Session management configuration
	SessionKey       string        // Secret key for signing session cookies (must be strong in production)
	SessionName      string        // Cookie name for sessions (default: splereg-session)
	SessionDomain    string        // Cookie domain (blank means current host)
	SessionMaxAge    time.Duration // Admin cookie lifetime
	SessionCacheSize int           // Max reviewer caches held at once
	SessionCacheTTL  time.Duration // Idle reviewer caches are dropped after this

	// Media host configuration
	MediaBackend           string // "cloudinary" or "s3"
	CloudinaryCloudName    string
	CloudinaryUploadPreset string // unsigned upload preset
	CloudinaryBaseURL      string // blank means the public API
	SignatureFolder        string // folder for signature images
	AttachmentFolder       string // folder for supporting documents

	// S3 configuration (only used if MediaBackend is "s3")
	S3Region    string
	S3Bucket    string
	S3Endpoint  string // blank for AWS; set for MinIO
	S3AccessKey string // blank means the default credential chain
	S3SecretKey string
	S3PublicURL string // base URL objects are served from

	// Intake
	SubmitTimeout   time.Duration // how long an applicant waits for the write to confirm
	SubmitRateLimit int           // submissions per client IP per SubmitRateWindow; 0 disables
	MaxUploadMB     int           // cap on one registration or edit request
	EventName       string        // heading on the registration form

	// Registry feed
	FeedPollInterval time.Duration // re-list interval when change streams are unavailable

	// Admin bootstrap (create-or-update at startup)
	AdminEmail    string
	AdminPassword string

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth   string
	AuditLogAdmin  string
	AuditLogIntake string

	// Display time zone for dates in the dashboard and exports
	TimeZone string
}

// SubmitRateWindow is the window SubmitRateLimit counts over.
const SubmitRateWindow = 10 * time.Minute
