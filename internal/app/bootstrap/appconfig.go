// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (HTTP ports, TLS,
// logging, CORS); AppConfig is everything specific to SchoolHub.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI      string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase string // Database name within MongoDB

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: schoolhub-session)
	SessionDomain string // Cookie domain (blank means current host)

	// File storage configuration for submission uploads
	StorageType      string // Storage backend: "local" or "s3"
	StorageLocalPath string // Local storage path (e.g., "./uploads/submissions")
	StorageLocalURL  string // URL prefix for serving local files

	// S3 configuration (only used if StorageType is "s3")
	StorageS3Region string // AWS region
	StorageS3Bucket string // S3 bucket name
	StorageS3Prefix string // Key prefix (e.g., "submissions/")

	// Seed admin bootstrap: created on startup if absent, and protected
	// from deletion and role changes afterwards.
	SeedAdminEmail    string
	SeedAdminName     string
	SeedAdminPassword string
}
