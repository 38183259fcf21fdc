// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting the server uses.
type Config struct {
	// Addr is the listen address, e.g. ":3000".
	Addr string
	// ProjectID is the Firebase/GCP project that owns Firestore, Auth and logging.
	ProjectID string
	// StorageBucket is the Firebase Storage bucket backing file uploads.
	StorageBucket string
	// AllowedOrigins restricts CORS; "*" by default.
	AllowedOrigins []string
	// LogName is the Cloud Logging log id.
	LogName string
	// NotificationTopic is the Pub/Sub topic notification events are published to.
	// Empty disables publishing.
	NotificationTopic string
}

// Load reads .env if present (missing files are fine) and builds a Config
// from the environment.
func Load() Config {
	// Ignore the error: a missing .env just means everything comes from the
	// real environment.
	_ = godotenv.Load()

	cfg := Config{
		Addr:              ":" + envOr("PORT", "3000"),
		ProjectID:         os.Getenv("FIREBASE_PROJECT_ID"),
		StorageBucket:     os.Getenv("FIREBASE_STORAGE_BUCKET"),
		LogName:           envOr("LOG_NAME", "groupify_info"),
		NotificationTopic: os.Getenv("NOTIFICATION_TOPIC"),
	}

	origins := envOr("ALLOWED_ORIGINS", "*")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
