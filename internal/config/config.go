// Package config loads the downloader configuration from environment
// variables, with an optional .env overlay for local use. The rest of the
// program consumes the validated Config read-only.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Core settings
	ServiceName string
	Environment string
	LogLevel    string

	// Credentials for the dissemination servers, attached per request.
	Credentials Credentials

	// Collections the account is entitled to query.
	Collections []string
	// StrictCollections makes a product type whose candidate collections are
	// all disabled a hard per-type error instead of a warning.
	StrictCollections bool

	// Local materialization
	DataDirectory string
	Unzip         bool
	Subdirs       bool
	Overwrite     bool

	Catalogue CatalogueConfig
	HTTP      HTTPConfig
	Mirrors   MirrorConfig
	Archive   ArchiveConfig

	// PushgatewayURL receives the run's metrics when set.
	PushgatewayURL string
}

// Credentials identify the user against the dissemination servers.
type Credentials struct {
	Username string
	Password string
}

// CatalogueConfig holds the OpenSearch catalogue endpoint settings.
type CatalogueConfig struct {
	BaseURL  string
	PageSize int
	// MaxPages bounds worst-case queries.
	MaxPages int
}

// HTTPConfig holds HTTP client configuration shared by catalogue and
// dissemination requests.
type HTTPConfig struct {
	Timeout    time.Duration
	MaxRetries int
	UserAgent  string
}

// MirrorConfig names the two redundant dissemination servers.
type MirrorConfig struct {
	Primary   string
	Secondary string
	// AuthFailureLimit is the number of consecutive authentication
	// rejections after which the remaining batch is short-circuited.
	AuthFailureLimit int
}

// ArchiveConfig enables optional S3 archival of fetched products.
type ArchiveConfig struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
}

// Enabled reports whether products should be archived to S3 after download.
func (a ArchiveConfig) Enabled() bool {
	return a.Bucket != ""
}

// Load reads .env files (if present) and the environment, applies defaults
// and validates the result.
func Load() (*Config, error) {
	loadEnvFiles()

	cfg := parse()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadEnvFiles loads .env overlays in order of precedence. Missing files are
// fine; the environment always wins over file values.
func loadEnvFiles() {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err == nil {
			godotenv.Load(name)
		}
	}
}

func parse() *Config {
	return &Config{
		ServiceName: getEnv("SERVICE_NAME", "oads_download"),
		Environment: getEnv("ENVIRONMENT", "production"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		Credentials: Credentials{
			Username: getEnv("OADS_USERNAME", ""),
			Password: getEnv("OADS_PASSWORD", ""),
		},

		Collections:       getList("OADS_COLLECTIONS", nil),
		StrictCollections: getBool("OADS_STRICT_COLLECTIONS", false),

		DataDirectory: getEnv("OADS_DATA_DIR", "."),
		Unzip:         getBool("OADS_UNZIP", true),
		Subdirs:       getBool("OADS_SUBDIRS", true),
		Overwrite:     getBool("OADS_OVERWRITE", false),

		Catalogue: CatalogueConfig{
			BaseURL:  getEnv("OADS_CATALOGUE_URL", "https://eocat.esa.int/eo-catalogue/opensearch"),
			PageSize: getInt("OADS_PAGE_SIZE", 1000),
			MaxPages: getInt("OADS_MAX_PAGES", 10),
		},

		HTTP: HTTPConfig{
			Timeout:    getDuration("OADS_HTTP_TIMEOUT", "60s"),
			MaxRetries: getInt("OADS_HTTP_MAX_RETRIES", 3),
			UserAgent:  getEnv("OADS_USER_AGENT", "oads-download/2.5"),
		},

		Mirrors: MirrorConfig{
			Primary:          getEnv("OADS_MIRROR_PRIMARY", "https://ec-pdgs-dissemination1.eo.esa.int"),
			Secondary:        getEnv("OADS_MIRROR_SECONDARY", "https://ec-pdgs-dissemination2.eo.esa.int"),
			AuthFailureLimit: getInt("OADS_AUTH_FAILURE_LIMIT", 2),
		},

		Archive: ArchiveConfig{
			Bucket:    getEnv("OADS_ARCHIVE_BUCKET", ""),
			Region:    getEnv("OADS_ARCHIVE_REGION", "eu-central-1"),
			Endpoint:  getEnv("OADS_ARCHIVE_ENDPOINT", ""),
			AccessKey: getEnv("OADS_ARCHIVE_ACCESS_KEY", ""),
			SecretKey: getEnv("OADS_ARCHIVE_SECRET_KEY", ""),
			Prefix:    getEnv("OADS_ARCHIVE_PREFIX", "earthcare"),
		},

		PushgatewayURL: getEnv("OADS_PUSHGATEWAY_URL", ""),
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Credentials.Username == "" || c.Credentials.Password == "" {
		return fmt.Errorf("OADS_USERNAME and OADS_PASSWORD are required")
	}
	if c.DataDirectory == "" {
		return fmt.Errorf("OADS_DATA_DIR must not be empty")
	}
	if c.Catalogue.BaseURL == "" {
		return fmt.Errorf("OADS_CATALOGUE_URL must not be empty")
	}
	if c.Catalogue.PageSize <= 0 {
		return fmt.Errorf("OADS_PAGE_SIZE must be positive, got %d", c.Catalogue.PageSize)
	}
	if c.Catalogue.MaxPages <= 0 {
		return fmt.Errorf("OADS_MAX_PAGES must be positive, got %d", c.Catalogue.MaxPages)
	}
	if c.Mirrors.Primary == "" {
		return fmt.Errorf("OADS_MIRROR_PRIMARY must not be empty")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("OADS_HTTP_MAX_RETRIES must not be negative, got %d", c.HTTP.MaxRetries)
	}
	if c.Archive.Enabled() && c.Archive.Region == "" {
		return fmt.Errorf("OADS_ARCHIVE_REGION is required when OADS_ARCHIVE_BUCKET is set")
	}
	return nil
}
