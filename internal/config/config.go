// Package config loads find-link settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	ferrors "github.com/olgasafonova/findlink-mcp-server/internal/errors"
)

// Prefix is prepended to every variable name, e.g. FINDLINK_API_URL.
const Prefix = "FINDLINK"

// Defaults. Struct tag defaults below must stay in sync with these.
const (
	DefaultAPIURL           = "https://en.wikipedia.org/w/api.php"
	DefaultUserAgent        = "findlink-mcp-server/1.0 (https://github.com/olgasafonova/findlink-mcp-server)"
	DefaultTimeout          = 30 * time.Second
	DefaultConnRetries      = 10
	DefaultDecodeAttempts   = 5
	DefaultDecodeBackoff    = 500 * time.Millisecond
	DefaultBatchSize        = 50
	DefaultMaxContinuations = 10
)

// DefaultDisambigTemplates are the template titles that mark a page as a disambiguation page.
var DefaultDisambigTemplates = []string{
	"Template:Disambiguation",
	"Template:Disambig",
	"Template:Dab",
	"Template:Disamb",
	"Template:Hndis",
	"Template:Geodis",
	"Template:Surname",
	"Template:Given name",
	"Template:Set index article",
	"Template:Human name disambiguation",
	"Template:Place name disambiguation",
	"Template:Letter-number combination disambiguation",
	"Template:Mathematical disambiguation",
	"Template:Molecular formula disambiguation",
	"Template:Number disambiguation",
	"Template:Species Latin name disambiguation",
	"Template:Genus disambiguation",
	"Template:Road disambiguation",
	"Template:School disambiguation",
	"Template:Hospital disambiguation",
	"Template:Airport disambiguation",
	"Template:Call sign disambiguation",
}

// Config holds all environment-based configuration.
type Config struct {
	// APIURL is the MediaWiki action API endpoint.
	// Env: FINDLINK_API_URL
	APIURL string `envconfig:"API_URL" default:"https://en.wikipedia.org/w/api.php"`

	// UserAgent identifies the client with contact information.
	// Env: FINDLINK_USER_AGENT
	UserAgent string `envconfig:"USER_AGENT" default:"findlink-mcp-server/1.0 (https://github.com/olgasafonova/findlink-mcp-server)"`

	// Timeout is the per-request deadline.
	// Env: FINDLINK_TIMEOUT (default: 30s)
	Timeout time.Duration `envconfig:"TIMEOUT" default:"30s"`

	// ConnRetries bounds connection-level retries for one request.
	// Env: FINDLINK_CONN_RETRIES (default: 10)
	ConnRetries int `envconfig:"CONN_RETRIES" default:"10"`

	// RetryWaitMin and RetryWaitMax bound the wait between connection retries.
	RetryWaitMin time.Duration `envconfig:"RETRY_WAIT_MIN" default:"100ms"`
	RetryWaitMax time.Duration `envconfig:"RETRY_WAIT_MAX" default:"2s"`

	// DecodeAttempts is the total number of attempts made when a reply is not valid JSON.
	// Env: FINDLINK_DECODE_ATTEMPTS (default: 5)
	DecodeAttempts int `envconfig:"DECODE_ATTEMPTS" default:"5"`

	// DecodeBackoff is the fixed sleep between decode attempts.
	DecodeBackoff time.Duration `envconfig:"DECODE_BACKOFF" default:"500ms"`

	// BatchSize is the number of titles joined into one request (ceiling 50).
	BatchSize int `envconfig:"BATCH_SIZE" default:"50"`

	// MaxContinuations bounds continuation requests after the first page.
	MaxContinuations int `envconfig:"MAX_CONTINUATIONS" default:"10"`

	// DisambigTemplates is a comma-separated override of DefaultDisambigTemplates.
	DisambigTemplates []string `envconfig:"DISAMBIG_TEMPLATES"`

	// LogLevel is DEBUG, INFO, WARN or ERROR.
	// Env: FINDLINK_LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// HTTPAddr enables the streamable HTTP transport when non-empty (e.g. ":8080").
	HTTPAddr string `envconfig:"HTTP_ADDR"`
}

// Load reads an optional .env file and then the environment.
// A missing .env file is not an error; existing environment variables win over the file.
func Load(envPath string) (*Config, error) {
	if err := loadDotEnv(envPath); err != nil {
		return nil, fmt.Errorf("load %s: %w", envPath, err)
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if len(cfg.DisambigTemplates) == 0 {
		cfg.DisambigTemplates = append([]string(nil), DefaultDisambigTemplates...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// Validate checks values that envconfig cannot express in tags.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ferrors.NewValidationError("API_URL", c.APIURL, "must be an absolute http(s) URL")
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		return ferrors.NewValidationError("USER_AGENT", "", "must identify the client")
	}
	if c.DecodeAttempts < 1 {
		return ferrors.NewValidationError("DECODE_ATTEMPTS", fmt.Sprint(c.DecodeAttempts), "must be at least 1")
	}
	if c.ConnRetries < 0 {
		return ferrors.NewValidationError("CONN_RETRIES", fmt.Sprint(c.ConnRetries), "must not be negative")
	}
	if c.BatchSize < 1 || c.BatchSize > DefaultBatchSize {
		return ferrors.NewValidationError("BATCH_SIZE", fmt.Sprint(c.BatchSize), "must be between 1 and 50")
	}
	if c.MaxContinuations < 0 {
		return ferrors.NewValidationError("MAX_CONTINUATIONS", fmt.Sprint(c.MaxContinuations), "must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	level, _ := ParseLevel(c.LogLevel)
	return level
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, ferrors.NewValidationError("LOG_LEVEL", name, "must be DEBUG, INFO, WARN or ERROR")
	}
}
