package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/glpi-bridge/pkg/util"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App    AppConfig
	GLPI   GLPIConfig
	Redis  RedisConfig
	Logger LoggerConfig
	Auth   AuthConfig
	Notify NotifyConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// GLPIConfig holds the upstream connection values.
type GLPIConfig struct {
	BaseURL                string
	AppToken               string
	UserToken              string
	DefaultEntityID        int
	SessionTTLSeconds      int
	CategoryTTLSeconds     int
	UpstreamTimeoutSeconds int
}

// RedisConfig holds optional shared-cache connection values. An empty Addr
// disables Redis and keeps all caches in-process.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines local API authentication parameters. An empty
// JWTSecret leaves the API unauthenticated.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// NotifyConfig holds the optional action webhook endpoint.
type NotifyConfig struct {
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults
// where possible. Missing or malformed upstream credentials are a
// configuration error and prevent startup.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, util.NewConfigurationError(fmt.Sprintf("invalid REDIS_DB: %v", err))
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "glpi-bridge"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		GLPI: GLPIConfig{
			BaseURL:                strings.TrimRight(os.Getenv("GLPI_URL"), "/"),
			AppToken:               os.Getenv("GLPI_APP_TOKEN"),
			UserToken:              os.Getenv("GLPI_USER_TOKEN"),
			DefaultEntityID:        getEnvAsInt("GLPI_DEFAULT_ENTITY_ID", 0),
			SessionTTLSeconds:      getEnvAsInt("GLPI_SESSION_TTL_SECONDS", 3600),
			CategoryTTLSeconds:     getEnvAsInt("CACHE_TTL_SECONDS", 300),
			UpstreamTimeoutSeconds: getEnvAsInt("UPSTREAM_TIMEOUT_SECONDS", 15),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             os.Getenv("AUTH_JWT_SECRET"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 30),
		},
		Notify: NotifyConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	if err := cfg.GLPI.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (g GLPIConfig) validate() error {
	if g.BaseURL == "" {
		return util.NewConfigurationError("GLPI_URL is required")
	}
	if !strings.HasPrefix(g.BaseURL, "http://") && !strings.HasPrefix(g.BaseURL, "https://") {
		return util.NewConfigurationError("GLPI_URL must start with http:// or https://")
	}
	if g.AppToken == "" {
		return util.NewConfigurationError("GLPI_APP_TOKEN is required")
	}
	if g.UserToken == "" {
		return util.NewConfigurationError("GLPI_USER_TOKEN is required")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SessionTTL returns the session token cache lifetime.
func (g GLPIConfig) SessionTTL() time.Duration {
	return time.Duration(g.SessionTTLSeconds) * time.Second
}

// CategoryTTL returns the category cache lifetime.
func (g GLPIConfig) CategoryTTL() time.Duration {
	return time.Duration(g.CategoryTTLSeconds) * time.Second
}

// UpstreamTimeout bounds a single upstream call.
func (g GLPIConfig) UpstreamTimeout() time.Duration {
	return time.Duration(g.UpstreamTimeoutSeconds) * time.Second
}

// Enabled reports whether a Redis shared cache is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// Enabled reports whether local API authentication is configured.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}

// AccessTokenTTL returns the issued token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
