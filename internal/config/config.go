package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SessionStoreMemory   = "memory"
	SessionStorePostgres = "postgres"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration

	BackendBaseURL     string
	BackendTimeout     time.Duration
	BackendInsecureTLS bool

	SessionSecret       string
	SessionTTL          time.Duration
	SessionCookieName   string
	SessionCookieSecure bool
	SessionStore        string
	SessionPurgeSpec    string
	WorkspaceIdleTTL    time.Duration

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	CORSOrigins      []string
	RateLimitRPM     int
	AuthRateLimitRPM int
	CoverMaxWidth    int
	LogLevel         string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 45*time.Second),
		BackendBaseURL:          getEnv("BACKEND_BASE_URL", "https://localhost:7098"),
		BackendTimeout:          getDuration("BACKEND_TIMEOUT", 30*time.Second),
		BackendInsecureTLS:      getBool("BACKEND_INSECURE_TLS", false),
		SessionSecret:           strings.TrimSpace(os.Getenv("SESSION_SECRET")),
		SessionTTL:              getDuration("SESSION_TTL", 24*time.Hour),
		SessionCookieName:       getEnv("SESSION_COOKIE_NAME", "booknest_session"),
		SessionCookieSecure:     getBool("SESSION_COOKIE_SECURE", true),
		SessionStore:            strings.ToLower(getEnv("SESSION_STORE", SessionStoreMemory)),
		SessionPurgeSpec:        getEnv("SESSION_PURGE_SCHEDULE", "@every 15m"),
		WorkspaceIdleTTL:        getDuration("WORKSPACE_IDLE_TTL", 30*time.Minute),
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:              int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:              int32(getInt("DB_MIN_CONNS", 1)),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 300),
		AuthRateLimitRPM:        getInt("AUTH_RATE_LIMIT_RPM", 10),
		CoverMaxWidth:           getInt("COVER_MAX_WIDTH", 320),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.SessionSecret) == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}

	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	parsed, err := url.Parse(c.BackendBaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("BACKEND_BASE_URL must be an absolute http(s) URL")
	}

	if c.BackendTimeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	if strings.TrimSpace(c.SessionCookieName) == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME cannot be empty")
	}

	switch c.SessionStore {
	case SessionStoreMemory:
	case SessionStorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SESSION_STORE=postgres")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be %q or %q", SessionStoreMemory, SessionStorePostgres)
	}

	if strings.TrimSpace(c.SessionPurgeSpec) == "" {
		return fmt.Errorf("SESSION_PURGE_SCHEDULE cannot be empty")
	}

	if c.CoverMaxWidth <= 0 {
		return fmt.Errorf("COVER_MAX_WIDTH must be positive")
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
