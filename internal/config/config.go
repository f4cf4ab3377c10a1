package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	CORSOrigins      []string
	RateLimitRPM     int
	AuthRateLimitRPM int

	// RemoteBaseURL is the remote host the vault content lives on. The
	// listing API, referer headers and the capture landing page all derive
	// from it.
	RemoteBaseURL   string
	RemoteUserAgent string
	RemoteTimeout   time.Duration

	// BrowserProfileDir points at the user's real browser profile so the
	// capture window is already logged in to whatever the user uses. This is
	// inherently host-specific and therefore injected, never guessed.
	BrowserProfileDir  string
	PublicFetchTimeout time.Duration

	StreamMaxDuration time.Duration
	StreamIdleTimeout time.Duration
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8090"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 60*time.Second),
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:              int32(getInt("DB_MAX_CONNS", 8)),
		DBMinConns:              int32(getInt("DB_MIN_CONNS", 1)),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 300),
		AuthRateLimitRPM:        getInt("AUTH_RATE_LIMIT_RPM", 30),
		RemoteBaseURL:           getEnv("REMOTE_BASE_URL", "https://www.terabox.com"),
		RemoteUserAgent:         getEnv("REMOTE_USER_AGENT", defaultUserAgent),
		RemoteTimeout:           getDuration("REMOTE_TIMEOUT", 30*time.Second),
		BrowserProfileDir:       strings.TrimSpace(os.Getenv("BROWSER_PROFILE_DIR")),
		PublicFetchTimeout:      getDuration("PUBLIC_FETCH_TIMEOUT", 30*time.Second),
		StreamMaxDuration:       getDuration("STREAM_MAX_DURATION", 6*time.Hour),
		StreamIdleTimeout:       getDuration("STREAM_IDLE_TIMEOUT", 2*time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if !strings.HasPrefix(c.RemoteBaseURL, "http://") && !strings.HasPrefix(c.RemoteBaseURL, "https://") {
		return fmt.Errorf("REMOTE_BASE_URL must be an absolute http(s) URL")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.PublicFetchTimeout <= 0 {
		return fmt.Errorf("PUBLIC_FETCH_TIMEOUT must be positive")
	}

	if c.StreamMaxDuration <= 0 || c.StreamIdleTimeout <= 0 {
		return fmt.Errorf("stream timeouts must be positive")
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
