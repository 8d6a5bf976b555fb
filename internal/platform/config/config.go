package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the gateway reads from the environment so main
// stays lean and business logic never touches os.Getenv.
type Config struct {
	Addr   string
	AppEnv string
	Debug  bool

	// Identity API base URLs. Server-side calls (this process) use APIURL;
	// PublicAPIURL is handed to browser-side portal code that needs to talk
	// to the identity API directly.
	APIURL       string
	PublicAPIURL string
	// Audience selects the identity API path family: user, provider or admin.
	Audience string

	OAuth OAuthConfig

	Session SessionConfig
	Cookie  CookieConfig
	Redis   RedisConfig

	// PostgresDSN backs the audit store. Empty means audit events stay in
	// memory (dev mode).
	PostgresDSN string
}

// OAuthConfig holds the social provider registration. The handshake itself
// runs in the portal frontend; the gateway only needs to know the provider
// is configured before accepting identity tokens for it.
type OAuthConfig struct {
	Provider     string
	ClientID     string
	ClientSecret string
}

// Configured reports whether social sign-in can be offered at all.
func (c OAuthConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// SessionConfig tunes the session lifecycle.
type SessionConfig struct {
	// TTL bounds how long an idle session survives in the store.
	TTL time.Duration
	// RefreshThreshold is the remaining access-token lifetime below which a
	// session read triggers a refresh.
	RefreshThreshold time.Duration
}

// CookieConfig controls the session cookie the gateway sets.
type CookieConfig struct {
	Name   string
	Secure bool
}

// RedisConfig holds connection settings for the session store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables with dev-friendly
// defaults. Missing optional backends (redis, postgres) yield empty values;
// main decides the fallback.
func FromEnv() Config {
	return Config{
		Addr:   getEnv("CAREGATE_ADDR", ":8080"),
		AppEnv: getEnv("APP_ENV", "local"),
		Debug:  getEnv("CAREGATE_DEBUG", "") == "true",

		APIURL:       getEnv("CAREGATE_API_URL", "http://localhost:5000"),
		PublicAPIURL: getEnv("CAREGATE_PUBLIC_API_URL", "http://localhost:5000"),
		Audience:     getEnv("CAREGATE_AUDIENCE", "user"),

		OAuth: OAuthConfig{
			Provider:     getEnv("CAREGATE_OAUTH_PROVIDER", "google"),
			ClientID:     os.Getenv("CAREGATE_OAUTH_CLIENT_ID"),
			ClientSecret: os.Getenv("CAREGATE_OAUTH_CLIENT_SECRET"),
		},

		Session: SessionConfig{
			TTL:              getDuration("CAREGATE_SESSION_TTL", 24*time.Hour),
			RefreshThreshold: getDuration("CAREGATE_REFRESH_THRESHOLD", 5*time.Minute),
		},
		Cookie: CookieConfig{
			Name:   getEnv("CAREGATE_COOKIE_NAME", "cg_session"),
			Secure: getEnv("CAREGATE_COOKIE_SECURE", "") == "true",
		},
		Redis: RedisConfig{
			URL:          os.Getenv("CAREGATE_REDIS_URL"),
			PoolSize:     getInt("CAREGATE_REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("CAREGATE_REDIS_MIN_IDLE", 2),
			DialTimeout:  getDuration("CAREGATE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("CAREGATE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("CAREGATE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},

		PostgresDSN: os.Getenv("CAREGATE_POSTGRES_DSN"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
