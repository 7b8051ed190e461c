package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mkredacao/portal-client/internal/nav"
)

// Config holds all application configuration.
type Config struct {
	APIBaseURL string
	LogLevel   string
	LogFormat  string

	// Credential storage backend: "file" (default), "redis" or "memory".
	StoreBackend   string
	StorePath      string
	RedisURL       string
	RedisKeyPrefix string

	// Delay between showing the expiry notice and navigating away,
	// so the notice has a chance to render before the page unloads.
	RedirectDelay time.Duration

	// Login routes, relative to the portal frontend root.
	StudentLoginRoute   string
	ProfessorLoginRoute string
	SchoolLoginRoute    string
	HomeLoginRoute      string
	ChangePasswordRoute string

	// devproxy settings.
	ProxyPort string
	GinMode   string
	// AllowedOrigins controls HTTP CORS for the devproxy.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error — .env is optional

	return &Config{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:3000"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "pretty"),

		StoreBackend:   getEnv("CRED_STORE", "file"),
		StorePath:      getEnv("CRED_STORE_PATH", defaultStorePath()),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "mk:cred"),

		RedirectDelay: time.Duration(getEnvInt("REDIRECT_DELAY_MS", 600)) * time.Millisecond,

		StudentLoginRoute:   getEnv("ROUTE_LOGIN_STUDENT", "login-aluno.html"),
		ProfessorLoginRoute: getEnv("ROUTE_LOGIN_PROFESSOR", "login-professor.html"),
		SchoolLoginRoute:    getEnv("ROUTE_LOGIN_SCHOOL", "login-escola.html"),
		HomeLoginRoute:      getEnv("ROUTE_LOGIN_HOME", "login.html"),
		ChangePasswordRoute: getEnv("ROUTE_CHANGE_PASSWORD", "professor-atualizar-senha.html"),

		ProxyPort:      getEnv("PROXY_PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

// LoginRoutes bundles the configured route names for the guard and gateway.
func (c *Config) LoginRoutes() nav.LoginRoutes {
	return nav.LoginRoutes{
		Student:        c.StudentLoginRoute,
		Professor:      c.ProfessorLoginRoute,
		School:         c.SchoolLoginRoute,
		Home:           c.HomeLoginRoute,
		ChangePassword: c.ChangePasswordRoute,
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mkredacao/credentials.json"
	}
	return filepath.Join(home, ".mkredacao", "credentials.json")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
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

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
