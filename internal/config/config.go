// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port            string
	DBPath          string
	AllowedOrigins  []string
	DefaultLanguage string
	StaleSessionTTL time.Duration

	Extract   ExtractConfig
	Workspace WorkspaceConfig
	Invites   InviteConfig
	Audit     AuditConfig
	RateLimit RateLimitConfig
	Timeout   TimeoutConfig
}

// ExtractConfig controls the LLM extraction gateway.
type ExtractConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
}

// WorkspaceConfig holds Google Workspace credentials and resource ids.
type WorkspaceConfig struct {
	CredentialsFile      string
	RootFolderID         string
	ClientsSpreadsheetID string
}

// InviteConfig controls access-grant invitation links.
type InviteConfig struct {
	BaseURL string
}

// AuditConfig controls NDJSON audit logging.
type AuditConfig struct {
	Enabled   bool
	Path      string
	QueueSize int
}

// RateLimitConfig controls per-subject request throttling.
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// TimeoutConfig holds operational timeouts.
type TimeoutConfig struct {
	HealthCheck   time.Duration
	ProvisionStep time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("AUDIT_QUEUE_SIZE", 64)
	if queueSize <= 0 {
		queueSize = 64
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBPath:          getEnv("DB_PATH", "./data/onboard.db"),
		AllowedOrigins:  splitCSV(getEnv("ALLOWED_ORIGINS", "*")),
		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "en"),
		StaleSessionTTL: getEnvDuration("STALE_SESSION_TTL", 24*time.Hour),
		Extract: ExtractConfig{
			BaseURL:     getEnv("LLM_BASE_URL", "https://api.openai.com"),
			APIKey:      getEnv("LLM_API_KEY", ""),
			Model:       getEnv("LLM_MODEL", "gpt-4o-mini"),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.2),
			Timeout:     getEnvDuration("LLM_TIMEOUT", 45*time.Second),
			MaxRetries:  getEnvInt("LLM_MAX_RETRIES", 3),
		},
		Workspace: WorkspaceConfig{
			CredentialsFile:      getEnv("GOOGLE_CREDENTIALS_FILE", ""),
			RootFolderID:         getEnv("GOOGLE_ROOT_FOLDER_ID", ""),
			ClientsSpreadsheetID: getEnv("GOOGLE_CLIENTS_SPREADSHEET_ID", ""),
		},
		Invites: InviteConfig{
			BaseURL: getEnv("INVITE_BASE_URL", "https://invite.agencykit.dev"),
		},
		Audit: AuditConfig{
			Enabled:   getEnvBool("AUDIT_ENABLED", true),
			Path:      getEnv("AUDIT_PATH", "./data/audit/onboarding.ndjson"),
			QueueSize: queueSize,
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: getEnvInt("RATE_LIMIT_REQUESTS", 20),
			WindowDuration:    getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Timeout: TimeoutConfig{
			HealthCheck:   getEnvDuration("HEALTH_CHECK_TIMEOUT", 5*time.Second),
			ProvisionStep: getEnvDuration("PROVISION_STEP_TIMEOUT", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Extract.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY cannot be empty")
	}
	if c.Extract.Model == "" {
		return fmt.Errorf("LLM_MODEL cannot be empty")
	}
	if c.Audit.Enabled && c.Audit.Path == "" {
		return fmt.Errorf("AUDIT_PATH cannot be empty when auditing is enabled")
	}
	if c.RateLimit.RequestsPerWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be > 0")
	}
	if c.StaleSessionTTL <= 0 {
		return fmt.Errorf("STALE_SESSION_TTL must be > 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
