package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration. It is built once at startup
// and passed by injection; nothing reads the environment after New returns.
type Config struct {
	// Server configuration
	Server struct {
		Port    int
		Env     string
		Timeout time.Duration
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
		AllowedOrigins []string
		TrustedProxies []string
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Agent holds the remote agent platform credential group
	Agent AgentConfig
}

// AgentConfig is the credential group for the remote agent platform.
// If any required member is absent the group is unconfigured and the
// chat feature is disabled; the service still starts.
type AgentConfig struct {
	Endpoint     string
	Project      string
	AgentID      string
	TenantID     string
	ClientID     string
	ClientSecret string
	APIVersion   string
	TokenScope   string
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// Configured reports whether every required member of the credential
// group is present.
func (a AgentConfig) Configured() bool {
	return a.Endpoint != "" &&
		a.Project != "" &&
		a.AgentID != "" &&
		a.TenantID != "" &&
		a.ClientID != "" &&
		a.ClientSecret != ""
}

// New builds a Config from environment variables, loading a .env file if
// one exists. It returns an error for values that would make the server
// unable to run; a missing agent credential group is not an error.
func New() (*Config, error) {
	godotenv.Load()

	cfg := &Config{}

	// Server config
	cfg.Server.Port = getEnvInt("PORT", 3000)
	cfg.Server.Env = getEnvString("APP_ENV", "development")
	cfg.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)

	// Security config
	cfg.Security.RateLimit = float64(getEnvInt("RATE_LIMIT", 5))
	cfg.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
	cfg.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", nil)
	cfg.Security.TrustedProxies = getEnvStringSlice("TRUSTED_PROXIES", []string{"127.0.0.1"})

	// Logging config
	cfg.Logging.Level = getEnvString("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnvString("LOG_FORMAT", "json")

	// Agent credential group
	cfg.Agent.Endpoint = strings.TrimRight(getEnvString("AGENT_ENDPOINT", ""), "/")
	cfg.Agent.Project = getEnvString("AGENT_PROJECT", "")
	cfg.Agent.AgentID = getEnvString("AGENT_ID", "")
	cfg.Agent.TenantID = getEnvString("AGENT_TENANT_ID", "")
	cfg.Agent.ClientID = getEnvString("AGENT_CLIENT_ID", "")
	cfg.Agent.ClientSecret = getEnvString("AGENT_CLIENT_SECRET", "")
	cfg.Agent.APIVersion = getEnvString("AGENT_API_VERSION", "v1")
	cfg.Agent.TokenScope = getEnvString("AGENT_TOKEN_SCOPE", "https://ai.azure.com/.default")
	cfg.Agent.PollInterval = getEnvDuration("AGENT_POLL_INTERVAL", 800*time.Millisecond)
	cfg.Agent.PollTimeout = getEnvDuration("AGENT_POLL_TIMEOUT", 120*time.Second)

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT %d: must be between 1 and 65535", cfg.Server.Port)
	}
	if cfg.Agent.PollInterval <= 0 {
		return nil, fmt.Errorf("invalid AGENT_POLL_INTERVAL %s: must be positive", cfg.Agent.PollInterval)
	}
	if cfg.Agent.PollTimeout <= 0 {
		return nil, fmt.Errorf("invalid AGENT_POLL_TIMEOUT %s: must be positive", cfg.Agent.PollTimeout)
	}

	return cfg, nil
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if dur, err := time.ParseDuration(value); err == nil {
			return dur
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
