// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"nutripal/internal/storage"
)

// Config holds the configuration for the NutriPal server.
type Config struct {
	// Listen is the address the HTTP server binds to.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// SessionKey signs the session cookie.
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
	// SessionMaxAge is the session lifetime in seconds.
	SessionMaxAge int `yaml:"session_max_age" mapstructure:"session_max_age"`
	// SpeechInput tells clients whether to offer the microphone button.
	SpeechInput bool `yaml:"speech_input" mapstructure:"speech_input"`

	Storage *StorageConfig `yaml:"storage" mapstructure:"storage"`
	Admin   *AdminConfig   `yaml:"admin" mapstructure:"admin"`
	AI      *AIConfig      `yaml:"ai" mapstructure:"ai"`
}

type StorageConfig struct {
	// Backend is either "sqlite" or "bolt".
	Backend string `yaml:"backend" mapstructure:"backend"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// AdminConfig is the administrator account seeded into an empty store.
type AdminConfig struct {
	Email    string `yaml:"email" mapstructure:"email"`
	Password string `yaml:"password" mapstructure:"password"`
}

type AIConfig struct {
	// GatewayURL is the base URL of the MCP gateway serving completions.
	GatewayURL string `yaml:"gateway_url" mapstructure:"gateway_url"`
	APIKey     string `yaml:"api_key" mapstructure:"api_key"`
	Model      string `yaml:"model" mapstructure:"model"`
	// Timeout bounds one AI call, in seconds.
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	// RequestsPerMinute caps AI calls across all sessions. Zero disables it.
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

func (c *Config) SessionMaxAgeDuration() time.Duration {
	return time.Duration(c.SessionMaxAge) * time.Second
}

func (c *AIConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Load reads the configuration from path, or from the default search paths
// when path is empty. A .env file in the working directory is loaded into
// the environment first. Environment variables with the NUTRIPAL_ prefix
// override file values.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("NUTRIPAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// gateway deployments already export these
	_ = v.BindEnv("ai.gateway_url", "NUTRIPAL_AI_GATEWAY_URL", "MCP_PROXY_URL")
	_ = v.BindEnv("ai.api_key", "NUTRIPAL_AI_API_KEY", "MCP_PROXY_API_KEY")
	_ = v.BindEnv("ai.model", "NUTRIPAL_AI_MODEL", "OPENROUTER_MODEL")

	var configFileFound bool
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.nutripal")
		v.AddConfigPath("/etc/nutripal")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
	}

	if err := validateConfig(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:8011")
	v.SetDefault("session_key", "")
	v.SetDefault("session_max_age", 172800) // 48 hours
	v.SetDefault("speech_input", true)

	v.SetDefault("storage.backend", storage.BackendSQLite)
	v.SetDefault("storage.path", "nutripal.db")

	v.SetDefault("admin.email", "admin@nutripal.ai")
	v.SetDefault("admin.password", "Password1!")

	v.SetDefault("ai.gateway_url", "http://mcp-compose-http-proxy:9876")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "google/gemini-2.5-flash")
	v.SetDefault("ai.timeout", 60)
	v.SetDefault("ai.max_tokens", 1000)
	v.SetDefault("ai.temperature", 0.3)
	v.SetDefault("ai.requests_per_minute", 30)
}

func validateConfig(c *Config) error {
	if c.SessionKey == "" {
		return fmt.Errorf("session_key is required")
	}
	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("session_max_age must be positive")
	}

	if c.Storage == nil {
		return fmt.Errorf("missing storage config")
	}
	switch c.Storage.Backend {
	case storage.BackendSQLite, storage.BackendBolt:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}

	if c.Admin == nil || c.Admin.Email == "" || c.Admin.Password == "" {
		return fmt.Errorf("admin email and password are required")
	}

	if c.AI == nil || c.AI.GatewayURL == "" {
		return fmt.Errorf("AI gateway URL is required")
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}
	if c.AI.RequestsPerMinute < 0 {
		return fmt.Errorf("AI requests per minute cannot be negative")
	}
	return nil
}
