package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. KEYWORDPULSE_SERVER_PORT.
const EnvPrefix = "KEYWORDPULSE"

type manager struct {
	mu     sync.RWMutex
	config *Config
	viper  *viper.Viper
	path   string
}

func NewManager() Manager {
	return &manager{}
}

// Load reads defaults, an optional .env file, the optional config file at configPath and the
// environment, in increasing order of precedence.
func (m *manager) Load(configPath string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	m.viper = newViper()
	m.path = configPath
	return m.read()
}

func (m *manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.viper == nil {
		return fmt.Errorf("config not loaded")
	}
	_, err := m.read()
	return err
}

func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *manager) read() (*Config, error) {
	if m.path != "" {
		m.viper.SetConfigFile(m.path)
		if err := m.viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := m.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	m.config = &config
	return &config, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Common names for the credential, checked after the prefixed one.
	_ = v.BindEnv("provider.api_key", EnvPrefix+"_PROVIDER_API_KEY", "GEMINI_API_KEY", "API_KEY")
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.body_limit_bytes", 16<<20)

	v.SetDefault("provider.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("provider.api_version", "v1beta")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.timeout", "0s")
	v.SetDefault("provider.max_retries", 0)
	v.SetDefault("provider.retry_delay", "1s")
	v.SetDefault("provider.thinking_budget", 8000)
	v.SetDefault("provider.models.analysis", "gemini-3-flash-preview")
	v.SetDefault("provider.models.tips", "gemini-flash-lite-latest")
	v.SetDefault("provider.models.chat", "gemini-3-pro-preview")
	v.SetDefault("provider.models.image", "gemini-2.5-flash-image")

	v.SetDefault("session.ttl", "2h")
	v.SetDefault("session.max_sessions", 1000)

	v.SetDefault("upload.max_bytes", 10<<20)

	v.SetDefault("logger.level", "warn")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.time_format", "")
}

// Validate checks the values the rest of the program relies on.
func Validate(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if strings.TrimSpace(config.Provider.APIKey) == "" {
		return fmt.Errorf("provider.api_key is required (set %s_PROVIDER_API_KEY or GEMINI_API_KEY)", EnvPrefix)
	}
	if config.Provider.MaxRetries < 0 {
		return fmt.Errorf("provider.max_retries cannot be negative")
	}
	if config.Session.MaxSessions <= 0 {
		return fmt.Errorf("session.max_sessions must be positive")
	}
	if config.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	if config.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive")
	}
	m := config.Provider.Models
	if m.Analysis == "" || m.Tips == "" || m.Chat == "" || m.Image == "" {
		return fmt.Errorf("every provider.models entry must be set")
	}
	return nil
}
