package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GEMINI_API_KEY", "API_KEY", "KEYWORDPULSE_PROVIDER_API_KEY", "KEYWORDPULSE_SERVER_PORT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := NewManager().Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Provider.APIKey != "test-key" {
		t.Errorf("Provider.APIKey = %q, want test-key", cfg.Provider.APIKey)
	}
	if cfg.Provider.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", cfg.Provider.MaxRetries)
	}
	if cfg.Provider.ThinkingBudget != 8000 {
		t.Errorf("ThinkingBudget = %d, want 8000", cfg.Provider.ThinkingBudget)
	}
	if cfg.Session.TTL != 2*time.Hour {
		t.Errorf("Session.TTL = %v, want 2h", cfg.Session.TTL)
	}
	if cfg.Upload.MaxBytes != 10<<20 {
		t.Errorf("Upload.MaxBytes = %d, want %d", cfg.Upload.MaxBytes, 10<<20)
	}
	if cfg.Provider.Models.Image != "gemini-2.5-flash-image" {
		t.Errorf("Models.Image = %q", cfg.Provider.Models.Image)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 9090\nprovider:\n  api_key: from-file\n  max_retries: 3\nsession:\n  ttl: 30m\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KEYWORDPULSE_SERVER_PORT", "7070")

	m := NewManager()
	cfg, err := m.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Provider.APIKey != "from-file" {
		t.Errorf("Provider.APIKey = %q, want from-file", cfg.Provider.APIKey)
	}
	if cfg.Provider.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.Provider.MaxRetries)
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Errorf("Session.TTL = %v, want 30m", cfg.Session.TTL)
	}
	if m.GetConfig() != cfg {
		t.Error("GetConfig() should return the loaded config")
	}
	if err := m.Reload(); err != nil {
		t.Errorf("Reload() error = %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("API_KEY=dotenv-key\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("API_KEY") })

	cfg, err := NewManager().Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Provider.APIKey != "dotenv-key" {
		t.Errorf("Provider.APIKey = %q, want dotenv-key", cfg.Provider.APIKey)
	}
}

func TestLoadMissingKey(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	if _, err := NewManager().Load(""); err == nil {
		t.Error("expected error when no API key is configured")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Provider: ProviderConfig{APIKey: "k", Models: ModelsConfig{Analysis: "a", Tips: "t", Chat: "c", Image: "i"}},
			Session:  SessionConfig{TTL: time.Hour, MaxSessions: 10},
			Upload:   UploadConfig{MaxBytes: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"no key", func(c *Config) { c.Provider.APIKey = "  " }, true},
		{"negative retries", func(c *Config) { c.Provider.MaxRetries = -1 }, true},
		{"no sessions", func(c *Config) { c.Session.MaxSessions = 0 }, true},
		{"no ttl", func(c *Config) { c.Session.TTL = 0 }, true},
		{"no upload limit", func(c *Config) { c.Upload.MaxBytes = 0 }, true},
		{"missing model", func(c *Config) { c.Provider.Models.Chat = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := Validate(cfg); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProviderClient(t *testing.T) {
	cfg := &Config{Provider: ProviderConfig{APIKey: "k", MaxRetries: 2, ThinkingBudget: 10, Models: ModelsConfig{Chat: "chat-model"}}}
	pc := cfg.ProviderClient()
	if pc.APIKey != "k" || pc.MaxRetries != 2 || pc.ThinkingBudget != 10 || pc.Models.Chat != "chat-model" {
		t.Errorf("ProviderClient() = %+v", pc)
	}
}
