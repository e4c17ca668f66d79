package config

import (
	"fmt"

	"keywordpulse/pkg/logger"
	"keywordpulse/pkg/provider"
)

// ProviderClient returns the settings for provider.NewClient.
func (c *Config) ProviderClient() provider.Config {
	p := c.Provider
	return provider.Config{
		BaseURL:    p.BaseURL,
		APIVersion: p.APIVersion,
		APIKey:     p.APIKey,
		Models: provider.Models{
			Analysis: p.Models.Analysis,
			Tips:     p.Models.Tips,
			Chat:     p.Models.Chat,
			Image:    p.Models.Image,
		},
		Timeout:        p.Timeout,
		MaxRetries:     p.MaxRetries,
		RetryDelay:     p.RetryDelay,
		ThinkingBudget: p.ThinkingBudget,
	}
}

func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Logger.Level,
		Format:     c.Logger.Format,
		Output:     c.Logger.Output,
		TimeFormat: c.Logger.TimeFormat,
	}
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
