package config

import (
	"sync"
)

type OpenRouterConfig struct {
	APIKey     string
	Model      string `validate:"required"`
	BaseURL    string `validate:"required,url"`
	MaxRetries int    `validate:"min=0,max=10"`
}

var (
	openRouterConfig *OpenRouterConfig
	openRouterOnce   sync.Once
)

func LoadOpenRouterConfig() *OpenRouterConfig {
	openRouterOnce.Do(func() {
		v := env()
		v.SetDefault("OPENROUTER_MODEL", "openai/gpt-4o-mini")
		v.SetDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1")
		v.SetDefault("OPENROUTER_MAX_RETRIES", 2)

		openRouterConfig = &OpenRouterConfig{
			APIKey:     v.GetString("OPENROUTER_API_KEY"),
			Model:      v.GetString("OPENROUTER_MODEL"),
			BaseURL:    v.GetString("OPENROUTER_BASE_URL"),
			MaxRetries: v.GetInt("OPENROUTER_MAX_RETRIES"),
		}
	})
	return openRouterConfig
}

func (c *OpenRouterConfig) Validate() error {
	return validate.Struct(c)
}
