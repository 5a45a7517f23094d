package config

import (
	"sync"
	"time"
)

type GeminiConfig struct {
	APIKey         string
	Model          string `validate:"required"`
	Backend        string `validate:"oneof=gemini vertex"`
	Project        string `validate:"required_if=Backend vertex"`
	Location       string `validate:"required_if=Backend vertex"`
	MaxRetries     int    `validate:"min=0,max=10"`
	RequestTimeout time.Duration
}

var (
	geminiConfig *GeminiConfig
	geminiOnce   sync.Once
)

func LoadGeminiConfig() *GeminiConfig {
	geminiOnce.Do(func() {
		v := env()
		v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
		v.SetDefault("GEMINI_BACKEND", "gemini")
		v.SetDefault("GEMINI_LOCATION", "us-central1")
		v.SetDefault("GEMINI_MAX_RETRIES", 3)
		v.SetDefault("GEMINI_REQUEST_TIMEOUT", 60*time.Second)

		geminiConfig = &GeminiConfig{
			APIKey:         v.GetString("GEMINI_API_KEY"),
			Model:          v.GetString("GEMINI_MODEL"),
			Backend:        v.GetString("GEMINI_BACKEND"),
			Project:        v.GetString("GEMINI_PROJECT"),
			Location:       v.GetString("GEMINI_LOCATION"),
			MaxRetries:     v.GetInt("GEMINI_MAX_RETRIES"),
			RequestTimeout: v.GetDuration("GEMINI_REQUEST_TIMEOUT"),
		}
	})
	return geminiConfig
}

func (c *GeminiConfig) Validate() error {
	return validate.Struct(c)
}
