package config

import (
	"sync"
	"time"
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderRules      = "rules"
)

type PipelineConfig struct {
	Provider      string        `validate:"oneof=gemini openrouter rules"`
	Timeout       time.Duration `validate:"min=60s,max=120s"`
	AuditLanguage string        `validate:"required"`
	OCRFallback   bool
	// Concurrency bounds how many resumes the CLI scores at once.
	Concurrency int `validate:"min=1,max=32"`
}

var (
	pipelineConfig *PipelineConfig
	pipelineOnce   sync.Once
)

func LoadPipelineConfig() *PipelineConfig {
	pipelineOnce.Do(func() {
		v := env()
		v.SetDefault("INFERENCE_PROVIDER", ProviderGemini)
		v.SetDefault("PIPELINE_TIMEOUT", 90*time.Second)
		v.SetDefault("PIPELINE_AUDIT_LANGUAGE", "Indonesian")
		v.SetDefault("PDF_OCR_FALLBACK", false)
		v.SetDefault("PIPELINE_CONCURRENCY", 4)

		pipelineConfig = &PipelineConfig{
			Provider:      v.GetString("INFERENCE_PROVIDER"),
			Timeout:       v.GetDuration("PIPELINE_TIMEOUT"),
			AuditLanguage: v.GetString("PIPELINE_AUDIT_LANGUAGE"),
			OCRFallback:   v.GetBool("PDF_OCR_FALLBACK"),
			Concurrency:   v.GetInt("PIPELINE_CONCURRENCY"),
		}
	})
	return pipelineConfig
}

func (c *PipelineConfig) Validate() error {
	return validate.Struct(c)
}
