package service

import (
	"context"
	"fmt"

	"github.com/fadilmartias/resume-scorer/internal/config"
	"github.com/fadilmartias/resume-scorer/internal/pipeline"
	"go.uber.org/zap"
)

// InferenceBackend is an inference capability that can name itself for
// logs and the health endpoint.
type InferenceBackend interface {
	pipeline.Inference
	Provider() string
	Model() string
}

// NewInference builds the backend selected by INFERENCE_PROVIDER.
func NewInference(ctx context.Context, provider string, log *zap.Logger) (InferenceBackend, error) {
	switch provider {
	case config.ProviderGemini:
		cfg := config.LoadGeminiConfig()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid gemini config: %w", err)
		}
		s, err := NewGeminiService(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.ProviderOpenRouter:
		cfg := config.LoadOpenRouterConfig()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid openrouter config: %w", err)
		}
		s, err := NewOpenRouterService(cfg, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.ProviderRules:
		return NewRulesService(log), nil
	default:
		return nil, fmt.Errorf("unknown inference provider %q", provider)
	}
}
