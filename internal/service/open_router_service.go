package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fadilmartias/resume-scorer/internal/config"
	"github.com/fadilmartias/resume-scorer/internal/logger"
	"github.com/fadilmartias/resume-scorer/internal/pipeline"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat map[string]any `json:"response_format"`
}

// OpenRouterService serves structured inference through the OpenRouter
// chat completions API.
type OpenRouterService struct {
	model  string
	client *resty.Client
	logger *zap.Logger
}

func NewOpenRouterService(cfg *config.OpenRouterConfig, log *zap.Logger) (*OpenRouterService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY not set")
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(shouldRetry)

	return &OpenRouterService{
		model:  cfg.Model,
		client: client,
		logger: logger.WithProvider(log, "openrouter", cfg.Model),
	}, nil
}

func (s *OpenRouterService) Provider() string { return "openrouter" }
func (s *OpenRouterService) Model() string    { return s.model }

func (s *OpenRouterService) Infer(ctx context.Context, req pipeline.InferenceRequest) (json.RawMessage, error) {
	if req.Schema == nil {
		return nil, fmt.Errorf("schema for %s is required", req.Stage)
	}

	body := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.Instructions},
			{Role: "user", Content: string(req.Payload)},
		},
		Temperature: 0.1,
		ResponseFormat: map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   req.Schema.Name,
				"schema": req.Schema.Document(),
			},
		},
	}
	log := s.logger.With(zap.String(logger.FieldStage, string(req.Stage)))

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("openrouter request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", pipeline.ErrInferenceUnavailable, err)
	}

	if resp.IsError() {
		message := gjson.Get(resp.String(), "error.message").String()
		if message == "" {
			message = logger.TruncateForLog(resp.String(), 200)
		}
		log.Warn("openrouter returned an error", zap.Int("status", resp.StatusCode()), zap.String("message", message))
		return nil, fmt.Errorf("%w: openrouter status %d: %s", pipeline.ErrInferenceUnavailable, resp.StatusCode(), message)
	}

	content := gjson.Get(resp.String(), "choices.0.message.content")
	if !content.Exists() {
		return nil, fmt.Errorf("%w: no choices in openrouter response", pipeline.ErrInferenceUnavailable)
	}

	log.Debug("inference completed", zap.String("response", logger.TruncateForLog(content.String(), 200)))
	return json.RawMessage(content.String()), nil
}

func shouldRetry(r *resty.Response, err error) bool {
	if r != nil && r.Request != nil && r.Request.Context().Err() != nil {
		return false
	}
	if err != nil {
		return true
	}
	return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
}
