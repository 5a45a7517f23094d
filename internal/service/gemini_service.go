package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fadilmartias/resume-scorer/internal/config"
	"github.com/fadilmartias/resume-scorer/internal/logger"
	"github.com/fadilmartias/resume-scorer/internal/pipeline"
	"github.com/fadilmartias/resume-scorer/internal/schema"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// GeminiService serves structured inference from the Gemini API or Vertex AI.
type GeminiService struct {
	model             string
	generate          generateFunc
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	RequestTimeout    time.Duration
	BreakerCooldown   time.Duration
	consecutiveErrors atomic.Int32
	circuitBreakerMax int32
	openedAt          atomic.Int64
	now               func() time.Time
	logger            *zap.Logger
}

func NewGeminiService(ctx context.Context, cfg *config.GeminiConfig, log *zap.Logger) (*GeminiService, error) {
	clientConfig := &genai.ClientConfig{Backend: genai.BackendGeminiAPI, APIKey: cfg.APIKey}
	if cfg.Backend == "vertex" {
		clientConfig = &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  cfg.Project,
			Location: cfg.Location,
		}
	} else if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	s := newGeminiService(client.Models.GenerateContent, cfg.Model, log)
	s.MaxRetries = cfg.MaxRetries
	if cfg.RequestTimeout > 0 {
		s.RequestTimeout = cfg.RequestTimeout
	}
	return s, nil
}

func newGeminiService(generate generateFunc, model string, log *zap.Logger) *GeminiService {
	return &GeminiService{
		model:             model,
		generate:          generate,
		MaxRetries:        3,
		BaseDelay:         time.Second,
		MaxDelay:          30 * time.Second,
		RequestTimeout:    60 * time.Second,
		BreakerCooldown:   30 * time.Second,
		circuitBreakerMax: 5,
		now:               time.Now,
		logger:            logger.WithProvider(log, "gemini", model),
	}
}

func (s *GeminiService) Provider() string { return "gemini" }
func (s *GeminiService) Model() string    { return s.model }

func (s *GeminiService) Infer(ctx context.Context, req pipeline.InferenceRequest) (json.RawMessage, error) {
	if strings.TrimSpace(req.Instructions) == "" {
		return nil, fmt.Errorf("instructions for %s cannot be empty", req.Stage)
	}
	if req.Schema == nil {
		return nil, fmt.Errorf("schema for %s is required", req.Stage)
	}

	if err := s.allowRequest(); err != nil {
		return nil, err
	}

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.Instructions, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    toGenaiSchema(req.Schema),
		Temperature:       genai.Ptr(float32(0.1)),
	}
	contents := genai.Text(string(req.Payload))
	log := s.logger.With(zap.String(logger.FieldStage, string(req.Stage)))

	var lastErr error
	for attempt := 0; attempt <= s.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.calculateBackoff(attempt)
			log.Info("retrying inference", zap.Int("attempt", attempt), zap.Int("max_retries", s.MaxRetries), zap.Duration("delay", delay))

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := s.call(ctx, contents, genConfig)
		if err == nil {
			s.recordSuccess()
			if err := validateGenerateResponse(result); err != nil {
				return nil, fmt.Errorf("%w: invalid response: %v", pipeline.ErrInferenceUnavailable, err)
			}
			text := result.Text()
			log.Debug("inference completed", zap.String("response", logger.TruncateForLog(text, 200)))
			return json.RawMessage(text), nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		if !isRetryableError(err) {
			log.Warn("non-retryable inference error", zap.Error(err))
			s.recordFailure()
			return nil, fmt.Errorf("%w: generate content failed: %v", pipeline.ErrInferenceUnavailable, err)
		}

		log.Warn("retryable inference error", zap.Int("attempt", attempt+1), zap.Error(err))
	}

	s.recordFailure()
	return nil, fmt.Errorf("%w: max retries (%d) exceeded: %v", pipeline.ErrInferenceUnavailable, s.MaxRetries, lastErr)
}

func (s *GeminiService) call(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()
	return s.generate(timeoutCtx, s.model, contents, cfg)
}

func (s *GeminiService) calculateBackoff(attempt int) time.Duration {
	delay := s.BaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))

	if delay > s.MaxDelay {
		delay = s.MaxDelay
	}

	// +/- 12.5%
	jitter := time.Duration(float64(delay) * 0.25)
	if jitter > 0 {
		delay = delay - jitter/2 + rand.N(jitter)
	}

	return delay
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	code := 0
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	case 400, 401, 403, 404:
		return false
	}

	// the per-attempt timeout expired while the run context is still live
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errMsg := err.Error()
	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "temporary failure") ||
		strings.Contains(errMsg, "EOF")
}

func validateGenerateResponse(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("response is nil")
	}

	if len(resp.Candidates) == 0 {
		return fmt.Errorf("no candidates in response")
	}

	if resp.Candidates[0].Content == nil {
		return fmt.Errorf("candidate content is nil")
	}

	if len(resp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("no parts in content")
	}

	return nil
}

// allowRequest rejects calls while the breaker is open. After the cooldown a
// single caller claims the half-open trial; the others keep failing fast
// until that trial succeeds or reopens the breaker.
func (s *GeminiService) allowRequest() error {
	n := s.consecutiveErrors.Load()
	if n < s.circuitBreakerMax {
		return nil
	}
	opened := s.openedAt.Load()
	now := s.now()
	if now.Sub(time.Unix(0, opened)) >= s.BreakerCooldown && s.openedAt.CompareAndSwap(opened, now.UnixNano()) {
		s.logger.Info("circuit breaker half-open, trying one request", zap.Int32("consecutive_errors", n))
		return nil
	}
	return fmt.Errorf("%w: circuit breaker open after %d consecutive errors", pipeline.ErrInferenceUnavailable, n)
}

func (s *GeminiService) recordSuccess() {
	if s.consecutiveErrors.Swap(0) >= s.circuitBreakerMax {
		s.logger.Info("circuit breaker closed")
	}
	s.openedAt.Store(0)
}

func (s *GeminiService) recordFailure() {
	if s.consecutiveErrors.Add(1) >= s.circuitBreakerMax {
		s.openedAt.Store(s.now().UnixNano())
	}
}

func (s *GeminiService) ResetCircuitBreaker() {
	s.consecutiveErrors.Store(0)
	s.openedAt.Store(0)
	s.logger.Info("circuit breaker reset")
}

func (s *GeminiService) GetCircuitBreakerStatus() (consecutiveErrors int, isOpen bool) {
	n := s.consecutiveErrors.Load()
	return int(n), n >= s.circuitBreakerMax
}

// toGenaiSchema converts a stage declaration into a Gemini response schema.
func toGenaiSchema(s *schema.Schema) *genai.Schema {
	out := &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       make(map[string]*genai.Schema, len(s.Fields)),
		Required:         make([]string, 0, len(s.Fields)),
		PropertyOrdering: make([]string, 0, len(s.Fields)),
	}
	for _, f := range s.Fields {
		out.Properties[f.Name] = fieldSchema(f)
		out.Required = append(out.Required, f.Name)
		out.PropertyOrdering = append(out.PropertyOrdering, f.Name)
	}
	return out
}

func fieldSchema(f schema.Field) *genai.Schema {
	if f.Kind == schema.KindObject && f.Object != nil {
		nested := toGenaiSchema(f.Object)
		nested.Description = f.Description
		return nested
	}

	out := &genai.Schema{
		Type:        genaiType(f.Kind),
		Description: f.Description,
		Minimum:     f.Minimum,
		Maximum:     f.Maximum,
	}
	if f.Kind == schema.KindArray {
		items := f.Items
		if items == "" {
			items = schema.KindString
		}
		out.Items = &genai.Schema{Type: genaiType(items)}
	}
	return out
}

func genaiType(k schema.Kind) genai.Type {
	switch k {
	case schema.KindNumber:
		return genai.TypeNumber
	case schema.KindInteger:
		return genai.TypeInteger
	case schema.KindBoolean:
		return genai.TypeBoolean
	case schema.KindArray:
		return genai.TypeArray
	case schema.KindObject:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
