package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fadilmartias/resume-scorer/internal/config"
	"github.com/fadilmartias/resume-scorer/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

func testOpenRouter(t *testing.T, handler http.HandlerFunc) *OpenRouterService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s, err := NewOpenRouterService(&config.OpenRouterConfig{
		APIKey:     "test-key",
		Model:      "test/model",
		BaseURL:    server.URL,
		MaxRetries: 2,
	}, zap.NewNop())
	require.NoError(t, err)
	s.client.SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(2 * time.Millisecond)
	return s
}

func TestNewOpenRouterService_RequiresKey(t *testing.T) {
	_, err := NewOpenRouterService(&config.OpenRouterConfig{Model: "m", BaseURL: "http://localhost"}, nil)
	assert.Error(t, err)
}

func TestOpenRouterService_Infer(t *testing.T) {
	s := testOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "test/model", gjson.GetBytes(body, "model").String())
		assert.Equal(t, "score the skills", gjson.GetBytes(body, "messages.0.content").String())
		assert.Equal(t, "user", gjson.GetBytes(body, "messages.1.role").String())
		assert.Equal(t, "json_schema", gjson.GetBytes(body, "response_format.type").String())
		assert.Equal(t, "skill_match_result", gjson.GetBytes(body, "response_format.json_schema.name").String())
		assert.True(t, gjson.GetBytes(body, "response_format.json_schema.schema.properties.skill_score").Exists())

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"{\"skills_found\":[\"Go\"]}"}}]}`)
	})

	raw, err := s.Infer(context.Background(), testRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"skills_found":["Go"]}`, string(raw))
}

func TestOpenRouterService_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	s := testOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"{}"}}]}`)
	})

	_, err := s.Infer(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenRouterService_Unavailable(t *testing.T) {
	var calls atomic.Int32
	s := testOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"rate limited"}}`)
	})

	_, err := s.Infer(context.Background(), testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrInferenceUnavailable)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenRouterService_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	s := testOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := s.Infer(context.Background(), testRequest())
	assert.ErrorIs(t, err, pipeline.ErrInferenceUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenRouterService_NoChoices(t *testing.T) {
	s := testOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	})

	_, err := s.Infer(context.Background(), testRequest())
	assert.ErrorIs(t, err, pipeline.ErrInferenceUnavailable)
}

func TestOpenRouterService_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	s := testOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		// the server only notices the disconnect once the body is consumed
		_, _ = io.Copy(io.Discard, r.Body)
		cancel()
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	start := time.Now()
	_, err := s.Infer(ctx, testRequest())
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, pipeline.ErrInferenceUnavailable)
	assert.Equal(t, int32(1), calls.Load(), "canceled request is not retried")
	assert.Less(t, time.Since(start), 5*time.Second)
}
