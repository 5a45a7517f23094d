package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fadilmartias/resume-scorer/internal/apperror"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:noinline
func failingStep() error {
	return apperror.Unavailable("inference backend down", errors.New("status 503"))
}

func errorResponseBody(t *testing.T, err error) OrderedErrorResponse {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return ErrorResponse(c, ErrorResponseFormat{Code: apperror.HTTPStatus(err), Message: "failed"}, err)
	})

	resp, reqErr := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, reqErr)
	defer resp.Body.Close()
	assert.Equal(t, apperror.HTTPStatus(err), resp.StatusCode)

	var body OrderedErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestErrorResponse_TraceComesFromDomainError(t *testing.T) {
	err := fmt.Errorf("education_scoring: %w", failingStep())
	body := errorResponseBody(t, err)

	assert.False(t, body.Success)
	assert.Nil(t, body.Data)
	assert.Equal(t, err.Error(), body.Error)
	assert.Contains(t, body.Trace, "failingStep")
}

func TestErrorResponse_PlainErrorFallsBackToCurrentStack(t *testing.T) {
	body := errorResponseBody(t, errors.New("boom"))

	assert.Equal(t, "boom", body.Error)
	assert.NotEmpty(t, body.Trace)
	assert.NotContains(t, body.Trace, "failingStep")
}

func TestSuccessResponse_ErrorIsNull(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return SuccessResponse(c, SuccessResponseFormat{Message: "ok", Data: fiber.Map{"a": 1}})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body, "error")
	assert.Nil(t, body["error"])
	assert.NotContains(t, body, "meta")
}
