package util

import (
	"errors"
	"runtime/debug"

	"github.com/fadilmartias/resume-scorer/internal/apperror"
	"github.com/fadilmartias/resume-scorer/internal/config"
	"github.com/gofiber/fiber/v2"
)

type SuccessResponseFormat struct {
	Code    int
	Message string
	Data    any
	Meta    any
}

// OrderedSuccessResponse is the success envelope. error is always null.
type OrderedSuccessResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Meta    any     `json:"meta,omitempty"`
	Data    any     `json:"data"`
	Error   *string `json:"error"`
}

type ErrorResponseFormat struct {
	Code       int
	Message    string
	DevMessage string
	Details    any
	Trace      string
}

// OrderedErrorResponse is the failure envelope. data is always null.
type OrderedErrorResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
	Error      string `json:"error"`
	DevMessage string `json:"dev_message,omitempty"`
	Details    any    `json:"details,omitempty"`
	Trace      string `json:"trace,omitempty"`
}

// SuccessResponse mengirim response JSON standar untuk sukses
func SuccessResponse(c *fiber.Ctx, params SuccessResponseFormat) error {
	response := OrderedSuccessResponse{
		Success: true,
		Message: params.Message,
		Data:    params.Data,
		Meta:    params.Meta,
	}
	code := params.Code
	if code == 0 {
		code = fiber.StatusOK
	}
	return c.Status(code).JSON(response)
}

// ErrorResponse mengirim response JSON standar untuk error
func ErrorResponse(c *fiber.Ctx, params ErrorResponseFormat, errs ...error) error {
	response := OrderedErrorResponse{
		Success: false,
		Message: params.Message,
		Error:   params.Message,
	}
	if len(errs) > 0 && errs[0] != nil {
		response.Error = errs[0].Error()
	}
	if params.Details != nil {
		response.Details = params.Details
	}
	if !config.LoadAppConfig().IsProduction() {
		if len(errs) > 0 && errs[0] != nil {
			response.DevMessage = errs[0].Error()
			response.Trace = traceOf(errs[0])
		}

		if params.DevMessage != "" {
			response.DevMessage = params.DevMessage
		}
		if params.Trace != "" {
			response.Trace = params.Trace
		}
	}

	errorCode := params.Code
	if params.Code == 0 {
		errorCode = fiber.StatusInternalServerError
	}
	return c.Status(errorCode).JSON(response)
}

// traceOf prefers the stack captured where a domain error was created over
// the stack of the goroutine writing the response.
func traceOf(err error) string {
	var domainErr *apperror.DomainError
	if errors.As(err, &domainErr) && len(domainErr.StackTrace()) > 0 {
		return string(domainErr.StackTrace())
	}
	return string(debug.Stack())
}
