package apperror

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
	"github.com/gofiber/fiber/v2"
)

type ErrorType string

const (
	ErrTypeInvalidInput      ErrorType = "INVALID_INPUT"
	ErrTypeUnsupportedFormat ErrorType = "UNSUPPORTED_FORMAT"
	ErrTypeExtraction        ErrorType = "EXTRACTION"
	ErrTypeSchemaMismatch    ErrorType = "SCHEMA_MISMATCH"
	ErrTypeUnavailable       ErrorType = "UNAVAILABLE"
	ErrTypeTimeout           ErrorType = "TIMEOUT"
	ErrTypeCanceled          ErrorType = "CANCELED"
	ErrTypeInternal          ErrorType = "INTERNAL"
)

// StatusClientClosedRequest is the non-standard status used when the caller went away.
const StatusClientClosedRequest = 499

type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Stack   []byte
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) StackTrace() []byte {
	return e.Stack
}

func New(errType ErrorType, message string, err error) *DomainError {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

func InvalidInput(message string, err error) *DomainError {
	return New(ErrTypeInvalidInput, message, err)
}

func UnsupportedFormat(message string, err error) *DomainError {
	return New(ErrTypeUnsupportedFormat, message, err)
}

func Extraction(message string, err error) *DomainError {
	return New(ErrTypeExtraction, message, err)
}

func SchemaMismatch(message string, err error) *DomainError {
	return New(ErrTypeSchemaMismatch, message, err)
}

func Unavailable(message string, err error) *DomainError {
	return New(ErrTypeUnavailable, message, err)
}

func Timeout(message string, err error) *DomainError {
	return New(ErrTypeTimeout, message, err)
}

func Canceled(message string, err error) *DomainError {
	return New(ErrTypeCanceled, message, err)
}

func Internal(message string, err error) *DomainError {
	return New(ErrTypeInternal, message, err)
}

// TypeOf returns the type of the first DomainError in err's chain, or
// ErrTypeInternal when there is none.
func TypeOf(err error) ErrorType {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type
	}
	return ErrTypeInternal
}

func Is(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	if err == nil {
		return fiber.StatusOK
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	switch TypeOf(err) {
	case ErrTypeInvalidInput:
		return fiber.StatusBadRequest
	case ErrTypeUnsupportedFormat, ErrTypeExtraction:
		return fiber.StatusUnprocessableEntity
	case ErrTypeSchemaMismatch:
		return fiber.StatusBadGateway
	case ErrTypeUnavailable:
		return fiber.StatusServiceUnavailable
	case ErrTypeTimeout:
		return fiber.StatusGatewayTimeout
	case ErrTypeCanceled:
		return StatusClientClosedRequest
	default:
		return fiber.StatusInternalServerError
	}
}
