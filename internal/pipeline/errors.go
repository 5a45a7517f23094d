package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fadilmartias/resume-scorer/internal/apperror"
	"github.com/fadilmartias/resume-scorer/internal/schema"
)

// Error is the failure of a run, carrying the stage that failed.
type Error struct {
	Stage StageName
	Err   *apperror.DomainError
}

func (e *Error) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("scoring failed: %v", e.Err)
	}
	return fmt.Sprintf("scoring failed at %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// DependencyError is returned when a stage is reached before the stages it
// consumes have produced their output.
type DependencyError struct {
	Stage               StageName
	MissingDependencies []StageName
}

func (e *DependencyError) Error() string {
	names := make([]string, len(e.MissingDependencies))
	for i, d := range e.MissingDependencies {
		names[i] = string(d)
	}
	return fmt.Sprintf("%s: missing dependencies: %s", e.Stage, strings.Join(names, ", "))
}

// CheckError is a semantic violation found after a stage output passed its schema.
type CheckError struct {
	Stage   StageName
	Message string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func checkErrorf(stage StageName, format string, args ...any) *CheckError {
	return &CheckError{Stage: stage, Message: fmt.Sprintf(format, args...)}
}

// classify turns any stage failure into a DomainError. runCtx is the
// run-scoped context, parent the caller's.
func classify(stage StageName, err error, runCtx, parent context.Context) *apperror.DomainError {
	if runCtx.Err() != nil {
		if parent.Err() != nil {
			return apperror.Canceled("scoring canceled by caller", err)
		}
		return apperror.Timeout("scoring exceeded its time limit", err)
	}

	var de *apperror.DomainError
	if errors.As(err, &de) {
		return de
	}

	var mismatch *schema.TypeMismatchError
	var check *CheckError
	switch {
	case errors.As(err, &mismatch), errors.As(err, &check):
		return apperror.SchemaMismatch(fmt.Sprintf("%s returned a value outside its contract", stage), err)
	case errors.Is(err, ErrInferenceUnavailable):
		return apperror.Unavailable("inference capability unavailable", err)
	case errors.Is(err, ErrUnsupportedFormat):
		return apperror.UnsupportedFormat("resume format is not supported", err)
	case errors.Is(err, ErrExtraction):
		return apperror.Extraction("resume text could not be extracted", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperror.Timeout("scoring exceeded its time limit", err)
	case errors.Is(err, context.Canceled):
		return apperror.Canceled("scoring canceled by caller", err)
	default:
		return apperror.Internal(fmt.Sprintf("%s failed unexpectedly", stage), err)
	}
}
