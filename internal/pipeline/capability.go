package pipeline

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fadilmartias/resume-scorer/internal/schema"
)

var (
	// ErrInferenceUnavailable marks transient inference failures. Backends wrap it.
	ErrInferenceUnavailable = errors.New("inference unavailable")
	// ErrUnsupportedFormat is returned by extractors for documents other than PDF or plain text.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrExtraction is returned by extractors for unreadable or corrupt content.
	ErrExtraction = errors.New("document extraction failed")
)

// Capability names an external collaborator a stage needs besides inference.
type Capability string

const CapabilityDocumentExtraction Capability = "document_extraction"

// Document is a resume held by the caller for the duration of one run.
type Document interface {
	// Name is the original file name, used to detect the format.
	Name() string
	// Path is a local file holding the content.
	Path() string
	// Close releases the document. It must be safe to call more than once.
	Close() error
}

type DocumentExtractor interface {
	ExtractText(ctx context.Context, doc Document) (string, error)
}

// InferenceRequest is one structured inference call.
type InferenceRequest struct {
	Stage        StageName
	Instructions string
	Schema       *schema.Schema
	Payload      json.RawMessage
}

// Inference turns instructions plus a payload into a JSON value that should
// conform to req.Schema. Conformance is checked by the caller.
type Inference interface {
	Infer(ctx context.Context, req InferenceRequest) (json.RawMessage, error)
}

// InferenceFunc adapts a function to Inference.
type InferenceFunc func(ctx context.Context, req InferenceRequest) (json.RawMessage, error)

func (f InferenceFunc) Infer(ctx context.Context, req InferenceRequest) (json.RawMessage, error) {
	return f(ctx, req)
}
