package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/fadilmartias/resume-scorer/internal/pipeline"
	"github.com/fadilmartias/resume-scorer/internal/util"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

// FileDocument is a resume stored on local disk.
type FileDocument struct {
	name      string
	path      string
	removable bool

	once     sync.Once
	closeErr error
}

// NewFileDocument wraps a file the caller keeps. Close leaves it in place.
func NewFileDocument(name, path string) *FileDocument {
	return &FileDocument{name: name, path: path}
}

// NewTempDocument wraps a request-scoped upload. Close removes the file.
func NewTempDocument(name, path string) *FileDocument {
	return &FileDocument{name: name, path: path, removable: true}
}

func (d *FileDocument) Name() string { return d.name }
func (d *FileDocument) Path() string { return d.path }

func (d *FileDocument) Close() error {
	d.once.Do(func() {
		if !d.removable {
			return
		}
		if err := os.Remove(d.path); err != nil && !os.IsNotExist(err) {
			d.closeErr = fmt.Errorf("failed to remove %s: %w", d.path, err)
		}
	})
	return d.closeErr
}

// PDFExtractor validates the PDF structure with pdfcpu before reading its
// text layer with MuPDF. Scanned documents fall back to OCR when enabled.
type PDFExtractor struct {
	OCRFallback bool
	logger      *zap.Logger
}

func NewPDFExtractor(ocrFallback bool, logger *zap.Logger) *PDFExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFExtractor{OCRFallback: ocrFallback, logger: logger}
}

func (e *PDFExtractor) ExtractText(ctx context.Context, doc pipeline.Document) (string, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(doc.Path(), conf); err != nil {
		return "", fmt.Errorf("%w: %s is not a valid PDF: %v", pipeline.ErrExtraction, doc.Name(), err)
	}

	text, err := util.ExtractPDFText(ctx, doc.Path(), e.logger)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", pipeline.ErrExtraction, err)
	}
	if text != "" {
		return text, nil
	}

	if !e.OCRFallback {
		return "", fmt.Errorf("%w: %s has no text layer", pipeline.ErrExtraction, doc.Name())
	}
	e.logger.Info("pdf has no text layer, running ocr", zap.String("document", doc.Name()))
	text, err = util.ExtractPDFOCR(ctx, doc.Path(), e.logger)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", pipeline.ErrExtraction, err)
	}
	return text, nil
}

// PlainTextExtractor passes text files through unchanged.
type PlainTextExtractor struct{}

func (PlainTextExtractor) ExtractText(_ context.Context, doc pipeline.Document) (string, error) {
	data, err := os.ReadFile(doc.Path())
	if err != nil {
		return "", fmt.Errorf("%w: %v", pipeline.ErrExtraction, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not UTF-8 text", pipeline.ErrExtraction, doc.Name())
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("%w: %s is empty", pipeline.ErrExtraction, doc.Name())
	}
	return text, nil
}

// DocumentRouter picks an extractor by file extension.
type DocumentRouter struct {
	extractors map[string]pipeline.DocumentExtractor
}

func NewDocumentRouter(pdf, text pipeline.DocumentExtractor) *DocumentRouter {
	return &DocumentRouter{extractors: map[string]pipeline.DocumentExtractor{
		".pdf": pdf,
		".txt": text,
	}}
}

// SupportedExtension reports whether name has an extension the router handles.
func (r *DocumentRouter) SupportedExtension(name string) bool {
	_, ok := r.extractors[strings.ToLower(filepath.Ext(name))]
	return ok
}

func (r *DocumentRouter) ExtractText(ctx context.Context, doc pipeline.Document) (string, error) {
	ext := strings.ToLower(filepath.Ext(doc.Name()))
	extractor, ok := r.extractors[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", pipeline.ErrUnsupportedFormat, ext)
	}
	return extractor.ExtractText(ctx, doc)
}
