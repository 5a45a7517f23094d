package service

import (
	"context"
	"os"
	"testing"

	"github.com/fadilmartias/resume-scorer/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileDocument_Close(t *testing.T) {
	kept := NewFileDocument("resume.txt", writeResume(t, "kept.txt", "hello"))
	require.NoError(t, kept.Close())
	_, err := os.Stat(kept.Path())
	assert.NoError(t, err)

	temp := NewTempDocument("resume.txt", writeResume(t, "temp.txt", "hello"))
	require.NoError(t, temp.Close())
	require.NoError(t, temp.Close())
	_, err = os.Stat(temp.Path())
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, "resume.txt", temp.Name())
}

func TestPlainTextExtractor(t *testing.T) {
	var e PlainTextExtractor

	text, err := e.ExtractText(context.Background(), NewFileDocument("cv.txt", writeResume(t, "cv.txt", "  Go developer \n")))
	require.NoError(t, err)
	assert.Equal(t, "Go developer", text)

	_, err = e.ExtractText(context.Background(), NewFileDocument("cv.txt", writeResume(t, "empty.txt", " \n\t")))
	assert.ErrorIs(t, err, pipeline.ErrExtraction)

	_, err = e.ExtractText(context.Background(), NewFileDocument("cv.txt", writeResume(t, "bin.txt", "\xff\xfe\xfd")))
	assert.ErrorIs(t, err, pipeline.ErrExtraction)

	_, err = e.ExtractText(context.Background(), NewFileDocument("cv.txt", "/does/not/exist.txt"))
	assert.ErrorIs(t, err, pipeline.ErrExtraction)
}

func TestPDFExtractor_RejectsCorruptFile(t *testing.T) {
	e := NewPDFExtractor(false, zap.NewNop())
	_, err := e.ExtractText(context.Background(), NewFileDocument("cv.pdf", writeResume(t, "cv.pdf", "definitely not a pdf")))
	assert.ErrorIs(t, err, pipeline.ErrExtraction)
}

func TestDocumentRouter(t *testing.T) {
	router := NewDocumentRouter(NewPDFExtractor(false, nil), PlainTextExtractor{})

	assert.True(t, router.SupportedExtension("CV.PDF"))
	assert.True(t, router.SupportedExtension("cv.txt"))
	assert.False(t, router.SupportedExtension("cv.docx"))
	assert.False(t, router.SupportedExtension("cv"))

	text, err := router.ExtractText(context.Background(), NewFileDocument("cv.TXT", writeResume(t, "cv.txt", "Go")))
	require.NoError(t, err)
	assert.Equal(t, "Go", text)

	_, err = router.ExtractText(context.Background(), NewFileDocument("cv.docx", writeResume(t, "cv.docx", "Go")))
	assert.ErrorIs(t, err, pipeline.ErrUnsupportedFormat)
}
