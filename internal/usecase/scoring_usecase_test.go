package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fadilmartias/resume-scorer/internal/apperror"
	"github.com/fadilmartias/resume-scorer/internal/config"
	"github.com/fadilmartias/resume-scorer/internal/dto"
	"github.com/fadilmartias/resume-scorer/internal/pipeline"
	"github.com/fadilmartias/resume-scorer/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestUsecase(t *testing.T) *ScoringUsecase {
	t.Helper()
	router := service.NewDocumentRouter(service.NewPDFExtractor(false, nil), service.PlainTextExtractor{})
	uc, err := NewScoringUsecase(service.NewRulesService(zap.NewNop()), router, pipeline.Options{})
	require.NoError(t, err)
	return uc
}

func tempDoc(t *testing.T, content string) *service.FileDocument {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return service.NewTempDocument("resume.txt", path)
}

func TestSplitSkills(t *testing.T) {
	assert.Equal(t, []string{"Go", "PostgreSQL", "docker"}, SplitSkills([]string{"Go, PostgreSQL", " docker ", "go", "Docker", ""}))
	assert.Equal(t, []string{"Docker"}, SplitSkills([]string{"Docker", " docker "}), "first spelling wins")
	assert.Empty(t, SplitSkills(nil))
}

func TestScoringUsecase_ValidateChecksSplitSkills(t *testing.T) {
	uc := newTestUsecase(t)

	var many []string
	for i := 0; i < 30; i++ {
		many = append(many, fmt.Sprintf("Skill%02d", i))
	}
	joined := strings.Join(many, ", ")
	require.Greater(t, len(joined), 100)
	assert.NoError(t, uc.Validate(dto.ScoreResumeRequest{JobDescription: "Backend Engineer", TargetSkills: []string{joined}}))

	err := uc.Validate(dto.ScoreResumeRequest{JobDescription: "Backend Engineer", TargetSkills: []string{strings.Repeat("x", 101)}})
	assert.True(t, apperror.Is(err, apperror.ErrTypeInvalidInput))

	var tooMany []string
	for i := 0; i < 101; i++ {
		tooMany = append(tooMany, fmt.Sprintf("s%d", i))
	}
	err = uc.Validate(dto.ScoreResumeRequest{JobDescription: "Backend Engineer", TargetSkills: []string{strings.Join(tooMany, ",")}})
	assert.True(t, apperror.Is(err, apperror.ErrTypeInvalidInput))
}

func TestScoringUsecase_Score(t *testing.T) {
	uc := newTestUsecase(t)

	result, err := uc.Score(context.Background(), tempDoc(t, "Skills\nGo, SQL\n\nExperience\nBackend Engineer (2018 - 2024)"), dto.ScoreResumeRequest{
		JobDescription: "Backend Engineer with 3 years of Go",
		TargetSkills:   []string{"Go,SQL", "Rust"},
		JobTitle:       " Backend Engineer ",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Skills.TotalSkillsChecked)
	assert.Equal(t, "Backend Engineer", result.Context.JobTitle)

	provider, model := uc.Provider()
	assert.Equal(t, "rules", provider)
	assert.NotEmpty(t, model)
}

func TestScoringUsecase_RejectsInvalidRequest(t *testing.T) {
	uc := newTestUsecase(t)
	doc := tempDoc(t, "Skills\nGo")

	_, err := uc.Score(context.Background(), doc, dto.ScoreResumeRequest{JobDescription: "  "})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.ErrTypeInvalidInput))

	_, statErr := os.Stat(doc.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestScoringUsecase_SupportedFile(t *testing.T) {
	uc := newTestUsecase(t)
	assert.True(t, uc.SupportedFile("cv.pdf"))
	assert.False(t, uc.SupportedFile("cv.png"))
}

func TestNewScoringUsecaseFromConfig(t *testing.T) {
	uc, err := NewScoringUsecaseFromConfig(context.Background(), &config.PipelineConfig{
		Provider:      config.ProviderRules,
		Timeout:       pipeline.DefaultTimeout,
		AuditLanguage: "English",
		Concurrency:   1,
	}, zap.NewNop())
	require.NoError(t, err)
	provider, _ := uc.Provider()
	assert.Equal(t, "rules", provider)

	_, err = NewScoringUsecaseFromConfig(context.Background(), &config.PipelineConfig{
		Provider:      config.ProviderRules,
		Timeout:       time.Second,
		AuditLanguage: "English",
		Concurrency:   1,
	}, zap.NewNop())
	assert.Error(t, err)
}
