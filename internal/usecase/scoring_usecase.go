package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fadilmartias/resume-scorer/internal/apperror"
	"github.com/fadilmartias/resume-scorer/internal/config"
	"github.com/fadilmartias/resume-scorer/internal/dto"
	"github.com/fadilmartias/resume-scorer/internal/logger"
	"github.com/fadilmartias/resume-scorer/internal/model"
	"github.com/fadilmartias/resume-scorer/internal/pipeline"
	"github.com/fadilmartias/resume-scorer/internal/service"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type ScoringUsecase struct {
	orchestrator *pipeline.Orchestrator
	router       *service.DocumentRouter
	backend      service.InferenceBackend
	validate     *validator.Validate
	logger       *zap.Logger
}

func NewScoringUsecase(backend service.InferenceBackend, router *service.DocumentRouter, opts pipeline.Options) (*ScoringUsecase, error) {
	orchestrator, err := pipeline.NewOrchestrator(backend, router, opts)
	if err != nil {
		return nil, err
	}
	return &ScoringUsecase{
		orchestrator: orchestrator,
		router:       router,
		backend:      backend,
		validate:     validator.New(),
		logger:       logger.WithFields(opts.Logger),
	}, nil
}

func (uc *ScoringUsecase) SupportedFile(name string) bool {
	return uc.router.SupportedExtension(name)
}

func (uc *ScoringUsecase) Provider() (provider, model string) {
	return uc.backend.Provider(), uc.backend.Model()
}

// Score validates req and runs the pipeline on doc. doc is always closed,
// including when the request is rejected before the pipeline starts.
func (uc *ScoringUsecase) Score(ctx context.Context, doc pipeline.Document, req dto.ScoreResumeRequest) (*model.ScoringResult, error) {
	if err := uc.Validate(req); err != nil {
		if doc != nil {
			_ = doc.Close()
		}
		uc.logger.Info("scoring request rejected", zap.Error(err))
		return nil, err
	}

	return uc.orchestrator.Run(ctx, pipeline.Request{
		Document:       doc,
		JobDescription: req.JobDescription,
		TargetSkills:   SplitSkills(req.TargetSkills),
		Context:        model.NewScoringContext(strings.TrimSpace(req.JobTitle), strings.TrimSpace(req.Industry)),
	})
}

// Validate checks req with target_skills already split, so the limits apply
// to individual skills rather than to raw form values.
func (uc *ScoringUsecase) Validate(req dto.ScoreResumeRequest) error {
	req.TargetSkills = SplitSkills(req.TargetSkills)
	if strings.TrimSpace(req.JobDescription) == "" {
		return apperror.InvalidInput("job_description is required", nil)
	}
	if err := uc.validate.Struct(req); err != nil {
		return apperror.InvalidInput(fmt.Sprintf("invalid request: %v", err), err)
	}
	return nil
}

// SplitSkills accepts both repeated values and comma separated lists, then
// drops blanks and case-insensitive duplicates.
func SplitSkills(values []string) []string {
	var skills []string
	for _, v := range values {
		skills = append(skills, strings.Split(v, ",")...)
	}
	return pipeline.NormalizeSkills(skills)
}

// NewScoringUsecaseFromConfig wires the configured inference backend and the
// PDF/text document router into a ready usecase.
func NewScoringUsecaseFromConfig(ctx context.Context, cfg *config.PipelineConfig, log *zap.Logger) (*ScoringUsecase, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}

	backend, err := service.NewInference(ctx, cfg.Provider, log)
	if err != nil {
		return nil, err
	}
	router := service.NewDocumentRouter(
		service.NewPDFExtractor(cfg.OCRFallback, log),
		service.PlainTextExtractor{},
	)

	uc, err := NewScoringUsecase(backend, router, pipeline.Options{
		Timeout:       cfg.Timeout,
		AuditLanguage: cfg.AuditLanguage,
		Logger:        log,
	})
	if err != nil {
		return nil, err
	}
	logger.WithFields(log).Info("scoring pipeline ready", logger.ProviderFields(backend.Provider(), backend.Model())...)
	return uc, nil
}
