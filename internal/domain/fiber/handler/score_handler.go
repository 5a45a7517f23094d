package handler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fadilmartias/resume-scorer/internal/apperror"
	"github.com/fadilmartias/resume-scorer/internal/config"
	"github.com/fadilmartias/resume-scorer/internal/dto"
	"github.com/fadilmartias/resume-scorer/internal/logger"
	"github.com/fadilmartias/resume-scorer/internal/middleware"
	"github.com/fadilmartias/resume-scorer/internal/service"
	"github.com/fadilmartias/resume-scorer/internal/usecase"
	"github.com/fadilmartias/resume-scorer/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ScoreHandler struct {
	uc      *usecase.ScoringUsecase
	cfg     *config.AppConfig
	version string
	logger  *zap.Logger
}

func NewScoreHandler(uc *usecase.ScoringUsecase, cfg *config.AppConfig, version string, log *zap.Logger) *ScoreHandler {
	return &ScoreHandler{uc: uc, cfg: cfg, version: version, logger: logger.WithFields(log)}
}

func (h *ScoreHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/", h.Info)
	app.Get("/score-resume/health", h.Health)
	app.Post("/score-resume", middleware.RateLimiter(h.cfg.RateLimitMax, h.cfg.RateLimitWindow), h.Score)
}

func (h *ScoreHandler) Info(c *fiber.Ctx) error {
	provider, model := h.uc.Provider()
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Resume scoring service",
		Data: fiber.Map{
			"service":            h.cfg.Name,
			"version":            h.version,
			"inference_provider": provider,
			"inference_model":    model,
			"endpoints": []string{
				"POST /score-resume",
				"GET /score-resume/health",
			},
		},
	})
}

// Health reports liveness only; it does not call the inference backend.
func (h *ScoreHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": h.cfg.Name,
	})
}

func (h *ScoreHandler) Score(c *fiber.Ctx) error {
	file, err := c.FormFile("resume")
	if err != nil {
		return h.fail(c, apperror.InvalidInput("resume file is required", err))
	}
	if file.Size > h.cfg.MaxUploadBytes() {
		return h.fail(c, apperror.InvalidInput(fmt.Sprintf("resume file size is too large (max %dMB)", h.cfg.MaxUploadMB), nil))
	}
	if !h.uc.SupportedFile(file.Filename) {
		return h.fail(c, apperror.InvalidInput(
			fmt.Sprintf("unsupported resume file type %q, expected .pdf or .txt", filepath.Ext(file.Filename)), nil))
	}

	req := dto.ScoreResumeRequest{
		JobDescription: c.FormValue("job_description"),
		JobTitle:       c.FormValue("job_title"),
		Industry:       c.FormValue("industry"),
	}
	if form, err := c.MultipartForm(); err == nil {
		req.TargetSkills = form.Value["target_skills"]
	}
	if err := h.uc.Validate(req); err != nil {
		return h.fail(c, err)
	}

	if err := os.MkdirAll(h.cfg.UploadDir, 0o750); err != nil {
		return h.fail(c, apperror.Internal("cannot prepare upload directory", err))
	}
	savePath := filepath.Join(h.cfg.UploadDir, uuid.NewString()+strings.ToLower(filepath.Ext(file.Filename)))
	if err := c.SaveFile(file, savePath); err != nil {
		_ = os.Remove(savePath)
		return h.fail(c, apperror.Internal("cannot save resume file", err))
	}
	doc := service.NewTempDocument(file.Filename, savePath)

	// fasthttp does not signal a client disconnect while the handler runs, so
	// an abandoned request is bounded by PIPELINE_TIMEOUT.
	start := time.Now()
	result, err := h.uc.Score(c.UserContext(), doc, req)
	if err != nil {
		return h.fail(c, err)
	}

	provider, model := h.uc.Provider()
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success score resume",
		Data:    dto.NewScoreResultDTO(result),
		Meta: dto.ScoreMetaDTO{
			SessionID: result.Context.SessionID.String(),
			JobTitle:  result.Context.JobTitle,
			Industry:  result.Context.Industry,
			Provider:  provider,
			Model:     model,
			ElapsedMS: time.Since(start).Milliseconds(),
		},
	})
}

func (h *ScoreHandler) fail(c *fiber.Ctx, err error) error {
	status := apperror.HTTPStatus(err)
	message := "failed to score resume"
	if apperror.Is(err, apperror.ErrTypeInvalidInput) {
		message = "invalid scoring request"
	}
	if status >= fiber.StatusInternalServerError {
		h.logger.Error(message, zap.Int("status", status), zap.Error(err))
	}
	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:    status,
		Message: message,
	}, err)
}
