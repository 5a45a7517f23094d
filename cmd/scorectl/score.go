package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fadilmartias/resume-scorer/internal/apperror"
	"github.com/fadilmartias/resume-scorer/internal/config"
	"github.com/fadilmartias/resume-scorer/internal/dto"
	"github.com/fadilmartias/resume-scorer/internal/logger"
	"github.com/fadilmartias/resume-scorer/internal/service"
	"github.com/fadilmartias/resume-scorer/internal/telemetry"
	"github.com/fadilmartias/resume-scorer/internal/usecase"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type fileResult struct {
	File    string              `json:"file"`
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    *dto.ScoreResultDTO `json:"data"`
	Error   *string             `json:"error"`
}

var scoreCmd = &cobra.Command{
	Use:   "score [flags] RESUME...",
	Short: "Score one or more .pdf or .txt resumes",
	Long:  "Score one or more .pdf or .txt resumes against a job description. Resume files are left in place and results are printed as JSON.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().String("job-description", "", "job description text")
	scoreCmd.Flags().String("job-file", "", "file containing the job description")
	scoreCmd.Flags().StringSlice("skills", nil, "target skills, comma separated or repeated")
	scoreCmd.Flags().String("job-title", "", "job title used for role fit")
	scoreCmd.Flags().String("industry", "", "industry used for industry fit")
	scoreCmd.Flags().StringP("provider", "p", "", "inference provider: gemini, openrouter or rules")
	scoreCmd.Flags().IntP("concurrency", "c", 0, "resumes scored in parallel")
	scoreCmd.Flags().Duration("timeout", 0, "timeout per resume")
	scoreCmd.Flags().String("audit-language", "", "language of the audit reasoning")

	viper.BindPFlag("INFERENCE_PROVIDER", scoreCmd.Flags().Lookup("provider"))
	viper.BindPFlag("PIPELINE_CONCURRENCY", scoreCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("PIPELINE_TIMEOUT", scoreCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("PIPELINE_AUDIT_LANGUAGE", scoreCmd.Flags().Lookup("audit-language"))
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	appConfig := config.LoadAppConfig()
	zlog, err := logger.New(appConfig.LogJSON, appConfig.LogDebug)
	if err != nil {
		return fmt.Errorf("creating a logger: %w", err)
	}
	defer func() { _ = zlog.Sync() }()

	telemetryConfig := config.LoadTelemetryConfig()
	shutdownTracer, err := telemetry.InitTracer(ctx, telemetryConfig.ServiceName, version, telemetryConfig.Endpoint)
	if err != nil {
		return err
	}
	defer shutdownTracer()

	req, err := scoreRequestFromFlags(cmd)
	if err != nil {
		return err
	}

	pipelineConfig := config.LoadPipelineConfig()
	uc, err := usecase.NewScoringUsecaseFromConfig(ctx, pipelineConfig, zlog)
	if err != nil {
		return err
	}

	results := scoreFiles(ctx, uc, req, args, pipelineConfig.Concurrency, zlog)
	if err := writeResults(cmd.OutOrStdout(), results); err != nil {
		return err
	}
	for _, r := range results {
		if !r.Success {
			return fmt.Errorf("%d of %d resumes failed", countFailed(results), len(results))
		}
	}
	return nil
}

func scoreRequestFromFlags(cmd *cobra.Command) (dto.ScoreResumeRequest, error) {
	flags := cmd.Flags()
	jd, _ := flags.GetString("job-description")
	if file, _ := flags.GetString("job-file"); file != "" {
		content, err := os.ReadFile(file)
		if err != nil {
			return dto.ScoreResumeRequest{}, fmt.Errorf("reading job description: %w", err)
		}
		jd = string(content)
	}
	skills, _ := flags.GetStringSlice("skills")
	title, _ := flags.GetString("job-title")
	industry, _ := flags.GetString("industry")

	return dto.ScoreResumeRequest{
		JobDescription: jd,
		TargetSkills:   skills,
		JobTitle:       title,
		Industry:       industry,
	}, nil
}

// scoreFiles scores every file with at most concurrency runs in flight. A
// failed resume is reported in its result and does not stop the others.
func scoreFiles(ctx context.Context, uc *usecase.ScoringUsecase, req dto.ScoreResumeRequest, files []string, concurrency int, log *zap.Logger) []fileResult {
	results := make([]fileResult, len(files))
	if concurrency < 1 {
		concurrency = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, file := range files {
		g.Go(func() error {
			results[i] = scoreFile(ctx, uc, req, file)
			if !results[i].Success {
				log.Warn("resume failed", zap.String("file", file), zap.Stringp("error", results[i].Error))
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func scoreFile(ctx context.Context, uc *usecase.ScoringUsecase, req dto.ScoreResumeRequest, file string) fileResult {
	result := fileResult{File: file}
	fail := func(err error) fileResult {
		msg := err.Error()
		result.Message = "failed to score resume"
		result.Error = &msg
		return result
	}

	if !uc.SupportedFile(file) {
		return fail(apperror.InvalidInput(fmt.Sprintf("unsupported resume file type %q", filepath.Ext(file)), nil))
	}
	if _, err := os.Stat(file); err != nil {
		return fail(apperror.InvalidInput("resume file is not readable", err))
	}

	scored, err := uc.Score(ctx, service.NewFileDocument(filepath.Base(file), file), req)
	if err != nil {
		return fail(err)
	}

	data := dto.NewScoreResultDTO(scored)
	result.Success = true
	result.Message = "Success score resume"
	result.Data = &data
	return result
}

func writeResults(w io.Writer, results []fileResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	return nil
}

func countFailed(results []fileResult) int {
	n := 0
	for _, r := range results {
		if !r.Success {
			n++
		}
	}
	return n
}

