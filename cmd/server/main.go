package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fadilmartias/resume-scorer/internal/apperror"
	"github.com/fadilmartias/resume-scorer/internal/config"
	"github.com/fadilmartias/resume-scorer/internal/domain/fiber/handler"
	"github.com/fadilmartias/resume-scorer/internal/logger"
	"github.com/fadilmartias/resume-scorer/internal/telemetry"
	"github.com/fadilmartias/resume-scorer/internal/usecase"
	"github.com/fadilmartias/resume-scorer/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()
	if err := appConfig.Validate(); err != nil {
		log.Fatalf("invalid app config: %v", err)
	}
	pipelineConfig := config.LoadPipelineConfig()
	telemetryConfig := config.LoadTelemetryConfig()

	zlog, err := logger.New(appConfig.LogJSON, appConfig.LogDebug)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, telemetryConfig.ServiceName, version, telemetryConfig.Endpoint)
	if err != nil {
		zlog.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdownTracer()

	uc, err := usecase.NewScoringUsecaseFromConfig(ctx, pipelineConfig, zlog)
	if err != nil {
		zlog.Fatal("failed to build scoring pipeline", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		// multipart overhead on top of the largest accepted resume
		BodyLimit:    int(appConfig.MaxUploadBytes()) + 1<<20,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: pipelineConfig.Timeout + 15*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    apperror.HTTPStatus(err),
				Message: "request failed",
			}, err)
		},
	})
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	// Use middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !appConfig.IsProduction(),
	}))

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // 1
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.IsProduction()
		},
	}))
	app.Use(healthcheck.New())

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	handler.NewScoreHandler(uc, appConfig, version, zlog).RegisterRoutes(app)

	// Monitor goroutine count
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				zlog.Debug("runtime stats", zap.Int("goroutines", runtime.NumGoroutine()))
			}
		}
	}()

	go func() {
		zlog.Info("server running", zap.String("port", appConfig.Port), zap.String("env", appConfig.Env))
		if err := app.Listen(appConfig.Port); err != nil {
			zlog.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")
	if err := app.ShutdownWithTimeout(pipelineConfig.Timeout); err != nil {
		zlog.Error("shutdown failed", zap.Error(err))
	}
}
