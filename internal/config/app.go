package config

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Name            string        `validate:"required"`
	Env             string        `validate:"oneof=development staging production test"`
	Port            string        `validate:"required"`
	BaseURL         string        `validate:"omitempty,url"`
	UploadDir       string        `validate:"required"`
	MaxUploadMB     int           `validate:"min=1,max=100"`
	RateLimitMax    int           `validate:"min=-1"`
	RateLimitWindow time.Duration
	LogJSON         bool
	LogDebug        bool
}

var (
	appConfig *AppConfig
	appOnce   sync.Once

	validate = validator.New()
	envOnce  sync.Once
)

// env returns the shared viper instance reading from the environment.
// Command line flags bound by the CLI take precedence.
func env() *viper.Viper {
	envOnce.Do(func() {
		viper.AutomaticEnv()
	})
	return viper.GetViper()
}

func LoadAppConfig() *AppConfig {
	appOnce.Do(func() {
		v := env()
		v.SetDefault("APP_NAME", "resume-scoring-api")
		v.SetDefault("APP_ENV", "development")
		v.SetDefault("APP_PORT", ":8080")
		v.SetDefault("APP_UPLOAD_DIR", "")
		v.SetDefault("APP_MAX_UPLOAD_MB", 10)
		v.SetDefault("APP_RATE_LIMIT", 50)
		v.SetDefault("APP_RATE_LIMIT_WINDOW", time.Minute)
		v.SetDefault("LOG_JSON", false)
		v.SetDefault("LOG_DEBUG", false)

		if _, ok := os.LookupEnv("APP_ENV"); !ok {
			log.Printf("Warning: APP_ENV not set, defaulting to %s", v.GetString("APP_ENV"))
		}

		uploadDir := v.GetString("APP_UPLOAD_DIR")
		if uploadDir == "" {
			uploadDir = filepath.Join(os.TempDir(), "resume-scorer")
		}

		appConfig = &AppConfig{
			Name:            v.GetString("APP_NAME"),
			Env:             v.GetString("APP_ENV"),
			Port:            v.GetString("APP_PORT"),
			BaseURL:         v.GetString("APP_URL"),
			UploadDir:       uploadDir,
			MaxUploadMB:     v.GetInt("APP_MAX_UPLOAD_MB"),
			RateLimitMax:    v.GetInt("APP_RATE_LIMIT"),
			RateLimitWindow: v.GetDuration("APP_RATE_LIMIT_WINDOW"),
			LogJSON:         v.GetBool("LOG_JSON"),
			LogDebug:        v.GetBool("LOG_DEBUG"),
		}
	})
	return appConfig
}

func (c *AppConfig) Validate() error {
	return validate.Struct(c)
}

func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// MaxUploadBytes is the largest accepted resume upload.
func (c *AppConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}
