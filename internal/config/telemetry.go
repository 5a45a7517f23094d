package config

import "sync"

type TelemetryConfig struct {
	// Endpoint is the OTLP gRPC collector address. Empty disables tracing.
	Endpoint    string
	ServiceName string
}

var (
	telemetryConfig *TelemetryConfig
	telemetryOnce   sync.Once
)

func LoadTelemetryConfig() *TelemetryConfig {
	telemetryOnce.Do(func() {
		v := env()
		v.SetDefault("OTEL_SERVICE_NAME", "resume-scorer")

		telemetryConfig = &TelemetryConfig{
			Endpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName: v.GetString("OTEL_SERVICE_NAME"),
		}
	})
	return telemetryConfig
}
