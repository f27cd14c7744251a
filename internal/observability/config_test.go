package observability

import (
	"testing"

	"github.com/Gizz1e/Gizzle/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigMapsProcessConfig(t *testing.T) {
	cfg := LoadConfig(config.Config{
		AppName:     " gizzle-api ",
		AppVersion:  "1.4.0",
		Environment: "production",
		Observability: config.ObservabilityConfig{
			LogLevel:      "warn",
			LogFormat:     "console",
			OtelEnabled:   true,
			OTLPEndpoint:  "collector:4318",
			OTLPProtocol:  "http",
			SamplingRatio: 0.5,
		},
	})

	assert.Equal(t, Config{
		ServiceName:          "gizzle-api",
		Environment:          "production",
		Version:              "1.4.0",
		LogLevel:             "warn",
		LogFormat:            "console",
		OtelEnabled:          true,
		OtelExporterEndpoint: "collector:4318",
		OtelExporterProtocol: "http",
		OtelSamplingRatio:    0.5,
	}, cfg)
	assert.False(t, cfg.Debug())
}

func TestLoadConfigDefaultsServiceName(t *testing.T) {
	assert.Equal(t, "gizzle", LoadConfig(config.Config{}).ServiceName)
}

func TestDebug(t *testing.T) {
	assert.True(t, Config{LogLevel: "DEBUG", Environment: "production"}.Debug())
	assert.True(t, Config{LogLevel: "info", Environment: "local"}.Debug())
	assert.False(t, Config{LogLevel: "info", Environment: "staging"}.Debug())
}
