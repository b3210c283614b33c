package observability

import (
	"strings"

	"github.com/smallbiznis/mealplan/internal/config"
)

// Config is the observability view of the application config.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	Log  LogSettings
	OTLP OTLPSettings
}

type LogSettings struct {
	Level  string
	Format string
}

// OTLPSettings is shared by the trace and metric exporters.
type OTLPSettings struct {
	Enabled       bool
	Endpoint      string
	Protocol      string
	SamplingRatio float64
}

func LoadConfig(cfg config.Config) Config {
	name := strings.TrimSpace(cfg.AppName)
	if name == "" {
		name = "mealplan"
	}

	return Config{
		ServiceName: name,
		Environment: strings.TrimSpace(cfg.Environment),
		Version:     strings.TrimSpace(cfg.AppVersion),
		Log: LogSettings{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
		},
		OTLP: OTLPSettings{
			Enabled:       cfg.OTLPEnabled,
			Endpoint:      strings.TrimSpace(cfg.OTLPEndpoint),
			Protocol:      normalizeProtocol(cfg.OTLPProtocol),
			SamplingRatio: clampRatio(cfg.OTLPSamplingRatio),
		},
	}
}

// Debug reports whether verbose request logging and gin debug mode apply.
func (c Config) Debug() bool {
	if c.Log.Level == "debug" {
		return true
	}
	switch strings.ToLower(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

func normalizeProtocol(protocol string) string {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf", "http/json":
		return "http"
	default:
		return "grpc"
	}
}

func clampRatio(ratio float64) float64 {
	switch {
	case ratio < 0:
		return 0
	case ratio > 1:
		return 1
	}
	return ratio
}
