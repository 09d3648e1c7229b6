// Package logging builds the zap loggers used by the exchange tooling.
package logging

import (
	"log"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Env selects the logger configuration
type Env string

const (
	EnvDevelopment Env = "development"
	EnvProduction  Env = "production"
)

// ParseEnv maps a configured environment name to an Env. Anything other
// than "development" (or "dev") is treated as production.
func ParseEnv(s string) Env {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "development", "dev":
		return EnvDevelopment
	default:
		return EnvProduction
	}
}

// Config returns the zap configuration for env
func Config(env Env) zap.Config {
	var cfg zap.Config
	if env == EnvDevelopment {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.CallerKey = ""
		cfg.DisableStacktrace = true
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.LevelKey = "level"
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.CallerKey = "caller"
		cfg.DisableStacktrace = false
	}
	return cfg
}

// New builds a logger for env. If the logger cannot be built, a no-op
// logger is returned.
func New(env Env) *zap.Logger {
	logger, err := Config(env).Build()
	if err != nil {
		log.Printf("failed to build logger for env '%s', falling back to no-op logger: %v", env, err)
		return zap.NewNop()
	}
	return logger
}

// Component returns a child of logger tagged with the component name.
// A nil logger yields a no-op logger.
func Component(logger *zap.Logger, name string) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.With(zap.String("component", name))
}
