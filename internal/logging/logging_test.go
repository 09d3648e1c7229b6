package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseEnv(t *testing.T) {
	tests := map[string]Env{
		"development": EnvDevelopment,
		"DEV":         EnvDevelopment,
		" dev ":       EnvDevelopment,
		"production":  EnvProduction,
		"":            EnvProduction,
		"staging":     EnvProduction,
	}
	for input, expected := range tests {
		t.Run(input, func(t *testing.T) {
			if got := ParseEnv(input); got != expected {
				t.Errorf("expected %q, got %q", expected, got)
			}
		})
	}
}

func TestConfig(t *testing.T) {
	dev := Config(EnvDevelopment)
	if dev.EncoderConfig.CallerKey != "" {
		t.Errorf("expected no caller key in development, got %q", dev.EncoderConfig.CallerKey)
	}
	if !dev.DisableStacktrace {
		t.Errorf("expected stacktraces disabled in development")
	}

	prod := Config(EnvProduction)
	if prod.EncoderConfig.TimeKey != "time" {
		t.Errorf("expected time key 'time', got %q", prod.EncoderConfig.TimeKey)
	}
	if prod.EncoderConfig.CallerKey != "caller" {
		t.Errorf("expected caller key 'caller', got %q", prod.EncoderConfig.CallerKey)
	}
	if prod.Encoding != "json" {
		t.Errorf("expected json encoding, got %q", prod.Encoding)
	}
}

func TestNew(t *testing.T) {
	for _, env := range []Env{EnvDevelopment, EnvProduction} {
		if New(env) == nil {
			t.Fatalf("expected logger for %s", env)
		}
	}
}

func TestComponent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := Component(zap.New(core), "reader")
	logger.Info("parsed")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["component"] != "reader" {
		t.Errorf("expected component 'reader', got %v", fields["component"])
	}

	if Component(nil, "x") == nil {
		t.Errorf("expected no-op logger for nil parent")
	}
}
