package log

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/config"
)

func TestNewLogger_JSONEncoding(t *testing.T) {
	logger, err := NewLogger(config.LoggingConfig{
		Level:    "info",
		Encoding: "json",
	})
	if err != nil {
		t.Fatalf("expected logger to build, got error: %v", err)
	}
	defer logger.Sync()

	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Errorf("expected warn level to be enabled at info config")
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Errorf("expected debug level to be disabled at info config")
	}
}

func TestNewLogger_ConsoleEncoding(t *testing.T) {
	logger, err := NewLogger(config.LoggingConfig{
		Level:    "debug",
		Encoding: "console",
	})
	if err != nil {
		t.Fatalf("expected console logger to build, got error: %v", err)
	}
	defer logger.Sync()

	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Errorf("expected debug level to be enabled at debug config")
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger(config.LoggingConfig{Level: "loud", Encoding: "json"}); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}
