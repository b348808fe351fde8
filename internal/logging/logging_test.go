package logging

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewLoggerConfigLevel(t *testing.T) {
	if lvl := NewLoggerConfig(false).Level.Level(); lvl != zap.InfoLevel {
		t.Errorf("Expected info level, got %v", lvl)
	}
	if lvl := NewLoggerConfig(true).Level.Level(); lvl != zap.DebugLevel {
		t.Errorf("Expected debug level, got %v", lvl)
	}
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger("labelfill", true)
	if logger == nil {
		t.Fatal("Expected a logger")
	}
	if !logger.Desugar().Core().Enabled(zap.DebugLevel) {
		t.Error("Expected debug logging to be enabled")
	}
	if NewLogger("labelfill", false).Desugar().Core().Enabled(zap.DebugLevel) {
		t.Error("Expected debug logging to be disabled")
	}
}
