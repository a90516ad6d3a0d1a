package logger

import (
	"testing"

	"kling-studio/app/config"

	"go.uber.org/zap/zapcore"
)

func TestSetLevel(t *testing.T) {
	log := New(config.LogConfig{Level: "warn", Format: "json", Output: "stdout"})
	defer log.Sync()

	if log.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("info should be disabled at warn level")
	}

	log.SetLevel("debug")
	if got := log.Level(); got != "debug" {
		t.Fatalf("Level() = %q, want debug", got)
	}
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("debug should be enabled after SetLevel")
	}

	log.SetLevel("nonsense")
	if got := log.Level(); got != "info" {
		t.Fatalf("Level() = %q, want info for unknown level", got)
	}
}
