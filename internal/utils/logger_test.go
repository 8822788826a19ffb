package utils

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerInstallsGlobal(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "debug", Encoding: "json", ServiceName: "flexchat-test"})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	if zap.L() != logger {
		t.Fatalf("expected logger to be installed as the zap global")
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug level to be enabled")
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if got := parseLevel("chatty"); got != zapcore.InfoLevel {
		t.Fatalf("expected info level, got %s", got)
	}
	if got := parseLevel(" WARN "); got != zapcore.WarnLevel {
		t.Fatalf("expected warn level, got %s", got)
	}
}
