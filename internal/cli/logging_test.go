package cli

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLogLevelOrDefault(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "", want: slog.LevelWarn},
		{input: "verbose", want: slog.LevelWarn},
	}

	for _, tt := range tests {
		if got := ParseLogLevelOrDefault(tt.input); got != tt.want {
			t.Errorf("ParseLogLevelOrDefault(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(slog.LevelInfo)
	if logger == nil {
		t.Fatal("NewLogger() returned nil")
	}
	if !logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("logger does not enable its own level")
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("logger enables levels below its own")
	}
}
