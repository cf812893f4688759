package logger

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"sponsorops/internal/platform/config"
)

func TestInit_LevelFallback(t *testing.T) {
	Init(config.LoggingConfig{Level: "chatty", Format: "json", Output: "stdout"})
	if got := zerolog.GlobalLevel(); got != zerolog.InfoLevel {
		t.Errorf("Expected info level for unknown name, got %s", got)
	}

	Init(config.LoggingConfig{Level: "debug", Format: "json", Output: "stdout"})
	if got := zerolog.GlobalLevel(); got != zerolog.DebugLevel {
		t.Errorf("Expected debug level, got %s", got)
	}
}

func TestOpenLogFile_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	f, err := openLogFile(path)
	if err != nil {
		t.Fatalf("openLogFile: %v", err)
	}
	f.Close()
}
