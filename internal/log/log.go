// Package log wires the default slog logger to a rotating file.
package log

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	charmlog "github.com/charmbracelet/log/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

const fileName = "tapeview.log"

// File returns the path of the log file inside dataDir.
func File(dataDir string) string {
	return filepath.Join(dataDir, "logs", fileName)
}

// Setup routes slog through a charm handler writing to a rotating log
// file under dataDir and returns the file path.
func Setup(dataDir string, debug bool) (string, error) {
	path := File(dataDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}

	level := charmlog.InfoLevel
	if debug {
		level = charmlog.DebugLevel
	}
	handler := charmlog.NewWithOptions(writer, charmlog.Options{
		Level:           level,
		ReportCaller:    debug,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
	slog.SetDefault(slog.New(handler))
	return path, nil
}
