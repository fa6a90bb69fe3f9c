// Package logging builds the zerolog handle used across the app: a console
// writer on stderr plus a timestamped log file per run under logs/. The
// logger is constructed once in main and passed to the components that need
// it; there is no package-level singleton.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	logDirName      = "logs"
	logTimeFormat   = "2006-01-02 15:04:05"
	logFileTemplate = "download_%s.log"
	fileTimestamp   = "20060102_150405"
)

// Setup creates the run logger. Level comes from the configured log level;
// verbose forces debug. The returned closer flushes and closes the log file
// and is safe to call even when file creation failed (console-only mode).
func Setup(level string, verbose bool) (zerolog.Logger, func()) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}

	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: logTimeFormat,
	}

	writers := []io.Writer{console}
	closer := func() {}

	if file, ferr := openLogFile(); ferr == nil {
		writers = append(writers, file)
		closer = func() { _ = file.Close() }
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Str("run_id", uuid.NewString()).
		Logger()

	return logger, closer
}

func openLogFile() (*os.File, error) {
	if err := os.MkdirAll(logDirName, 0755); err != nil {
		return nil, err
	}
	name := fmt.Sprintf(logFileTemplate, time.Now().Format(fileTimestamp))
	return os.OpenFile(filepath.Join(logDirName, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}
