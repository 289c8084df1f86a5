package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultLogDir    = "logs"
	fileBufferSize   = 32 * 1024
	consoleQueueSize = 1024
)

// NewLogger builds the JSON logger for service. Entries go to
// logs/<service>.log through a buffered async writer and are echoed to
// stdout. The returned func flushes both and must run before exit.
func NewLogger(service string) (*logrus.Logger, func()) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "time",
			logrus.FieldKeyMsg:  "msg",
		},
	})
	logger.SetLevel(parseLevel(os.Getenv("LOG_LEVEL")))

	dir := os.Getenv("LOG_DIR")
	if dir == "" {
		dir = defaultLogDir
	}
	fileWriter, err := openLogFile(dir, service)
	if err != nil {
		logger.SetOutput(os.Stdout)
		logger.WithError(err).Warn("file logging disabled, writing to stdout only")
		return logger, func() {}
	}

	logger.SetOutput(fileWriter)
	consoleHook := NewAsyncConsoleHook(consoleQueueSize)
	logger.AddHook(consoleHook)

	return logger, func() {
		consoleHook.Close()
		fileWriter.Close()
	}
}

func parseLevel(raw string) logrus.Level {
	level, err := logrus.ParseLevel(strings.TrimSpace(raw))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func openLogFile(dir, service string) (*AsyncFileWriter, error) {
	name := filepath.Base(filepath.Clean(service))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("invalid service name %q", service)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return NewAsyncFileWriter(filepath.Join(dir, name+".log"), fileBufferSize)
}
