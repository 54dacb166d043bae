package logging

import (
	"fmt"
	"log/slog"

	"food-analyzer-go/internal/utils"
)

// Config captures logging configuration options.
type Config struct {
	Level    string
	Dir      string
	Filename string
}

// Logger owns the process-wide utils logger.
type Logger struct {
	base *utils.Logger
}

// New creates the file and console logger and installs it as utils.DefaultLogger.
func New(cfg Config) (*Logger, error) {
	logCfg := &utils.LogCfg{
		LogLevel: cfg.Level,
		LogDir:   cfg.Dir,
		LogFile:  cfg.Filename,
	}
	base, err := utils.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	utils.DefaultLogger = base
	return &Logger{base: base}, nil
}

// Base exposes the printf-style logger used across the service.
func (l *Logger) Base() *utils.Logger {
	return l.base
}

// Slog exposes the structured logger for new integrations.
func (l *Logger) Slog() *slog.Logger {
	return l.base.Slog()
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l == nil || l.base == nil {
		return nil
	}
	return l.base.Close()
}
