// Package logging builds the operational logger. The interactive TUI owns the
// terminal, so log lines go to a file under the config directory.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/diogo/docchat/internal/config"
)

const (
	logDirName  = "logs"
	logFileName = "docchat.log"
)

// Options configures the logger
type Options struct {
	Verbose bool
	// Path overrides the log file location. Empty means
	// ~/.docchat/logs/docchat.log.
	Path string
}

// GetLogPath returns the default log file path
func GetLogPath() (string, error) {
	configDir, err := config.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, logDirName, logFileName), nil
}

// New builds a JSON file logger. Debug level when Verbose is set.
func New(opts Options) (*zap.Logger, error) {
	path := opts.Path
	if path == "" {
		var err error
		path, err = GetLogPath()
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Sampling = nil
	if opts.Verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.Named("docchat"), nil
}

// NewOrNop returns New(opts), or a no-op logger when the file cannot be
// opened. The error is returned so callers can mention it once.
func NewOrNop(opts Options) (*zap.Logger, error) {
	logger, err := New(opts)
	if err != nil {
		return zap.NewNop(), err
	}
	return logger, nil
}
