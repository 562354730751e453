package contract

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig holds structured logging settings.
type LoggerConfig struct {
	Level  string // debug, info, warn, error, or 0 (silent), 1 (info), 2 (debug)
	Format string // console or json
	File   string // empty means stderr
}

// NewLogger builds the structured logger injected into the scoring pipeline.
// Level "0" returns a no-op logger.
func NewLogger(cfg LoggerConfig) (*zap.SugaredLogger, error) {
	level, silent := parseLogLevel(cfg.Level)
	if silent {
		return zap.NewNop().Sugar(), nil
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.Sampling = nil

	if strings.EqualFold(cfg.Format, "json") {
		zapConfig.Encoding = "json"
	} else {
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	output := "stderr"
	if cfg.File != "" {
		output = cfg.File
	}
	zapConfig.OutputPaths = []string{output}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// parseLogLevel maps a level name or the numeric 0/1/2 convention to a zap level.
func parseLogLevel(s string) (zapcore.Level, bool) {
	switch strings.TrimSpace(s) {
	case "0":
		return zapcore.InfoLevel, true
	case "1", "":
		return zapcore.InfoLevel, false
	case "2":
		return zapcore.DebugLevel, false
	}
	level, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel, false
	}
	return level, false
}
