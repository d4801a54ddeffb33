// Package observability holds the client's logging, metrics and tracing helpers.
package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sheldon-client/infrastructure/config"
)

// NewLogger builds the request logger. A disabled configuration yields a no-op
// logger so call sites never need to check.
func NewLogger(cfg config.Logging) (*zap.Logger, error) {
	if !cfg.Enabled {
		return zap.NewNop(), nil
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{cfg.Output}
	zc.ErrorOutputPaths = []string{"stderr"}
	zc.DisableStacktrace = true

	return zc.Build()
}
