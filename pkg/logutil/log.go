// Package logutil builds the zap logger described by config.LogConfig.
package logutil

import (
	"github.com/pingcap/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rccell/pkg/config"
)

// New builds a logger from cfg.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Trace(err)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Encoding = cfg.Format
	if cfg.File != "" {
		zcfg.OutputPaths = []string{cfg.File}
	} else {
		zcfg.OutputPaths = []string{"stderr"}
	}
	zcfg.DisableStacktrace = level > zapcore.DebugLevel

	logger, err := zcfg.Build(zap.AddStacktrace(zapcore.FatalLevel))
	if err != nil {
		return nil, errors.Trace(err)
	}
	return logger, nil
}
