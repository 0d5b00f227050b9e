// Package logging builds the application zap logger.
package logging

import (
	"go.uber.org/zap"

	"github.com/vsinha/stockvalued/pkg/infrastructure/config"
)

// New builds a production (json) or development logger at the configured level
func New(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	// slips go to stdout
	zapCfg.OutputPaths = []string{"stderr"}

	return zapCfg.Build()
}
