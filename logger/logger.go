// Package logger builds the zap logger used by the command line tool.
package logger

import (
	"go.uber.org/zap"
)

// Development style console output without timestamps. Only warnings
// and errors are shown unless verbose is set.
func New(verbose bool) *zap.Logger {
	lc := zap.NewDevelopmentConfig()
	lc.EncoderConfig.TimeKey = ""
	if !verbose {
		lc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}

	logger, err := lc.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
