package folio

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds a zap logger at level. Development mode switches to the
// console encoder with stack traces on warnings.
func NewLogger(level string, development bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("folio: log level: %w", err)
		}
		cfg.Level = lvl
	}
	return cfg.Build()
}
