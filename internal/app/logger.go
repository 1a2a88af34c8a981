package app

import (
	"strings"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/logger"
)

// ConfigureLogging initialises the global logger from the server section,
// defaulting to info level JSON output.
func ConfigureLogging(cfg ServerConfig) error {
	level := strings.TrimSpace(cfg.LogLevel)
	if level == "" {
		level = "info"
	}
	return logger.Init(logger.Options{
		Level:    level,
		Encoding: strings.TrimSpace(cfg.LogEncoding),
	})
}
