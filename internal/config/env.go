package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/yolodolo42/plasma-mcp/internal/logger"
)

// LoadEnvironment loads .env files into the process environment. Variables
// already set are never overridden. With no paths, ./.env is tried.
func LoadEnvironment(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logger.Warn("could not load %s: %v", p, err)
			}
			continue
		}
		logger.Debug("loaded environment from %s", p)
	}
}
