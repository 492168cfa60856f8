package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// parseEnv loads envFile into the process environment (existing variables
// win) and then overlays every variable named in the env tags onto config.
// RUST_LOG is honoured as the log level when LOG_LEVEL is unset.
func parseEnv(config *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	if _, ok := os.LookupEnv("LOG_LEVEL"); !ok {
		if lvl, ok := os.LookupEnv("RUST_LOG"); ok && lvl != "" {
			config.LogLevel = lvl
		}
	}

	if err := env.Parse(config); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
