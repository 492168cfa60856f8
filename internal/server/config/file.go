package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// parseFile overlays values from a JSON, YAML or TOML file onto config. Keys
// are the snake_case names in the mapstructure tags. Keys absent from the
// file leave the current value untouched. An empty path is a no-op.
func parseFile(config *Config, path string) error {
	if path == "" {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}
