package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Load reads configuration from the optional yaml file at path, then from
// the environment. The page-size bounds are checked here so runtime code can
// assume default_limit <= max_limit.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) Validate() error {
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("config: default_limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxLimit <= 0 {
		return fmt.Errorf("config: max_limit must be positive, got %d", c.MaxLimit)
	}
	if c.DefaultLimit > c.MaxLimit {
		return fmt.Errorf("config: default_limit %d exceeds max_limit %d", c.DefaultLimit, c.MaxLimit)
	}
	switch c.DBDriver {
	case "", "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported db_driver %q", c.DBDriver)
	}
	return nil
}
