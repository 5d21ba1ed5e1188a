package config

import "fmt"

// Validate performs runtime validations on the loaded configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database URL must be specified")
	}
	if cfg.OfficialRegistryURL == "" {
		return fmt.Errorf("official registry URL must be specified")
	}
	if cfg.DockerHubURL == "" {
		return fmt.Errorf("docker hub URL must be specified")
	}
	return nil
}
