package config

import (
	"fmt"
	"strings"
)

// ValidateConfig checks loaded configuration before any command runs.
// Invalid configuration aborts here, never mid-scan.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	switch strings.ToUpper(cfg.Scanner.MinConfidence) {
	case "", "LOW", "MEDIUM", "HIGH":
	default:
		return fmt.Errorf("scanner.min_confidence: unknown confidence level %q", cfg.Scanner.MinConfidence)
	}

	if cfg.Scanner.Jobs < 0 {
		return fmt.Errorf("scanner.jobs must not be negative, got %d", cfg.Scanner.Jobs)
	}

	if cfg.GitClient.Depth < 0 {
		return fmt.Errorf("git_client.depth must not be negative, got %d", cfg.GitClient.Depth)
	}

	if cfg.GitClient.Timeout < 0 {
		return fmt.Errorf("git_client.timeout must not be negative, got %s", cfg.GitClient.Timeout)
	}

	return nil
}
