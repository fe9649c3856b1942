package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config is the application configuration loaded from config.yml.
type Config struct {
	Logger    Logger    `yaml:"logger"`
	GitClient GitClient `yaml:"git_client"`
	Scanner   Scanner   `yaml:"scanner"`
	Server    Server    `yaml:"server"`
}

type Logger struct {
	Level string `yaml:"level"`
}

type GitClient struct {
	Depth       int           `yaml:"depth"`
	InsecureTLS bool          `yaml:"insecure_tls"`
	Timeout     time.Duration `yaml:"timeout"`
}

type Scanner struct {
	MinConfidence string `yaml:"min_confidence"`
	Strict        bool   `yaml:"strict"`
	Jobs          int    `yaml:"jobs"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Logger: Logger{Level: "info"},
		GitClient: GitClient{
			Depth:   1,
			Timeout: 10 * time.Minute,
		},
		Scanner: Scanner{
			MinConfidence: "LOW",
			Jobs:          1,
		},
		Server: Server{Addr: "localhost:8642"},
	}
}

func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// LoadConfig reads the YAML config at configPath on top of the defaults.
// A missing file is not an error: the defaults are returned as-is.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	if err := LoadYAML(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load config %q: %w", configPath, err)
	}

	return config, nil
}
