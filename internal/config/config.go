package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	Path     string `yaml:"path"`
}

type Config struct {
	Database DatabaseConfig `yaml:"database"`
}

func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.Database.Driver = NormalizeDriver(config.Database.Driver)

	if config.Database.Driver == "postgres" {
		if config.Database.SSLMode == "" {
			config.Database.SSLMode = "disable"
		}
		if config.Database.Port == 0 {
			config.Database.Port = 5432
		}
	}

	return &config, nil
}

// DSN returns the database/sql driver name and data source for the
// configured target.
func (c *Config) DSN() (string, string, error) {
	switch c.Database.Driver {
	case "postgres":
		return "postgres", fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Database.Host,
			c.Database.Port,
			c.Database.Username,
			c.Database.Password,
			c.Database.Database,
			c.Database.SSLMode,
		), nil
	case "sqlite":
		if strings.TrimSpace(c.Database.Path) == "" {
			return "", "", fmt.Errorf("sqlite config requires a path")
		}
		return "sqlite", c.Database.Path, nil
	default:
		return "", "", fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
}

// NormalizeDriver folds driver aliases onto the canonical names.
func NormalizeDriver(driver string) string {
	driver = strings.ToLower(strings.TrimSpace(driver))
	switch driver {
	case "", "postgres", "postgresql":
		return "postgres"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return driver
	}
}
