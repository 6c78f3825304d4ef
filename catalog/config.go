package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/scriptshelf/scriptshelf/auth"
)

// Config holds the full scriptshelf configuration.
type Config struct {
	Listen        string `yaml:"listen"`
	DBPath        string `yaml:"db_path"`
	TraceDBPath   string `yaml:"trace_db_path"`   // empty disables query tracing
	LogMirrorPath string `yaml:"log_mirror_path"` // empty disables the activity log mirror file
	JWTSecret     string `yaml:"jwt_secret"`
	AdminUsername string `yaml:"admin_username"`
	SeedCatalog   bool   `yaml:"seed_catalog"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:        ":8080",
		DBPath:        "scriptshelf.db",
		AdminUsername: "admin",
		SeedCatalog:   true,
	}
}

// LoadConfig reads and parses a YAML config file. Returns DefaultConfig
// merged with the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.AdminUsername == "" {
		return fmt.Errorf("admin_username is required")
	}
	if c.JWTSecret != "" {
		if err := auth.ValidateSecret([]byte(c.JWTSecret)); err != nil {
			return fmt.Errorf("jwt_secret: %w", err)
		}
	}
	return nil
}
