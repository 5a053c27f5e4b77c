package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/timegrid/pkg/core/patterns"
)

// envPrefix is prepended to every environment override, e.g. TIMEGRID_DATABASE_URL
const envPrefix = "TIMEGRID"

const (
	defaultServerAddress   = ":8080"
	defaultPatternCacheTTL = 300
)

// PatternsConfig controls how votes are folded into usual-availability patterns
type PatternsConfig struct {
	MergePolicy string `yaml:"mergePolicy,omitempty" envconfig:"MERGE_POLICY" validate:"omitempty,oneof=replace union"`
}

// Config represents the application configuration
type Config struct {
	Store          string   `yaml:"store" envconfig:"STORE" validate:"required,oneof=postgres memory"`
	DatabaseURL    string   `yaml:"databaseURL,omitempty" envconfig:"DATABASE_URL" validate:"required_if=Store postgres"`
	ServerAddress  string   `yaml:"serverAddress,omitempty" envconfig:"SERVER_ADDRESS"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty" envconfig:"ALLOWED_ORIGINS" validate:"dive,required"`

	// Redis is optional; patterns are read straight from the store when RedisAddress is empty
	RedisAddress           string `yaml:"redisAddress,omitempty" envconfig:"REDIS_ADDRESS" validate:"omitempty,hostname_port"`
	RedisPassword          string `yaml:"redisPassword,omitempty" envconfig:"REDIS_PASSWORD"`
	PatternCacheTTLSeconds int    `yaml:"patternCacheTTLSeconds,omitempty" envconfig:"PATTERN_CACHE_TTL_SECONDS" validate:"min=0"`

	Patterns PatternsConfig `yaml:"patterns,omitempty" envconfig:"PATTERNS"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// MergePolicy returns the configured pattern merge policy
func (c *Config) MergePolicy() patterns.Policy {
	policy, err := patterns.ParsePolicy(c.Patterns.MergePolicy)
	if err != nil {
		return patterns.PolicyReplace
	}
	return policy
}

// PatternCacheTTL returns how long cached patterns stay valid
func (c *Config) PatternCacheTTL() time.Duration {
	return time.Duration(c.PatternCacheTTLSeconds) * time.Second
}

// Load loads the configuration from timegrid_config.yaml
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration for an environment.
// timegrid_config.<env>.yaml is preferred over timegrid_config.yaml; each is looked
// for in the current directory first, then in the user's home directory.
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads the configuration from a specific path, applies TIMEGRID_*
// environment overrides and defaults, then validates it
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.ServerAddress == "" {
		cfg.ServerAddress = defaultServerAddress
	}
	if cfg.RedisAddress != "" && cfg.PatternCacheTTLSeconds == 0 {
		cfg.PatternCacheTTLSeconds = defaultPatternCacheTTL
	}
}

// findConfigFile searches for the environment's config file, then the shared one,
// in the current directory and the home directory
func findConfigFile(env string) (string, error) {
	names := []string{"timegrid_config.yaml"}
	if env != "" {
		names = append([]string{fmt.Sprintf("timegrid_config.%s.yaml", env)}, names...)
	}

	homeDir, homeErr := os.UserHomeDir()

	for _, name := range names {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
		if homeErr == nil {
			homeConfigPath := filepath.Join(homeDir, name)
			if _, err := os.Stat(homeConfigPath); err == nil {
				return homeConfigPath, nil
			}
		}
	}

	return "", fmt.Errorf("none of %v found in current directory or home directory", names)
}
