package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the server needs at startup. Values come from an
// optional YAML file (CONFIG_FILE) with environment variables taking
// precedence.
type Config struct {
	ListenAddr  string        `yaml:"listen_addr"`
	DatabaseURL string        `yaml:"database_url"`
	BackendURL  string        `yaml:"backend_url"`
	JWTSecret   string        `yaml:"jwt_secret"`
	JWTIssuer   string        `yaml:"jwt_issuer"`
	JWTAudience string        `yaml:"jwt_audience"`
	JWTExpiry   time.Duration `yaml:"jwt_expiry"`
}

// Load builds the configuration from file and environment.
func Load() (*Config, error) {
	config := &Config{
		ListenAddr:  ":8080",
		BackendURL:  "http://localhost:8000",
		JWTSecret:   "your-secret-key-change-in-production",
		JWTIssuer:   "itbuddy-api",
		JWTAudience: "itbuddy-api",
		JWTExpiry:   24 * time.Hour,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	config.ListenAddr = getEnv("LISTEN_ADDR", config.ListenAddr)
	config.DatabaseURL = getEnv("DB_DSN", config.DatabaseURL)
	config.BackendURL = getEnv("BACKEND_URL", config.BackendURL)
	config.JWTSecret = getEnv("JWT_SECRET", config.JWTSecret)
	config.JWTIssuer = getEnv("JWT_ISS", config.JWTIssuer)
	config.JWTAudience = getEnv("JWT_AUD", config.JWTAudience)

	if expiryStr := os.Getenv("JWT_EXPIRY"); expiryStr != "" {
		expiry, err := time.ParseDuration(expiryStr)
		if err != nil {
			return nil, fmt.Errorf("parse JWT_EXPIRY: %w", err)
		}
		config.JWTExpiry = expiry
	}

	return config, nil
}

// LoadAndValidate loads the configuration and rejects unusable values.
func LoadAndValidate() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DB_DSN (or database_url) is required")
	}
	if cfg.JWTExpiry <= 0 {
		return nil, errors.New("JWT expiry must be positive")
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
