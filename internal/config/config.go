package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		// Backend is "file" (default), "redis", or "postgres".
		Backend string `yaml:"backend"`
		File    struct {
			Path string `yaml:"path"`
		} `yaml:"file"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Questions struct {
		Path string `yaml:"path"`
		TTL  string `yaml:"ttl"`
	} `yaml:"questions"`
	Auth struct {
		// PlaintextCredentials switches off hashing, matching the legacy store.
		PlaintextCredentials bool `yaml:"plaintext_credentials"`
		// UniformLoginErrors hides whether a username exists on failed login.
		UniformLoginErrors bool `yaml:"uniform_login_errors"`
	} `yaml:"auth"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
