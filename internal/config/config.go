// Package config loads settings from an optional YAML file with environment
// overrides on top. Every field has a usable default; a missing config file
// is not an error.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type StorageConfig struct {
	// Driver selects the persistence backend: "json" (two array files under
	// the data dir) or "sqlite".
	Driver string `yaml:"driver"`
	// Path is the sqlite database file; ignored by the json driver.
	Path string `yaml:"path"`
}

type DigestConfig struct {
	// Times are daily trigger times, "HH:MM" 24-hour, in Timezone.
	Times []string `yaml:"times"`
	// WebhookURL receives the digest; empty disables the scheduler.
	WebhookURL string `yaml:"webhook_url"`
}

type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

type Config struct {
	Listen   string        `yaml:"listen"`
	DataDir  string        `yaml:"data_dir"`
	Storage  StorageConfig `yaml:"storage"`
	Timezone string        `yaml:"timezone"`
	Digest   DigestConfig  `yaml:"digest"`
	LLM      LLMConfig     `yaml:"llm"`
	LogLevel string        `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:   ":3000",
		DataDir:  "data",
		Storage:  StorageConfig{Driver: "json", Path: "pulseboard.db"},
		Timezone: "Europe/London",
		Digest:   DigestConfig{Times: []string{"09:00"}},
		LogLevel: "info",
	}
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist) and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()

	if cfg.Storage.Driver != "json" && cfg.Storage.Driver != "sqlite" {
		return nil, fmt.Errorf("invalid storage driver %q: must be json or sqlite", cfg.Storage.Driver)
	}
	return cfg, nil
}

// applyEnv layers environment variables over the file values. PORT and
// DATA_DIR match the names the original deployment used.
func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Listen = ":" + port
	}
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.Digest.WebhookURL = getEnv("WEBHOOK_URL", c.Digest.WebhookURL)
	c.LLM.APIKey = getEnv("LLM_API_KEY", c.LLM.APIKey)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
