package config

import (
	"fmt"
	"os"

	"classroom-backend/internal/env"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file and expands environment variables. An empty
// path yields an empty Config.
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	return &cfg, nil
}

// LoadAndValidate loads config, applies environment overrides and defaults,
// and validates the result.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v := env.Get(key); v != "" {
			*dst = v
		}
	}

	override(&c.Server.ListenAddr, env.ListenAddr)
	override(&c.Server.WebsocketPath, env.WebsocketPath)
	override(&c.Identity.Mode, env.IdentityMode)
	override(&c.Identity.JWTSecret, env.IdentityJWTKey)
	override(&c.Identity.RedisAddr, env.IdentityRedisURL)
	override(&c.Identity.RedisPassword, env.IdentityRedisPwd)
}
