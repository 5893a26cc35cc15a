package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the order analytics service configuration.
type Config struct {
	// Redis
	RedisURL      string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	StreamKey     string `env:"STREAM_KEY" envDefault:"order-events"`
	ConsumerGroup string `env:"CONSUMER_GROUP" envDefault:"analytics-service"`

	// HTTP
	HTTPPort         int `env:"HTTP_PORT" envDefault:"8091"`
	RequestTimeoutMS int `env:"REQUEST_TIMEOUT_MS" envDefault:"5000"`

	// Aggregation (parsed as seconds)
	DedupTTLSec     int `env:"DEDUP_TTL_SEC" envDefault:"86400"`
	PushIntervalSec int `env:"PUSH_INTERVAL_SEC" envDefault:"5"`

	// Computed durations (not from env)
	RequestTimeout time.Duration `env:"-"`
	DedupTTL       time.Duration `env:"-"`
	PushInterval   time.Duration `env:"-"`

	// Observability
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	PrometheusPort int    `env:"PROMETHEUS_PORT" envDefault:"9091"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutMS) * time.Millisecond
	cfg.DedupTTL = time.Duration(cfg.DedupTTLSec) * time.Second
	cfg.PushInterval = time.Duration(cfg.PushIntervalSec) * time.Second

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.StreamKey == "" {
		return fmt.Errorf("stream key must not be empty")
	}

	if c.ConsumerGroup == "" {
		return fmt.Errorf("consumer group must not be empty")
	}

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	if c.PrometheusPort <= 0 || c.PrometheusPort > 65535 {
		return fmt.Errorf("invalid prometheus port: %d", c.PrometheusPort)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	if c.DedupTTL < time.Second {
		return fmt.Errorf("dedup TTL must be at least 1 second")
	}

	if c.PushInterval < time.Second {
		return fmt.Errorf("push interval must be at least 1 second")
	}

	if c.RequestTimeout < 100*time.Millisecond {
		return fmt.Errorf("request timeout must be at least 100ms")
	}

	return nil
}
