package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Initialize loads configuration from an optional YAML file, applies defaults
// for unset values, then applies environment overrides. This is the primary
// entry point for configuration loading.
func Initialize(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file %s: %w", path, err)
			}
			// Missing file is fine — defaults + env only.
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime behavior.
func (c *Config) Validate() error {
	if c.Bus.HighWaterMark <= 0 {
		return fmt.Errorf("bus.high_water_mark must be positive, got %d", c.Bus.HighWaterMark)
	}
	if c.Conn.QueueCapacity <= 0 {
		return fmt.Errorf("connections.queue_capacity must be positive, got %d", c.Conn.QueueCapacity)
	}
	if c.Scheduler.TaskTimeout <= 0 {
		return fmt.Errorf("scheduler.task_timeout must be positive, got %v", c.Scheduler.TaskTimeout)
	}
	if c.Costs.Limit < 0 {
		return fmt.Errorf("costs.limit must be non-negative, got %v", c.Costs.Limit)
	}
	if c.Ingest.DefaultChunkSize <= 0 {
		return fmt.Errorf("ingest.default_chunk_size must be positive, got %d", c.Ingest.DefaultChunkSize)
	}
	return nil
}

// applyEnvOverrides lets deployment environments override file values without
// editing the YAML. Only scalar knobs that operators commonly tune are mapped.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_PORT"); v != "" {
		cfg.Server.HTTPPort = v
	}
	if v, ok := envFloat("COST_LIMIT"); ok {
		cfg.Costs.Limit = v
	}
	if v, ok := envInt("MAX_CHUNKS_PER_DOC"); ok {
		cfg.Ingest.MaxChunksPerDoc = v
	}
	if v, ok := envInt("DEFAULT_CHUNK_SIZE"); ok {
		cfg.Ingest.DefaultChunkSize = v
	}
	if v, ok := envInt("TASK_TIMEOUT_SECONDS"); ok {
		cfg.Scheduler.TaskTimeout = time.Duration(v) * time.Second
	}
	if v, ok := envInt("PER_CONN_QUEUE_CAPACITY"); ok {
		cfg.Conn.QueueCapacity = v
	}
	if v, ok := envInt("PER_CONN_PUT_TIMEOUT_MS"); ok {
		cfg.Conn.PutTimeout = time.Duration(v) * time.Millisecond
	}
	if v := os.Getenv("CHAT_MODEL_DEFAULT"); v != "" {
		cfg.LLM.ChatModelDefault = v
	}
	if v := os.Getenv("CHAT_MODEL_FULL_CONTEXT"); v != "" {
		cfg.LLM.ChatModelFullContext = v
	}
	if v, ok := envInt("JWT_EXPIRATION_HOURS"); ok {
		cfg.Auth.JWTExpirationHours = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
