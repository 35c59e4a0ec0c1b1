// Package config loads and validates application configuration from a YAML
// file plus environment overrides.
package config

import (
	"time"
)

// Config is the umbrella configuration object returned by Initialize() and
// passed by reference into the composition root.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Bus       BusConfig       `yaml:"bus"`
	Conn      ConnConfig      `yaml:"connections"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	LLM       LLMConfig       `yaml:"llm"`
	Costs     CostConfig      `yaml:"costs"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Auth      AuthConfig      `yaml:"auth"`
	Blob      BlobConfig      `yaml:"blob"`
	Retention RetentionConfig `yaml:"retention"`

	// ExampleDocumentIDs is the curated set of documents readable without
	// auth. Conversations on them are demo conversations.
	ExampleDocumentIDs []string `yaml:"example_document_ids"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	HTTPPort         string   `yaml:"http_port"`
	AllowedWSOrigins []string `yaml:"allowed_ws_origins"`
}

// BusConfig holds event bus settings.
type BusConfig struct {
	// HighWaterMark bounds the dispatcher FIFO; emits beyond it fail fast
	// with ErrBusOverflow.
	HighWaterMark int `yaml:"high_water_mark"`
}

// ConnConfig holds per-connection outbound queue settings.
type ConnConfig struct {
	QueueCapacity int           `yaml:"queue_capacity"`
	PutTimeout    time.Duration `yaml:"put_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
}

// SchedulerConfig holds service scheduler settings.
type SchedulerConfig struct {
	// TaskTimeout is the total deadline for a single scheduled task,
	// including any LLM streaming it performs.
	TaskTimeout time.Duration `yaml:"task_timeout"`
	// QueueCapacity bounds the pending task FIFO.
	QueueCapacity int `yaml:"queue_capacity"`
}

// LLMConfig holds model selection and vendor endpoint settings.
// The API key is read from the environment (OPENAI_API_KEY), never from YAML.
type LLMConfig struct {
	BaseURL              string `yaml:"base_url,omitempty"`
	ChatModelDefault     string `yaml:"chat_model_default"`
	ChatModelFullContext string `yaml:"chat_model_full_context"`
}

// CostConfig holds the per-user cost ceiling.
type CostConfig struct {
	Limit float64 `yaml:"limit"`
}

// IngestConfig holds chunking parameters for the ingest collaborator.
type IngestConfig struct {
	MaxChunksPerDoc  int `yaml:"max_chunks_per_doc"`
	DefaultChunkSize int `yaml:"default_chunk_size"`
}

// AuthConfig holds token settings. The signing secret is read from the
// environment (JWT_SECRET).
type AuthConfig struct {
	JWTExpirationHours int    `yaml:"jwt_expiration_hours"`
	GoogleClientID     string `yaml:"google_client_id,omitempty"`
}

// BlobConfig holds object-store settings for original uploaded files.
type BlobConfig struct {
	Bucket     string `yaml:"bucket"`
	Region     string `yaml:"region"`
	Endpoint   string `yaml:"endpoint,omitempty"` // for S3-compatible stores
	PathPrefix string `yaml:"path_prefix,omitempty"`
}

// RetentionConfig holds background cleanup settings. Demo conversations are
// normally purged on disconnect; the sweeper catches sandboxes orphaned by
// crashed connections, plus failed documents nobody will retry.
type RetentionConfig struct {
	DemoConversationTTL time.Duration `yaml:"demo_conversation_ttl"`
	FailedDocumentTTL   time.Duration `yaml:"failed_document_ttl"`
	CleanupInterval     time.Duration `yaml:"cleanup_interval"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: "8080",
		},
		Bus: BusConfig{
			HighWaterMark: 4096,
		},
		Conn: ConnConfig{
			QueueCapacity: 256,
			PutTimeout:    1 * time.Second,
			WriteTimeout:  10 * time.Second,
		},
		Scheduler: SchedulerConfig{
			TaskTimeout:   25 * time.Second,
			QueueCapacity: 1024,
		},
		LLM: LLMConfig{
			ChatModelDefault:     "gpt-4o-mini",
			ChatModelFullContext: "gpt-4o",
		},
		Costs: CostConfig{
			Limit: 0.5,
		},
		Ingest: IngestConfig{
			MaxChunksPerDoc:  100,
			DefaultChunkSize: 2500,
		},
		Auth: AuthConfig{
			JWTExpirationHours: 72,
		},
		Retention: RetentionConfig{
			DemoConversationTTL: 24 * time.Hour,
			FailedDocumentTTL:   24 * time.Hour,
			CleanupInterval:     1 * time.Hour,
		},
	}
}

// IsExampleDocument reports whether a document belongs to the curated set.
func (c *Config) IsExampleDocument(documentID string) bool {
	for _, id := range c.ExampleDocumentIDs {
		if id == documentID {
			return true
		}
	}
	return false
}
