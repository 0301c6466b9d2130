package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for loyalty-engine.
// Configuration comes from config.yaml with environment variable
// overrides. Secrets (API keys, passwords) must only come from
// environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"5001"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// DefaultClientID is used when a request does not carry a client_id.
	DefaultClientID int `yaml:"default_client_id" env:"DEFAULT_CLIENT_ID" env-default:"5252"`

	// SchemaDir is the directory holding per-table YAML schema files.
	SchemaDir string `yaml:"schema_dir" env:"SCHEMA_DIR" env-default:"schema"`

	LLM      LLMConfig      `yaml:"llm"`
	Workflow WorkflowConfig `yaml:"workflow"`
	Query    QueryConfig    `yaml:"query"`
	Redis    RedisConfig    `yaml:"redis"`
}

// LLMConfig holds model endpoint configuration.
type LLMConfig struct {
	// Provider selects the client implementation: "openai" or "anthropic".
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`

	// Endpoint is the base URL for OpenAI-compatible endpoints.
	// Leave empty for the provider default.
	Endpoint string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`

	// Model answers the main workflow prompts.
	Model string `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o-mini"`

	// PlannerModel answers cheap routing prompts (table selection,
	// decision making). Falls back to Model when empty.
	PlannerModel string `yaml:"planner_model" env:"LLM_PLANNER_MODEL" env-default:""`

	// APIKey is the provider API key. Secret - not in YAML.
	APIKey string `yaml:"-" env:"LLM_API_KEY"`

	// TimeoutSeconds bounds each model call.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"LLM_TIMEOUT_SECONDS" env-default:"60"`
}

// WorkflowConfig holds workflow supervision settings.
type WorkflowConfig struct {
	// MaxRetries is the per-step retry ceiling. A step is invoked at most
	// MaxRetries+1 times before the workflow escalates to a terminal error.
	MaxRetries int `yaml:"max_retries" env:"WORKFLOW_MAX_RETRIES" env-default:"3"`

	// UsePlanner enables model-driven plan generation. When disabled (or
	// when planning fails) the fixed default plan is executed.
	UsePlanner bool `yaml:"use_planner" env:"WORKFLOW_USE_PLANNER" env-default:"true"`
}

// QueryConfig holds query execution backend settings.
type QueryConfig struct {
	// Backend selects the executor: "http" (the query API) or "postgres".
	Backend string `yaml:"backend" env:"QUERY_BACKEND" env-default:"http"`

	// BaseURL is the query API base URL for the http backend.
	BaseURL string `yaml:"base_url" env:"QUERY_BASE_URL" env-default:"http://localhost:4000"`

	// TimeoutSeconds bounds each query execution call.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"QUERY_TIMEOUT_SECONDS" env-default:"30"`

	// Postgres settings for the postgres backend.
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds settings for the direct Postgres executor.
type PostgresConfig struct {
	Host     string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User     string `yaml:"user" env:"PGUSER" env-default:"loyalty"`
	Password string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"PGDATABASE" env-default:"loyalty"`
	SSLMode  string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConns int32  `yaml:"max_conns" env:"PGMAX_CONNS" env-default:"10"`
}

// ConnectionString returns a PostgreSQL connection string.
func (c *PostgresConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig holds the optional Redis-backed chat history settings.
// When Enabled is false the in-memory store is used.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`

	// SessionTTLHours expires idle sessions after this many hours.
	// 0 (the default) keeps sessions forever.
	SessionTTLHours int `yaml:"session_ttl_hours" env:"REDIS_SESSION_TTL_HOURS" env-default:"0"`
}

// Addr returns the host:port address for the Redis client.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}

	switch c.Query.Backend {
	case "http", "postgres":
	default:
		return fmt.Errorf("unknown query backend %q", c.Query.Backend)
	}

	if c.Workflow.MaxRetries < 0 {
		return fmt.Errorf("workflow max_retries must be >= 0")
	}

	return nil
}
