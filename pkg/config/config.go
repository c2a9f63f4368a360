package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultMaxTokens caps each completion request.
const DefaultMaxTokens int64 = 16384

// Config holds all runtime configuration for the agent.
type Config struct {
	Verbose    bool
	SchemaFile string

	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int64

	BigQuery BigQueryConfig
}

// BigQueryConfig carries the service-account credentials for the warehouse.
type BigQueryConfig struct {
	ProjectID    string
	ClientEmail  string
	PrivateKey   string
	PrivateKeyID string
	ClientID     string
	Location     string
}

// DefaultConfig returns a baseline configuration without side effects.
func DefaultConfig() Config {
	return Config{
		Verbose:   false,
		MaxTokens: DefaultMaxTokens,
	}
}

// FromEnv overlays environment values read through getenv onto the defaults.
// A nil getenv reads the process environment.
func FromEnv(getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	env := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}

	cfg := DefaultConfig()
	cfg.Verbose = parseBool(env("AGENT_VERBOSE"))
	cfg.SchemaFile = env("AGENT_SCHEMA_FILE")
	cfg.APIKey = env("OPENAI_API_KEY")
	cfg.BaseURL = env("OPENAI_BASE_URL")
	cfg.Model = env("OPENAI_MODEL")
	if raw := env("OPENAI_MAX_TOKENS"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cfg.MaxTokens = n
		}
	}
	cfg.BigQuery = BigQueryConfig{
		ProjectID:    env("GOOGLE_PROJECT_ID"),
		ClientEmail:  env("GOOGLE_CLIENT_EMAIL"),
		PrivateKey:   getenv("GOOGLE_PRIVATE_KEY"),
		PrivateKeyID: env("GOOGLE_PRIVATE_KEY_ID"),
		ClientID:     env("GOOGLE_CLIENT_ID"),
		Location:     env("BIGQUERY_LOCATION"),
	}
	return Normalize(cfg)
}

// Normalize sanitizes configuration values and applies defaults.
func Normalize(cfg Config) Config {
	cfg.SchemaFile = strings.TrimSpace(cfg.SchemaFile)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	cfg.BigQuery.ProjectID = strings.TrimSpace(cfg.BigQuery.ProjectID)
	cfg.BigQuery.ClientEmail = strings.TrimSpace(cfg.BigQuery.ClientEmail)
	cfg.BigQuery.PrivateKey = NormalizePrivateKey(cfg.BigQuery.PrivateKey)
	cfg.BigQuery.PrivateKeyID = strings.TrimSpace(cfg.BigQuery.PrivateKeyID)
	cfg.BigQuery.ClientID = strings.TrimSpace(cfg.BigQuery.ClientID)
	cfg.BigQuery.Location = strings.TrimSpace(cfg.BigQuery.Location)
	return cfg
}

// NormalizePrivateKey turns escaped "\n" sequences into real newlines so a PEM
// block stored on a single env line parses.
func NormalizePrivateKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.Trim(key, `"`)
	return strings.ReplaceAll(key, `\n`, "\n")
}

// Validate reports every missing required value.
func (c Config) Validate() error {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("OPENAI_API_KEY", c.APIKey)
	check("OPENAI_MODEL", c.Model)
	check("GOOGLE_PROJECT_ID", c.BigQuery.ProjectID)
	check("GOOGLE_CLIENT_EMAIL", c.BigQuery.ClientEmail)
	check("GOOGLE_PRIVATE_KEY", c.BigQuery.PrivateKey)
	check("GOOGLE_PRIVATE_KEY_ID", c.BigQuery.PrivateKeyID)
	check("GOOGLE_CLIENT_ID", c.BigQuery.ClientID)
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMissingValue, strings.Join(missing, ", "))
}

// ErrMissingValue is wrapped by Validate when required settings are absent.
var ErrMissingValue = errors.New("missing required configuration")

func parseBool(value string) bool {
	b, err := strconv.ParseBool(value)
	return err == nil && b
}
