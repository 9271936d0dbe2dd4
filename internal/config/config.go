// Package config holds all specparam configuration: the retry policy, the
// consensus threshold, and the backend roster with its credential pools.
// Everything is validated up front; a bad configuration aborts before the
// first dispatch.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"specparam/internal/retry"
)

// ConfigurationError marks a fatal configuration problem. It is never
// retried and is the only error allowed to abort a run.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// Config is the root configuration.
type Config struct {
	Retry     RetryConfig     `yaml:"retry"`
	Consensus ConsensusConfig `yaml:"consensus"`
	Backends  []BackendConfig `yaml:"backends"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// RetryConfig configures the dispatch retry policy.
type RetryConfig struct {
	MaxRetries               int     `yaml:"max_retries"`
	BaseDelaySeconds         float64 `yaml:"base_delay_seconds"`
	MaxDelaySeconds          float64 `yaml:"max_delay_seconds"`
	InterRequestDelaySeconds float64 `yaml:"inter_request_delay_seconds"`
	BackoffEnabled           bool    `yaml:"backoff_enabled"`
}

// ConsensusConfig configures reconciliation.
type ConsensusConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// BackendConfig describes one roster entry.
type BackendConfig struct {
	ID      string `yaml:"id"`
	Family  string `yaml:"family"` // openrouter, gemini
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url,omitempty"`

	// Credentials listed inline take priority; otherwise they are loaded
	// from CredentialsEnv (and CredentialsEnv_1, _2, ... for pools).
	Credentials    []string `yaml:"credentials,omitempty"`
	CredentialsEnv string   `yaml:"credentials_env,omitempty"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// Default returns the standard configuration with an empty roster.
func Default() Config {
	return Config{
		Retry: RetryConfig{
			MaxRetries:               3,
			BaseDelaySeconds:         2,
			MaxDelaySeconds:          60,
			InterRequestDelaySeconds: 0.5,
			BackoffEnabled:           true,
		},
		Consensus: ConsensusConfig{
			ConfidenceThreshold: 0.70,
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Detect builds a roster from environment variables when no config file is
// given. OPENROUTER_API_KEY yields the default OpenRouter roster and
// GEMINI_API_KEY adds a Gemini backend.
func Detect() Config {
	cfg := Default()

	if keys := credentialsFromEnv("OPENROUTER_API_KEY"); len(keys) > 0 {
		for _, model := range defaultOpenRouterModels {
			cfg.Backends = append(cfg.Backends, BackendConfig{
				ID:          "openrouter/" + model,
				Family:      "openrouter",
				Model:       model,
				Credentials: keys,
			})
		}
	}
	if keys := credentialsFromEnv("GEMINI_API_KEY"); len(keys) > 0 {
		cfg.Backends = append(cfg.Backends, BackendConfig{
			ID:          "gemini/gemini-2.5-flash",
			Family:      "gemini",
			Model:       "gemini-2.5-flash",
			Credentials: keys,
		})
	}
	return cfg
}

// defaultOpenRouterModels is the stock roster used when backends are not
// configured explicitly. Independent model families deliberately mixed so
// consensus reflects genuine disagreement.
var defaultOpenRouterModels = []string{
	"openai/gpt-4o-mini",
	"anthropic/claude-3-haiku",
	"google/gemini-2.5-flash",
	"meta-llama/llama-3.1-70b-instruct",
	"mistralai/ministral-14b-2512",
}

// ResolveCredentials returns the credential pool for one backend, consulting
// the environment when the file lists none.
func (b BackendConfig) ResolveCredentials() []string {
	if len(b.Credentials) > 0 {
		return b.Credentials
	}
	if b.CredentialsEnv != "" {
		return credentialsFromEnv(b.CredentialsEnv)
	}
	return nil
}

// credentialsFromEnv loads NAME plus NAME_1, NAME_2, ... into a pool.
func credentialsFromEnv(name string) []string {
	var keys []string
	if key := os.Getenv(name); key != "" {
		keys = append(keys, key)
	}
	for i := 1; ; i++ {
		key := os.Getenv(fmt.Sprintf("%s_%d", name, i))
		if key == "" {
			break
		}
		keys = append(keys, key)
	}
	return keys
}

// RetryPolicy converts the retry section into a policy instance.
func (c Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxRetries:        c.Retry.MaxRetries,
		BaseDelay:         secondsToDuration(c.Retry.BaseDelaySeconds),
		MaxDelay:          secondsToDuration(c.Retry.MaxDelaySeconds),
		InterRequestDelay: secondsToDuration(c.Retry.InterRequestDelaySeconds),
		BackoffEnabled:    c.Retry.BackoffEnabled,
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Validate checks every recognized option. The returned error is always a
// *ConfigurationError naming the offending field.
func (c Config) Validate() error {
	if c.Retry.MaxRetries < 0 {
		return &ConfigurationError{Field: "retry.max_retries", Reason: "must be >= 0"}
	}
	if c.Retry.BaseDelaySeconds <= 0 {
		return &ConfigurationError{Field: "retry.base_delay_seconds", Reason: "must be > 0"}
	}
	if c.Retry.InterRequestDelaySeconds < 0 {
		return &ConfigurationError{Field: "retry.inter_request_delay_seconds", Reason: "must be >= 0"}
	}
	if t := c.Consensus.ConfidenceThreshold; t < 0 || t > 1 {
		return &ConfigurationError{Field: "consensus.confidence_threshold", Reason: "must be in [0, 1]"}
	}
	if len(c.Backends) == 0 {
		return &ConfigurationError{Field: "backends", Reason: "at least one backend is required"}
	}

	seen := make(map[string]bool)
	for i, b := range c.Backends {
		field := fmt.Sprintf("backends[%d]", i)
		if b.ID == "" {
			return &ConfigurationError{Field: field + ".id", Reason: "must not be empty"}
		}
		if seen[b.ID] {
			return &ConfigurationError{Field: field + ".id", Reason: fmt.Sprintf("duplicate backend id %q", b.ID)}
		}
		seen[b.ID] = true
		if b.Family == "" {
			return &ConfigurationError{Field: field + ".family", Reason: "must not be empty"}
		}
		if len(b.ResolveCredentials()) == 0 {
			return &ConfigurationError{Field: field + ".credentials", Reason: "credential pool is empty"}
		}
	}
	return nil
}
