package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Default()
	cfg.Backends = []BackendConfig{
		{ID: "openrouter/gpt-4o-mini", Family: "openrouter", Model: "openai/gpt-4o-mini", Credentials: []string{"sk-1"}},
	}
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, 2.0, cfg.Retry.BaseDelaySeconds)
	assert.Equal(t, 0.5, cfg.Retry.InterRequestDelaySeconds)
	assert.True(t, cfg.Retry.BackoffEnabled)
	assert.Equal(t, 0.70, cfg.Consensus.ConfidenceThreshold)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specparam.yaml")
	content := `
retry:
  max_retries: 5
  inter_request_delay_seconds: 0
backends:
  - id: gemini/flash
    family: gemini
    model: gemini-2.5-flash
    credentials: [key-a, key-b]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, 0.0, cfg.Retry.InterRequestDelaySeconds)
	// Unset fields keep defaults.
	assert.Equal(t, 2.0, cfg.Retry.BaseDelaySeconds)
	assert.True(t, cfg.Retry.BackoffEnabled)
	require.Len(t, cfg.Backends, 1)
	assert.Equal(t, []string{"key-a", "key-b"}, cfg.Backends[0].Credentials)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative retries", func(c *Config) { c.Retry.MaxRetries = -1 }, "retry.max_retries"},
		{"zero base delay", func(c *Config) { c.Retry.BaseDelaySeconds = 0 }, "retry.base_delay_seconds"},
		{"negative inter-request delay", func(c *Config) { c.Retry.InterRequestDelaySeconds = -1 }, "retry.inter_request_delay_seconds"},
		{"threshold above one", func(c *Config) { c.Consensus.ConfidenceThreshold = 1.5 }, "consensus.confidence_threshold"},
		{"no backends", func(c *Config) { c.Backends = nil }, "backends"},
		{"empty backend id", func(c *Config) { c.Backends[0].ID = "" }, "backends[0].id"},
		{"empty family", func(c *Config) { c.Backends[0].Family = "" }, "backends[0].family"},
		{"empty credential pool", func(c *Config) { c.Backends[0].Credentials = nil }, "backends[0].credentials"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var cerr *ConfigurationError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tc.field, cerr.Field)
		})
	}

	assert.NoError(t, validConfig().Validate())
}

func TestValidate_DuplicateBackendID(t *testing.T) {
	cfg := validConfig()
	cfg.Backends = append(cfg.Backends, cfg.Backends[0])
	err := cfg.Validate()
	require.Error(t, err)
}

func TestResolveCredentials_EnvFallback(t *testing.T) {
	t.Setenv("SPECPARAM_TEST_KEY", "env-0")
	t.Setenv("SPECPARAM_TEST_KEY_1", "env-1")
	t.Setenv("SPECPARAM_TEST_KEY_2", "env-2")

	b := BackendConfig{CredentialsEnv: "SPECPARAM_TEST_KEY"}
	assert.Equal(t, []string{"env-0", "env-1", "env-2"}, b.ResolveCredentials())

	// Inline credentials take priority over the environment.
	b.Credentials = []string{"inline"}
	assert.Equal(t, []string{"inline"}, b.ResolveCredentials())
}

func TestRetryPolicy_Conversion(t *testing.T) {
	cfg := Default()
	p := cfg.RetryPolicy()
	assert.Equal(t, 3, p.MaxRetries)
	assert.Equal(t, 2*time.Second, p.BaseDelay)
	assert.Equal(t, 60*time.Second, p.MaxDelay)
	assert.Equal(t, 500*time.Millisecond, p.InterRequestDelay)
	assert.True(t, p.BackoffEnabled)
}

func TestDetect_OpenRouterRoster(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-or")
	t.Setenv("GEMINI_API_KEY", "")

	cfg := Detect()
	require.NotEmpty(t, cfg.Backends)
	for _, b := range cfg.Backends {
		assert.Equal(t, "openrouter", b.Family)
		assert.Equal(t, []string{"sk-or"}, b.Credentials)
	}
	assert.NoError(t, cfg.Validate())
}
