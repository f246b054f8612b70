package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DEEPL_API_KEY", "")

	cfg, err := LoadConfig(writeConfig(t, "log:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Router.StopOnFirstSuccess)
	assert.True(t, cfg.Router.SkipOnMissingCredentials)
	assert.Equal(t, "auto", cfg.Router.SourceLanguage)
	require.Len(t, cfg.Router.Providers, 4)
	assert.Equal(t, "deepl", cfg.Router.Providers[0].Name)
	assert.Equal(t, 1, cfg.Router.Providers[0].Priority)
	assert.Equal(t, 4, cfg.Router.Providers[3].Priority)
	assert.Equal(t, 30*time.Second, cfg.Router.Providers[0].Timeout)
	assert.NoError(t, cfg.Router.Validate())
}

func TestLoadConfig_ProviderSections(t *testing.T) {
	path := writeConfig(t, `
router:
  stop_on_first_success: false
  providers:
    - name: google
      priority: 1
      batch_size: 100
      timeout: 5s
      max_retries: 0
      retry_initial_delay: 100ms
      retry_max_delay: 2s
      backoff_multiplier: 1.5
      preferred_languages: [ja, zh]
    - name: libre
      enabled: false
      priority: 2
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Len(t, cfg.Router.Providers, 2)
	g := cfg.Router.Providers[0]
	assert.True(t, g.Enabled)
	assert.Equal(t, "google", g.Kind())
	assert.Equal(t, 100, g.BatchSize)
	assert.Equal(t, 0, g.MaxRetries)
	assert.Equal(t, 5*time.Second, g.Timeout)
	assert.Equal(t, 1.5, g.BackoffMultiplier)
	assert.Equal(t, []string{"ja", "zh"}, g.PreferredLanguages)
	assert.False(t, cfg.Router.Providers[1].Enabled)
	assert.False(t, cfg.Router.StopOnFirstSuccess)
}

func TestLoadConfig_APIKeyResolution(t *testing.T) {
	t.Setenv("MY_DEEPL_KEY", "from-indirection")
	t.Setenv("GOOGLE_TRANSLATE_API_KEY", "from-env")

	path := writeConfig(t, `
router:
  providers:
    - name: deepl
      api_key: "ENV:MY_DEEPL_KEY"
    - name: google
      api_key: "from-document"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-indirection", cfg.Router.Providers[0].APIKey)
	assert.Equal(t, "from-env", cfg.Router.Providers[1].APIKey, "environment wins over the document")
}

func TestResolveCredentials_CustomEnv(t *testing.T) {
	r := RouterConfig{Providers: []ProviderConfig{
		{Name: "deepl-pro", Type: "deepl", CredentialEnv: "DEEPL_PRO_KEY", APIKey: "doc"},
		{Name: "openai", APIKey: "doc"},
	}}
	env := map[string]string{"DEEPL_PRO_KEY": " pro ", "OPENAI_API_KEY": "  "}
	r.ResolveCredentials(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "pro", r.Providers[0].APIKey)
	assert.Equal(t, "doc", r.Providers[1].APIKey, "blank env values are ignored")
}

func TestValidate(t *testing.T) {
	valid := DefaultProviderConfig("deepl")

	tests := []struct {
		name   string
		mutate func(p *ProviderConfig)
		field  string
	}{
		{"priority below one", func(p *ProviderConfig) { p.Priority = 0 }, "priority"},
		{"zero timeout", func(p *ProviderConfig) { p.Timeout = 0 }, "timeout"},
		{"multiplier below one", func(p *ProviderConfig) { p.BackoffMultiplier = 0.5 }, "backoff_multiplier"},
		{"max delay below initial", func(p *ProviderConfig) { p.RetryMaxDelay = p.RetryInitialDelay / 2 }, "retry_max_delay"},
		{"zero batch", func(p *ProviderConfig) { p.BatchSize = 0 }, "batch_size"},
		{"zero rate", func(p *ProviderConfig) { p.RateLimitPerSecond = 0 }, "rate_limit_per_second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := RouterConfig{Providers: []ProviderConfig{p}}.Validate()
			require.Error(t, err)

			var ce *ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, "deepl", ce.Provider)
			assert.Equal(t, tt.field, ce.Field)
		})
	}

	assert.NoError(t, RouterConfig{Providers: []ProviderConfig{valid}}.Validate())
}

func TestValidate_NoEnabledProviders(t *testing.T) {
	p := DefaultProviderConfig("deepl")
	p.Enabled = false

	err := RouterConfig{Providers: []ProviderConfig{p}}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoProvidersEnabled)
}

func TestValidate_DuplicateNames(t *testing.T) {
	err := RouterConfig{Providers: []ProviderConfig{
		DefaultProviderConfig("deepl"),
		DefaultProviderConfig("deepl"),
	}}.Validate()
	assert.ErrorContains(t, err, "duplicate provider name")
}

func TestPrefersLanguage(t *testing.T) {
	p := ProviderConfig{PreferredLanguages: []string{"ja", "pt-BR"}}

	assert.True(t, p.PrefersLanguage("JA"))
	assert.True(t, p.PrefersLanguage("ja-JP"))
	assert.True(t, p.PrefersLanguage("pt-br"))
	assert.False(t, p.PrefersLanguage("pt-PT"))
	assert.False(t, p.PrefersLanguage("de"))
	assert.False(t, ProviderConfig{}.PrefersLanguage("de"))
}
