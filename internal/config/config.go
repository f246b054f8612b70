package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Router  RouterConfig  `mapstructure:"router"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Store   StoreConfig   `mapstructure:"store"`
	Server  ServerConfig  `mapstructure:"server"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RouterConfig aggregates one ProviderConfig per known provider plus the
// router-level switches.
type RouterConfig struct {
	SkipOnMissingCredentials bool   `mapstructure:"skip_on_missing_credentials"`
	StopOnFirstSuccess       bool   `mapstructure:"stop_on_first_success"`
	LogFallbackEvents        bool   `mapstructure:"log_fallback_events"`
	SourceLanguage           string `mapstructure:"source_language"`
	MaxConcurrentChunks      int    `mapstructure:"max_concurrent_chunks" validate:"gte=0"`

	Providers []ProviderConfig `mapstructure:"providers" validate:"dive"`
}

// ProviderConfig holds the settings of one translation backend.
type ProviderConfig struct {
	// Name identifies the provider instance; Type selects the implementation
	// and defaults to Name.
	Name    string `mapstructure:"name" validate:"required"`
	Type    string `mapstructure:"type"`
	Enabled bool   `mapstructure:"enabled"`

	Priority int `mapstructure:"priority" validate:"gte=1"`

	APIKey        string            `mapstructure:"api_key"`
	CredentialEnv string            `mapstructure:"credential_env"`
	BaseURL       string            `mapstructure:"base_url"`
	Model         string            `mapstructure:"model"`
	Options       map[string]string `mapstructure:"options"`

	Timeout            time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries         int           `mapstructure:"max_retries" validate:"gte=0"`
	BatchSize          int           `mapstructure:"batch_size" validate:"gt=0"`
	RateLimitPerSecond int           `mapstructure:"rate_limit_per_second" validate:"gt=0"`
	RetryInitialDelay  time.Duration `mapstructure:"retry_initial_delay" validate:"gte=0"`
	RetryMaxDelay      time.Duration `mapstructure:"retry_max_delay" validate:"gtefield=RetryInitialDelay"`
	BackoffMultiplier  float64       `mapstructure:"backoff_multiplier" validate:"gte=1"`

	PreferredLanguages []string `mapstructure:"preferred_languages"`
}

type CacheConfig struct {
	Size  int         `mapstructure:"size"`
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Prefix   string        `mapstructure:"prefix"`
}

type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

type ServerConfig struct {
	Port              string  `mapstructure:"port"`
	Env               string  `mapstructure:"env"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	// APIKeys are the bearer tokens accepted on /v1. Empty disables auth.
	APIKeys []string `mapstructure:"api_keys"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// credentialEnv maps provider types to the environment variable carrying
// their key. Environment values win over the document.
var credentialEnv = map[string]string{
	"deepl":  "DEEPL_API_KEY",
	"google": "GOOGLE_TRANSLATE_API_KEY",
	"libre":  "LIBRETRANSLATE_API_KEY",
	"openai": "OPENAI_API_KEY",
}

// defaultPriority orders the built-in providers when the document omits a priority.
var defaultPriority = map[string]int{
	"deepl":  1,
	"google": 2,
	"libre":  3,
	"openai": 4,
}

// DefaultProviderConfig returns the baseline settings for a provider type.
func DefaultProviderConfig(name string) ProviderConfig {
	p := ProviderConfig{
		Name:               name,
		Type:               name,
		Enabled:            true,
		Priority:           defaultPriority[name],
		Timeout:            30 * time.Second,
		MaxRetries:         3,
		BatchSize:          50,
		RateLimitPerSecond: 5,
		RetryInitialDelay:  500 * time.Millisecond,
		RetryMaxDelay:      10 * time.Second,
		BackoffMultiplier:  2.0,
	}
	if p.Priority == 0 {
		p.Priority = 1
	}
	return p
}

// DefaultRouterConfig returns router switches with their documented defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		SkipOnMissingCredentials: true,
		StopOnFirstSuccess:       true,
		LogFallbackEvents:        true,
		SourceLanguage:           "auto",
		MaxConcurrentChunks:      4,
	}
}

// LoadConfig reads configuration from file or environment variables. An
// explicit path takes precedence over CONFIG_FILE and the search paths.
func LoadConfig(path string) (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	v := viper.New()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if !v.IsSet("router.providers") {
		for _, name := range []string{"deepl", "google", "libre", "openai"} {
			cfg.Router.Providers = append(cfg.Router.Providers, ProviderConfig{Name: name})
		}
	}
	for i := range cfg.Router.Providers {
		cfg.Router.Providers[i] = withDefaults(cfg.Router.Providers[i], v, i)
	}
	cfg.Router.ResolveCredentials(os.LookupEnv)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	r := DefaultRouterConfig()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("router.skip_on_missing_credentials", r.SkipOnMissingCredentials)
	v.SetDefault("router.stop_on_first_success", r.StopOnFirstSuccess)
	v.SetDefault("router.log_fallback_events", r.LogFallbackEvents)
	v.SetDefault("router.source_language", r.SourceLanguage)
	v.SetDefault("router.max_concurrent_chunks", r.MaxConcurrentChunks)
	v.SetDefault("cache.size", 10000)
	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.ttl", "168h")
	v.SetDefault("cache.redis.prefix", "translation:")
	v.SetDefault("store.enabled", false)
	v.SetDefault("store.dsn", "file:translator.db?cache=shared&_journal_mode=WAL&_busy_timeout=5000")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.requests_per_second", 10.0)
	v.SetDefault("server.burst", 20)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "translation-router")
}

// withDefaults fills zero-valued fields of a provider section. Fields that
// are absent from a YAML list element cannot be told apart from explicit
// zeroes, so `enabled` and `max_retries` are only defaulted when the key is
// missing.
func withDefaults(p ProviderConfig, v *viper.Viper, idx int) ProviderConfig {
	if p.Type == "" {
		p.Type = p.Name
	}
	d := DefaultProviderConfig(p.Type)

	if !providerKeySet(v, idx, "enabled") {
		p.Enabled = true
	}
	if p.Priority == 0 {
		p.Priority = d.Priority
	}
	if p.Timeout == 0 {
		p.Timeout = d.Timeout
	}
	if !providerKeySet(v, idx, "max_retries") {
		p.MaxRetries = d.MaxRetries
	}
	if p.BatchSize == 0 {
		p.BatchSize = d.BatchSize
	}
	if p.RateLimitPerSecond == 0 {
		p.RateLimitPerSecond = d.RateLimitPerSecond
	}
	if p.RetryInitialDelay == 0 {
		p.RetryInitialDelay = d.RetryInitialDelay
	}
	if p.RetryMaxDelay == 0 {
		p.RetryMaxDelay = d.RetryMaxDelay
	}
	if p.BackoffMultiplier == 0 {
		p.BackoffMultiplier = d.BackoffMultiplier
	}
	return p
}

func providerKeySet(v *viper.Viper, idx int, key string) bool {
	raw, ok := v.Get("router.providers").([]interface{})
	if !ok || idx >= len(raw) {
		return false
	}
	m, ok := raw[idx].(map[string]interface{})
	if !ok {
		return false
	}
	_, set := m[key]
	return set
}

// ResolveCredentials applies `ENV:NAME` indirection and then the
// per-provider credential variable. lookup is usually os.LookupEnv.
func (r *RouterConfig) ResolveCredentials(lookup func(string) (string, bool)) {
	for i := range r.Providers {
		p := &r.Providers[i]
		if strings.HasPrefix(p.APIKey, "ENV:") {
			val, _ := lookup(strings.TrimPrefix(p.APIKey, "ENV:"))
			p.APIKey = val
		}
		envName := p.CredentialEnv
		if envName == "" {
			envName = credentialEnv[p.kind()]
		}
		if envName == "" {
			continue
		}
		if val, ok := lookup(envName); ok && strings.TrimSpace(val) != "" {
			p.APIKey = strings.TrimSpace(val)
		}
	}
}

func (p ProviderConfig) kind() string {
	if p.Type != "" {
		return strings.ToLower(p.Type)
	}
	return strings.ToLower(p.Name)
}

// Kind returns the implementation type of the provider.
func (p ProviderConfig) Kind() string {
	return p.kind()
}

// Option returns a provider option or the fallback when unset.
func (p ProviderConfig) Option(key, fallback string) string {
	if v, ok := p.Options[key]; ok && v != "" {
		return v
	}
	return fallback
}

// PrefersLanguage reports whether lang is one of the provider's preferred
// target languages. Matching ignores case; a preference without a region
// subtag matches every region of that language.
func (p ProviderConfig) PrefersLanguage(lang string) bool {
	want := baseLanguage(lang)
	if want == "" {
		return false
	}
	for _, l := range p.PreferredLanguages {
		if strings.EqualFold(strings.TrimSpace(l), strings.TrimSpace(lang)) {
			return true
		}
		if !strings.ContainsAny(l, "-_") && baseLanguage(l) == want {
			return true
		}
	}
	return false
}

func baseLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i != -1 {
		code = code[:i]
	}
	return code
}
