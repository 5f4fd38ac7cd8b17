package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// CachePath is the catalog cache location (a JSON file, or a bolt database).
	CachePath string `koanf:"cache_path" validate:"required"`

	// CacheBackend selects the cache store implementation.
	CacheBackend string `koanf:"cache_backend" validate:"required,oneof=json bolt"`

	// CacheTTL is how long an ingested catalog stays fresh.
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"gte=0"`

	// ForceReload re-ingests the source on every refresh check regardless of age.
	ForceReload bool `koanf:"force_reload"`

	// SourceURL is the public suffix list location (http, https or file).
	SourceURL string `koanf:"source_url" validate:"required,source_url"`

	// SourceTimeout bounds a single fetch of SourceURL.
	SourceTimeout time.Duration `koanf:"source_timeout" validate:"gt=0"`

	// SupplementalPath optionally replaces the bundled supplemental suffix list (json, yaml or toml).
	SupplementalPath string `koanf:"supplemental_path"`

	// ThrowErrors returns parse failures as errors instead of capturing them in the result.
	ThrowErrors bool `koanf:"throw_errors"`

	// DefaultSuffix is assigned to inputs that match no suffix.
	DefaultSuffix string `koanf:"default_suffix" validate:"omitempty,hostname_rfc1123"`

	// ResultCacheSize bounds the parse result memo; 0 disables it.
	ResultCacheSize int `koanf:"result_cache_size" validate:"gte=0"`

	// OutputFormat is the CLI rendering: "text" or "json".
	OutputFormat string `koanf:"output_format" validate:"required,oneof=text json"`

	// HTTPAddr is the daemon listen address.
	HTTPAddr string `koanf:"http_addr" validate:"required,hostname_port"`

	// RefreshInterval is how often the daemon checks the catalog for staleness; 0 disables the loop.
	RefreshInterval time.Duration `koanf:"refresh_interval" validate:"gte=0"`
}

// DEFAULT_APP_CONFIG defines the default application configuration.
// The TTL of five days and the ".com" fallback suffix follow the historical defaults.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:             "prod",
	LogLevel:        "info",
	CachePath:       "/var/lib/domainparser/tlds.json",
	CacheBackend:    "json",
	CacheTTL:        432000 * time.Second,
	ForceReload:     false,
	SourceURL:       "https://publicsuffix.org/list/public_suffix_list.dat",
	SourceTimeout:   30 * time.Second,
	ThrowErrors:     false,
	DefaultSuffix:   "com",
	ResultCacheSize: 10000,
	OutputFormat:    "text",
	HTTPAddr:        "127.0.0.1:8053",
	RefreshInterval: time.Hour,
}

// validSourceURL accepts absolute http, https and file URLs.
func validSourceURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https":
		return u.Host != ""
	case "file":
		return u.Path != ""
	default:
		return false
	}
}

// envLoader loads environment variables with the prefix "DOMAINPARSER_",
// lower-casing keys and stripping the prefix. It can be replaced in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "DOMAINPARSER_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "DOMAINPARSER_"))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the custom "source_url" tag.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("source_url", validSourceURL)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	err = registerValidation(validate)
	if err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	err = validate.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
