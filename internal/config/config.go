// Package config loads multimodal-chat settings from defaults, an optional config file and MMCHAT_* environment
// variables. The provider credential is deliberately not part of it.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. server.addr is read from MMCHAT_SERVER_ADDR
const EnvPrefix = "MMCHAT"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Session   SessionConfig   `mapstructure:"session"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Resolver  ResolverConfig  `mapstructure:"resolver"`
	Models    ModelsConfig    `mapstructure:"models"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	MaxSessions   int           `mapstructure:"max_sessions"` // 0 means unbounded
}

// RateLimitConfig bounds provider requests per browser session. PerMinute 0 disables the limit.
type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
	Burst     int `mapstructure:"burst"`
}

type ProviderConfig struct {
	BaseURL   string        `mapstructure:"base_url"`  // Empty uses the SDK default
	MaxTokens int64         `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"` // 0 leaves timing to the provider
}

type ResolverConfig struct {
	Probe bool `mapstructure:"probe"` // Confirm candidates with a one-token generation
}

// ModelsConfig overrides the built-in candidate lists. Empty lists keep the built-in ones.
type ModelsConfig struct {
	Text   []string `mapstructure:"text"`
	Vision []string `mapstructure:"vision"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// SetDefaults registers the default of every key. Keys without a default are invisible to AutomaticEnv during
// Unmarshal, so every key is listed here.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_upload_bytes", 10<<20)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("session.ttl", "1h")
	v.SetDefault("session.sweep_interval", "5m")
	v.SetDefault("session.max_sessions", 10000)

	v.SetDefault("ratelimit.per_minute", 20)
	v.SetDefault("ratelimit.burst", 5)

	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.max_tokens", 2048)
	v.SetDefault("provider.timeout", "2m")

	v.SetDefault("resolver.probe", false)

	v.SetDefault("models.text", []string{})
	v.SetDefault("models.vision", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "http://localhost:4318/v1/traces")
}

// Load reads configuration into a Config. If configFile is empty, a file named mmchat.{yaml,json,toml} in the
// working directory is used when present.
func Load(v *viper.Viper, configFile string) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("mmchat")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be positive"))
	}
	if c.Session.TTL < 0 {
		errs = append(errs, errors.New("session.ttl must not be negative"))
	}
	if c.Session.SweepInterval <= 0 {
		errs = append(errs, errors.New("session.sweep_interval must be positive"))
	}
	if c.Session.MaxSessions < 0 {
		errs = append(errs, errors.New("session.max_sessions must not be negative"))
	}
	if c.RateLimit.PerMinute < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("ratelimit values must not be negative"))
	}
	if c.Provider.MaxTokens <= 0 {
		errs = append(errs, errors.New("provider.max_tokens must be positive"))
	}
	if c.Provider.Timeout < 0 {
		errs = append(errs, errors.New("provider.timeout must not be negative"))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		errs = append(errs, errors.New("telemetry.endpoint is required when telemetry is enabled"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
