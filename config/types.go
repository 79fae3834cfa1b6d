// Package config loads the netkit configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config is the root configuration for the network layer.
type Config struct {
	Client ClientConfig `koanf:"client" json:"client" yaml:"client" mapstructure:"client"`
	Cache  CacheConfig  `koanf:"cache" json:"cache" yaml:"cache" mapstructure:"cache"`
	Auth   AuthConfig   `koanf:"auth" json:"auth" yaml:"auth" mapstructure:"auth"`
	Log    LogConfig    `koanf:"log" json:"log" yaml:"log" mapstructure:"log"`

	// k retains the backing koanf instance for flexible key access.
	k *koanf.Koanf `json:"-" yaml:"-" mapstructure:"-"`
}

// ClientConfig configures the HTTP client and its retry policy.
type ClientConfig struct {
	BaseURL        string        `koanf:"base_url" json:"base_url" yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	Timeout        time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"min=0"`
	MaxRetries     int           `koanf:"max_retries" json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"min=0,max=10"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay" json:"retry_base_delay" yaml:"retry_base_delay" mapstructure:"retry_base_delay" validate:"min=0"`
	RetryMaxDelay  time.Duration `koanf:"retry_max_delay" json:"retry_max_delay" yaml:"retry_max_delay" mapstructure:"retry_max_delay" validate:"min=0"`
}

// CacheConfig configures the GET response cache. PathTTLs maps a path
// substring to a TTL override for fast-changing endpoints.
type CacheConfig struct {
	TTL        time.Duration            `koanf:"ttl" json:"ttl" yaml:"ttl" mapstructure:"ttl" validate:"min=0"`
	MaxEntries int                      `koanf:"max_entries" json:"max_entries" yaml:"max_entries" mapstructure:"max_entries" validate:"min=0"`
	PathTTLs   map[string]time.Duration `koanf:"path_ttls" json:"path_ttls" yaml:"path_ttls" mapstructure:"path_ttls"`
}

// AuthConfig configures auth-header injection and token refresh.
type AuthConfig struct {
	RefreshPath        string   `koanf:"refresh_path" json:"refresh_path" yaml:"refresh_path" mapstructure:"refresh_path" validate:"required"`
	SkipPaths          []string `koanf:"skip_paths" json:"skip_paths" yaml:"skip_paths" mapstructure:"skip_paths"`
	OrganizationHeader string   `koanf:"organization_header" json:"organization_header" yaml:"organization_header" mapstructure:"organization_header" validate:"required"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty" mapstructure:"pretty"`
}

// String returns an arbitrary key from the backing configuration, for values
// outside the typed sections.
func (c *Config) String(key string) string {
	if c.k == nil {
		return ""
	}
	return c.k.String(key)
}

// Unmarshal decodes a configuration section into out.
func (c *Config) Unmarshal(key string, out any) error {
	if c.k == nil {
		return errNotLoaded
	}
	return c.k.Unmarshal(key, out)
}
