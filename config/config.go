package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces the environment variables read by Load. Sections are
// separated by a double underscore so snake_case keys survive the mapping,
// e.g. NETKIT_CLIENT__BASE_URL overrides client.base_url.
const EnvPrefix = "NETKIT_"

// DefaultConfigFile is the optional YAML file Load looks for.
const DefaultConfigFile = "netkit.yaml"

var errNotLoaded = errors.New("config: not loaded")

// Load builds the configuration with the following precedence, highest last:
// built-in defaults, the optional YAML file, environment variables.
func Load() (*Config, error) {
	return load(func(k *koanf.Koanf) error {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			if err := k.Load(file.Provider(DefaultConfigFile), yaml.Parser()); err != nil {
				return fmt.Errorf("load %s: %w", DefaultConfigFile, err)
			}
		}
		return nil
	})
}

// LoadFromBytes builds the configuration from raw YAML layered over the
// defaults, then applies environment variables. Tests use this.
func LoadFromBytes(raw []byte) (*Config, error) {
	return load(func(k *koanf.Koanf) error {
		if len(raw) == 0 {
			return nil
		}
		if err := k.Load(rawbytes.Provider(raw), yaml.Parser()); err != nil {
			return fmt.Errorf("load raw config: %w", err)
		}
		return nil
	})
}

func load(loadFile func(*koanf.Koanf) error) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if err := loadFile(k); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, EnvPrefix)
			return strings.ReplaceAll(strings.ToLower(key), "__", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func defaults() map[string]any {
	return map[string]any{
		"client.timeout":          "30s",
		"client.max_retries":      3,
		"client.retry_base_delay": "1s",
		"client.retry_max_delay":  "30s",

		"cache.ttl":         "5m",
		"cache.max_entries": 256,

		"auth.refresh_path":        "/auth/refresh",
		"auth.organization_header": "X-Organization-Id",

		"log.level":  "info",
		"log.pretty": false,
	}
}
