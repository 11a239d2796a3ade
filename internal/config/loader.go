// Package config provides configuration loading for insightd.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces insightd environment variables.
const envPrefix = "INSIGHTD_"

// nestedSections are second-level config sections; env keys that start with
// one of these after the section name get an extra dot inserted, e.g.
// INSIGHTD_CACHE_TTL_VOICE -> cache.ttl.voice.
var nestedSections = []string{"ttl_", "memory_", "redis_", "sqlite_"}

// Load reads configuration with the following precedence (highest first):
//
//  1. Environment variables (INSIGHTD_CACHE_NEGATIVE_TTL, ...)
//  2. YAML config file, if configPath is non-empty and exists
//  3. Hardcoded defaults
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	cfg := NewDefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			content, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		}
	}

	// Override with environment variables.
	// INSIGHTD_CACHE_NEGATIVE_TTL -> cache.negative_ttl
	// INSIGHTD_CACHE_TTL_VOICE    -> cache.ttl.voice
	// INSIGHTD_TEST_MODE          -> test_mode
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))

		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}

		section := parts[0]
		field := parts[1]

		// test_mode is a root-level key, not a section.
		if section == "test" {
			return lower
		}

		for _, nested := range nestedSections {
			if strings.HasPrefix(field, nested) {
				sub := strings.TrimSuffix(nested, "_")
				return section + "." + sub + "." + strings.TrimPrefix(field, nested)
			}
		}

		return section + "." + field
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}
