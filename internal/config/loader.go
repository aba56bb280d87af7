package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names.
const (
	EnvPrefix = "UDRF_"
	EnvConfig = "UDRF_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if UDRF_CONFIG is set
//  3. env (prefix UDRF_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// rubricEnvMaps are the rubric override maps settable from the environment.
var rubricEnvMaps = []string{"section_max", "item_max", "points_per_entry"}

// envKey maps UDRF_QUEUE_SIZE to the flat key queue_size, keeping the
// underscores of the koanf tags. Rubric overrides become nested keys:
// UDRF_RUBRIC_ITEM_MAX_I_3 maps to rubric.item_max.I_3.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	rest, ok := strings.CutPrefix(s, "rubric_")
	if !ok {
		return s
	}
	for _, m := range rubricEnvMaps {
		if id, ok := strings.CutPrefix(rest, m+"_"); ok && id != "" {
			return "rubric." + m + "." + strings.ToUpper(id)
		}
	}
	return s
}
