package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found; some issues are only
// worth a warning log since the server can still start in a degraded mode.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Postgres.DSN == "" {
		slog.Warn("postgres.dsn is empty; ontology/entity/subgraph/deletion stores will not be available")
	}
	if cfg.Postgres.MaxConns < 0 {
		errs = append(errs, fmt.Errorf("postgres.max_conns must not be negative, got %d", cfg.Postgres.MaxConns))
	}

	if cfg.Policy.Dir == "" && len(cfg.Policy.Inline) == 0 {
		slog.Warn("no policy source configured (policy.dir and policy.inline are both empty); every action will be denied by default")
	}
	for i, p := range cfg.Policy.Inline {
		prefix := fmt.Sprintf("policy.inline[%d]", i)
		if p.Id == "" {
			errs = append(errs, fmt.Errorf("%s.id is required", prefix))
		}
		if p.Effect != "permit" && p.Effect != "forbid" {
			errs = append(errs, fmt.Errorf("%s.effect %q is invalid; valid values: permit, forbid", prefix, p.Effect))
		}
	}

	rd := cfg.ResolveDepths
	for name, v := range map[string]int{
		"resolve_depths.inherits_from":                  rd.InheritsFrom,
		"resolve_depths.constrains_values_on":            rd.ConstrainsValuesOn,
		"resolve_depths.constrains_properties_on":        rd.ConstrainsPropertiesOn,
		"resolve_depths.constrains_links_on":             rd.ConstrainsLinksOn,
		"resolve_depths.constrains_link_destinations_on": rd.ConstrainsLinkDestinationsOn,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", name, v))
		}
	}

	if cfg.Cursor.SigningKey == "" {
		slog.Warn("cursor.signing_key is empty; keyset pagination cursors will be unsigned")
	}

	return errors.Join(errs...)
}
