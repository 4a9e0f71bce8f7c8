package config_test

import (
	"strings"
	"testing"

	"github.com/MrWong99/entigraph/internal/config"
)

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
postgres:
  max_conns: -5
policy:
  inline:
    - effect: allow
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	errStr := err.Error()
	for _, want := range []string{"log_level", "max_conns", "id", "effect"} {
		if !strings.Contains(errStr, want) {
			t.Errorf("error should mention %q, got: %v", want, err)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load("/nonexistent/entigraph.yaml")
	if err == nil {
		t.Fatal("expected error for missing config file, got nil")
	}
}

func TestValidate_FullyValidConfig(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":9090"
  log_level: debug
postgres:
  dsn: "postgres://localhost/entigraph"
  max_conns: 25
policy:
  dir: /etc/entigraph/policies
resolve_depths:
  inherits_from: 2
  constrains_values_on: 1
  constrains_properties_on: 1
  constrains_links_on: 1
  constrains_link_destinations_on: 1
  is_of_type: true
cursor:
  signing_key: topsecret
observability:
  service_name: entigraph
  service_version: "1.0.0"
  otlp_endpoint: "localhost:4317"
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Observability.ServiceName != "entigraph" {
		t.Errorf("observability.service_name: got %q", cfg.Observability.ServiceName)
	}
}
