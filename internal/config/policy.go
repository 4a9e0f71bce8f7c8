package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/entigraph/pkg/authz"
	"github.com/MrWong99/entigraph/pkg/ids"
	"github.com/MrWong99/entigraph/pkg/ontology"
)

// ToPolicy converts a YAML-decoded PolicyDefinition into an [authz.Policy],
// resolving its string ids and decoding its filter expression tree through
// [authz.DecodeExprMap]. This is the bridge SPEC_FULL §10.3 names between
// the config layer's policy.yaml/policy.inline source and the in-memory
// [authz.Engine] a [Watcher] reload pushes policies into.
func (d PolicyDefinition) ToPolicy() (authz.Policy, error) {
	id, err := ids.ParsePolicyId(d.Id)
	if err != nil {
		return authz.Policy{}, fmt.Errorf("config: policy %q: %w", d.Id, err)
	}

	effect, err := parseEffect(d.Effect)
	if err != nil {
		return authz.Policy{}, fmt.Errorf("config: policy %q: %w", d.Id, err)
	}

	principal, err := d.Principal.toConstraint()
	if err != nil {
		return authz.Policy{}, fmt.Errorf("config: policy %q: %w", d.Id, err)
	}

	actionC, err := parseActionConstraint(d.Actions)
	if err != nil {
		return authz.Policy{}, fmt.Errorf("config: policy %q: %w", d.Id, err)
	}

	resourceC, err := d.Resource.toConstraint()
	if err != nil {
		return authz.Policy{}, fmt.Errorf("config: policy %q: %w", d.Id, err)
	}

	var filter authz.Expr
	if len(d.Filter) > 0 {
		filter, err = authz.DecodeExprMap(d.Filter)
		if err != nil {
			return authz.Policy{}, fmt.Errorf("config: policy %q: %w", d.Id, err)
		}
	} else {
		// No filter means "matches every resource the constraints above
		// already narrowed to" (spec §4.4's filter_expression is optional
		// in effect, even though Policy.Filter is not itself a pointer).
		filter = authz.All()
	}

	return authz.Policy{
		Id:        id,
		Effect:    effect,
		Principal: principal,
		ActionC:   actionC,
		ResourceC: resourceC,
		Filter:    filter,
	}, nil
}

func parseEffect(s string) (authz.Effect, error) {
	switch s {
	case "permit":
		return authz.Permit, nil
	case "forbid":
		return authz.Forbid, nil
	default:
		return 0, fmt.Errorf("effect %q must be \"permit\" or \"forbid\"", s)
	}
}

func parseActionConstraint(names []string) (authz.ActionConstraint, error) {
	actions := make([]authz.Action, 0, len(names))
	for _, name := range names {
		a, err := authz.ParseAction(name)
		if err != nil {
			return authz.ActionConstraint{}, err
		}
		actions = append(actions, a)
	}
	return authz.ActionConstraint{Actions: actions}, nil
}

func (p PrincipalYAML) toConstraint() (authz.PrincipalConstraint, error) {
	var c authz.PrincipalConstraint
	if p.Actor != "" {
		actor, err := ids.ParseActorId(p.Actor)
		if err != nil {
			return authz.PrincipalConstraint{}, err
		}
		c.Actor = &actor
	}
	if p.Role != "" {
		role, err := ids.ParseRoleId(p.Role)
		if err != nil {
			return authz.PrincipalConstraint{}, err
		}
		c.Role = &role
	}
	return c, nil
}

func (r ResourceYAML) toConstraint() (authz.ResourceConstraint, error) {
	var c authz.ResourceConstraint
	if r.Kind != "" {
		kind, err := authz.ParseResourceKind(r.Kind)
		if err != nil {
			return authz.ResourceConstraint{}, err
		}
		c.Kind = &kind
	}
	if r.WebId != "" {
		web, err := ids.ParseWebId(r.WebId)
		if err != nil {
			return authz.ResourceConstraint{}, err
		}
		c.WebId = &web
	}
	if r.BaseUrl != "" {
		base, err := ontology.NewBaseUrl(r.BaseUrl)
		if err != nil {
			return authz.ResourceConstraint{}, err
		}
		c.BaseUrl = &base
	}
	return c, nil
}

// Policies decodes every policy named by cfg.Policy into [authz.Policy]
// values ready for [authz.Engine.AddPolicy]/[authz.Engine.ReplacePolicies].
// Dir takes precedence over Inline when both are set, matching
// [PolicyConfig]'s doc comment — this is the source a [Watcher]-driven
// policy reload re-decodes on every change.
func (cfg Config) Policies() ([]authz.Policy, error) {
	if cfg.Policy.Dir != "" {
		return loadPolicyDir(cfg.Policy.Dir)
	}
	policies := make([]authz.Policy, 0, len(cfg.Policy.Inline))
	for _, def := range cfg.Policy.Inline {
		p, err := def.ToPolicy()
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return policies, nil
}

// loadPolicyDir reads every "*.policy.yaml" file in dir, each decoding to a
// list of [PolicyDefinition] values, and converts them all to [authz.Policy].
// Files are processed in lexical order so a reload's resulting policy set is
// deterministic.
func loadPolicyDir(dir string) ([]authz.Policy, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("config: read policy dir %q: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".policy.yaml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var policies []authz.Policy
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read policy file %q: %w", path, err)
		}

		var defs []PolicyDefinition
		if err := yaml.Unmarshal(data, &defs); err != nil {
			return nil, fmt.Errorf("config: parse policy file %q: %w", path, err)
		}

		for _, def := range defs {
			p, err := def.ToPolicy()
			if err != nil {
				return nil, fmt.Errorf("config: policy file %q: %w", path, err)
			}
			policies = append(policies, p)
		}
	}
	return policies, nil
}
