// Package authz implements the ABAC policy engine and policy-to-filter
// projection (spec §3.4, §4.4): actors, resources, actions, policies built
// from a closed boolean-tree atom set, and the Zanzibar-style role/web
// membership store that resolves which policies apply to an actor.
package authz

import (
	"fmt"

	"github.com/MrWong99/entigraph/pkg/ids"
	"github.com/MrWong99/entigraph/pkg/ontology"
)

// ResourceKind discriminates the four resource kinds (spec §3.4).
type ResourceKind int

const (
	ResourceDataType ResourceKind = iota
	ResourcePropertyType
	ResourceEntityType
	ResourceEntity
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceDataType:
		return "dataType"
	case ResourcePropertyType:
		return "propertyType"
	case ResourceEntityType:
		return "entityType"
	case ResourceEntity:
		return "entity"
	default:
		return "unknown"
	}
}

// Resource names one protected object and the attributes a policy's filter
// expression reads.
type Resource struct {
	Kind ResourceKind

	// WebId is present for every kind.
	WebId *ids.WebId

	// Ontology-kind attributes.
	BaseUrl  ontology.BaseUrl
	Version  ontology.OntologyTypeVersion
	IsRemote bool

	// Entity-kind attributes.
	EntityTypeBaseUrls []ontology.BaseUrl

	CreatedBy ids.ActorId
}

// VersionedUrl returns the resource's identity as a VersionedUrl for
// ontology-kind resources. The zero value is returned for entities.
func (r Resource) VersionedUrl() ontology.VersionedUrl {
	return ontology.VersionedUrl{Base: r.BaseUrl, Version: r.Version}
}

// Action is one of the six operations a policy can permit or forbid
// (spec §3.4).
type Action int

const (
	ActionView Action = iota
	ActionUpdate
	ActionCreate
	ActionInstantiate
	ActionArchive
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionView:
		return "view"
	case ActionUpdate:
		return "update"
	case ActionCreate:
		return "create"
	case ActionInstantiate:
		return "instantiate"
	case ActionArchive:
		return "archive"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// ParseAction parses the camelCase-lowercase spelling produced by
// [Action.String] back into an Action, used when a policy's action list is
// loaded from a config file (SPEC_FULL §10.3).
func ParseAction(s string) (Action, error) {
	for _, a := range []Action{ActionView, ActionUpdate, ActionCreate, ActionInstantiate, ActionArchive, ActionDelete} {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("authz: unknown action %q", s)
}

// Effect is Permit or Forbid.
type Effect int

const (
	Permit Effect = iota
	Forbid
)

// PrincipalConstraint restricts which actors a policy applies to.
type PrincipalConstraint struct {
	Actor *ids.ActorId // nil matches any actor
	Role  *ids.RoleId  // non-nil restricts to role members
}

// ActionConstraint restricts which actions a policy applies to. An empty
// slice matches every action.
type ActionConstraint struct {
	Actions []Action
}

// Matches reports whether action is covered by the constraint.
func (c ActionConstraint) Matches(action Action) bool {
	if len(c.Actions) == 0 {
		return true
	}
	for _, a := range c.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// ResourceConstraint restricts which resources a policy applies to: by
// resource kind, by web, or by base URL.
type ResourceConstraint struct {
	Kind    *ResourceKind
	WebId   *ids.WebId
	BaseUrl *ontology.BaseUrl
}

// Matches reports whether r satisfies the constraint.
func (c ResourceConstraint) Matches(r Resource) bool {
	if c.Kind != nil && *c.Kind != r.Kind {
		return false
	}
	if c.WebId != nil && (r.WebId == nil || *c.WebId != *r.WebId) {
		return false
	}
	if c.BaseUrl != nil && *c.BaseUrl != r.BaseUrl {
		return false
	}
	return true
}

// Policy is one ABAC rule (spec §3.4).
type Policy struct {
	Id        ids.PolicyId
	Effect    Effect
	Principal PrincipalConstraint
	ActionC   ActionConstraint
	ResourceC ResourceConstraint
	Filter    Expr // boolean-tree filter expression over resource attributes (spec §4.4)
}
