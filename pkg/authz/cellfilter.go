package authz

import (
	"github.com/MrWong99/entigraph/pkg/ids"
	"github.com/MrWong99/entigraph/pkg/ontology"
)

// CellFilter is a per-property masking rule (spec §4.4): when its
// expression evaluates true for a given entity and actor, PropertyBaseUrl is
// stripped from the returned property tree. The planner lowers a list of
// these into the conditional JSONB key-deletion expression described in
// SPEC_FULL §9 design notes.
type CellFilter struct {
	PropertyBaseUrl ontology.BaseUrl
	Condition       Expr
}

// Mask evaluates every rule in rules against r (treating r as the entity
// resource under test) and returns the set of property base URLs that must
// be removed from its property tree before it is returned to actor.
//
// This mirrors what the Postgres planner compiles into SQL at plan-emission
// time; it exists in Go so MemStore-backed callers and tests observe
// identical masking semantics without a database round trip.
func Mask(rules []CellFilter, actor ids.ActorId, r Resource) []ontology.BaseUrl {
	var masked []ontology.BaseUrl
	for _, rule := range rules {
		if Eval(rule.Condition, actor, r) {
			masked = append(masked, rule.PropertyBaseUrl)
		}
	}
	return masked
}
