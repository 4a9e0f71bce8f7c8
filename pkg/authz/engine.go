package authz

import (
	"context"
	"sync"

	"github.com/MrWong99/entigraph/pkg/ids"
)

// Engine folds a set of [Policy] and [CellFilter] rules into the two
// decisions callers need (spec §4.4): a yes/no [Authorize] check for a
// single resource, and a [Project]ed filter expression usable to scope an
// entire query to what actor is permitted to see. Engine is the orchestrator
// the primitive types in types.go, expr.go, tuples.go, and cellfilter.go were
// missing — PrincipalConstraint, Policy and Expr only describe the shape of
// a rule; Engine is what applies a whole policy set to a decision.
type Engine struct {
	mu          sync.RWMutex
	policies    []Policy
	cellFilters []CellFilter
	tuples      *TupleStore

	projectCache map[projectCacheKey]projection
}

type projectCacheKey struct {
	actor  ids.ActorId
	action Action
	kind   ResourceKind
}

type projection struct {
	expr  Expr
	cells []CellFilter
}

// NewEngine returns an empty Engine backed by tuples for role-membership
// resolution.
func NewEngine(tuples *TupleStore) *Engine {
	return &Engine{
		tuples:       tuples,
		projectCache: make(map[projectCacheKey]projection),
	}
}

// AddPolicy registers p. It invalidates the projection cache since any
// cached fold may now be stale.
func (e *Engine) AddPolicy(p Policy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.policies = append(e.policies, p)
	e.projectCache = make(map[projectCacheKey]projection)
}

// ReplacePolicies atomically swaps the whole policy set for policies,
// invalidating the projection cache exactly like [Engine.AddPolicy]. Used by
// a config-driven policy reload (internal/config's policy watcher) where the
// new set must replace the old one wholesale rather than append to it.
func (e *Engine) ReplacePolicies(policies []Policy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.policies = append([]Policy(nil), policies...)
	e.projectCache = make(map[projectCacheKey]projection)
}

// AddCellFilter registers a property-masking rule.
func (e *Engine) AddCellFilter(cf CellFilter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cellFilters = append(e.cellFilters, cf)
	e.projectCache = make(map[projectCacheKey]projection)
}

// principalMatches reports whether actor satisfies pc, resolving role
// membership transitively through the Zanzibar-style tuple store.
func (e *Engine) principalMatches(ctx context.Context, actor ids.ActorId, pc PrincipalConstraint) (bool, error) {
	if pc.Actor != nil {
		return *pc.Actor == actor, nil
	}
	if pc.Role != nil {
		if e.tuples == nil {
			return false, nil
		}
		return e.tuples.IsRoleMember(ctx, actor, *pc.Role)
	}
	return true, nil
}

// matchingPolicies returns every policy whose Principal, Action and Resource
// constraints all match, split by Effect.
func (e *Engine) matchingPolicies(ctx context.Context, actor ids.ActorId, action Action, r *Resource, kind ResourceKind) (permits, forbids []Policy, err error) {
	e.mu.RLock()
	policies := make([]Policy, len(e.policies))
	copy(policies, e.policies)
	e.mu.RUnlock()

	for _, p := range policies {
		if !p.ActionC.Matches(action) {
			continue
		}
		if p.ResourceC.Kind != nil && *p.ResourceC.Kind != kind {
			continue
		}
		if r != nil && !p.ResourceC.Matches(*r) {
			continue
		}
		ok, merr := e.principalMatches(ctx, actor, p.Principal)
		if merr != nil {
			return nil, nil, merr
		}
		if !ok {
			continue
		}
		if r != nil && !Eval(p.Filter, actor, *r) {
			continue
		}
		switch p.Effect {
		case Permit:
			permits = append(permits, p)
		case Forbid:
			forbids = append(forbids, p)
		}
	}
	return permits, forbids, nil
}

// Authorize reports whether actor may perform action on resource, applying
// deny-overrides combining: if any matching Forbid policy applies, the
// result is false regardless of how many Permit policies also match;
// otherwise the result is true iff at least one Permit policy matches
// (default deny, spec §3.4/§4.4).
func (e *Engine) Authorize(ctx context.Context, actor ids.ActorId, action Action, resource Resource) (bool, error) {
	permits, forbids, err := e.matchingPolicies(ctx, actor, action, &resource, resource.Kind)
	if err != nil {
		return false, err
	}
	if len(forbids) > 0 {
		return false, nil
	}
	return len(permits) > 0, nil
}

// Project folds every policy applicable to actor and action over resources
// of kind into a single boolean filter expression:
//
//	P_allow ∧ ¬P_deny
//
// where P_allow is the disjunction of matching Permit filters and P_deny is
// the disjunction of matching Forbid filters (spec §4.4). The planner (in
// pkg/filter) conjoins this expression onto every query plan for kind so
// that unauthorized rows are excluded at the SQL level rather than filtered
// after the fact. Also returns the cell-filter masking rules in effect.
//
// Results are cached per (actor, action, kind) until the next AddPolicy,
// ReplacePolicies or AddCellFilter call invalidates the cache.
func (e *Engine) Project(ctx context.Context, actor ids.ActorId, action Action, kind ResourceKind) (Expr, []CellFilter, error) {
	key := projectCacheKey{actor: actor, action: action, kind: kind}

	e.mu.RLock()
	if cached, ok := e.projectCache[key]; ok {
		e.mu.RUnlock()
		return cached.expr, cached.cells, nil
	}
	e.mu.RUnlock()

	permits, forbids, err := e.matchingPolicies(ctx, actor, action, nil, kind)
	if err != nil {
		return Expr{}, nil, err
	}

	allow := Any(exprsOf(permits)...)
	deny := Any(exprsOf(forbids)...)
	combined := All(allow, Not(deny))

	e.mu.RLock()
	cells := make([]CellFilter, len(e.cellFilters))
	copy(cells, e.cellFilters)
	e.mu.RUnlock()

	e.mu.Lock()
	e.projectCache[key] = projection{expr: combined, cells: cells}
	e.mu.Unlock()

	return combined, cells, nil
}

func exprsOf(policies []Policy) []Expr {
	exprs := make([]Expr, len(policies))
	for i, p := range policies {
		exprs[i] = p.Filter
	}
	return exprs
}
