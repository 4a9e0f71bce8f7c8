package authz

import (
	"github.com/MrWong99/entigraph/pkg/ids"
	"github.com/MrWong99/entigraph/pkg/ontology"
)

// ExprKind discriminates the atoms and combinators of a resource filter
// expression (spec §4.4).
type ExprKind int

const (
	ExprAll ExprKind = iota
	ExprAny
	ExprNot

	ExprIsBaseUrl
	ExprIsVersion
	ExprIsRemote
	ExprCreatedByPrincipal

	ExprIs
	ExprIn
	ExprIsOfType
	ExprIsOfBaseType
)

// Expr is a node in the closed boolean-tree filter expression. Only the
// fields relevant to Kind are meaningful; this mirrors the planner's own
// Filter IR (pkg/filter) so policy expressions lower through the same
// machinery as user-supplied filters.
type Expr struct {
	Kind     ExprKind
	Children []Expr // All, Any, Not

	BaseUrl ontology.BaseUrl             // IsBaseUrl, IsOfBaseType
	Version ontology.OntologyTypeVersion // IsVersion
	Web     ids.WebId                   // In
	Type    ResourceKind                // Is
	Typed   ontology.VersionedUrl       // IsOfType
}

// All builds a conjunction.
func All(exprs ...Expr) Expr { return Expr{Kind: ExprAll, Children: exprs} }

// Any builds a disjunction.
func Any(exprs ...Expr) Expr { return Expr{Kind: ExprAny, Children: exprs} }

// Not negates an expression.
func Not(e Expr) Expr { return Expr{Kind: ExprNot, Children: []Expr{e}} }

// IsBaseUrl matches resources whose BaseUrl equals base.
func IsBaseUrl(base ontology.BaseUrl) Expr { return Expr{Kind: ExprIsBaseUrl, BaseUrl: base} }

// IsVersion matches resources at exactly version n.
func IsVersion(n ontology.OntologyTypeVersion) Expr { return Expr{Kind: ExprIsVersion, Version: n} }

// IsRemote matches ontology resources with no local owner.
func IsRemote() Expr { return Expr{Kind: ExprIsRemote} }

// CreatedByPrincipal matches resources the acting principal created.
func CreatedByPrincipal() Expr { return Expr{Kind: ExprCreatedByPrincipal} }

// Is matches resources of the given kind.
func Is(kind ResourceKind) Expr { return Expr{Kind: ExprIs, Type: kind} }

// In matches resources belonging to web.
func In(web ids.WebId) Expr { return Expr{Kind: ExprIn, Web: web} }

// IsOfType matches entities carrying the exact entity type edition id.
func IsOfType(id ontology.VersionedUrl) Expr { return Expr{Kind: ExprIsOfType, Typed: id} }

// IsOfBaseType matches entities carrying any edition of base.
func IsOfBaseType(base ontology.BaseUrl) Expr { return Expr{Kind: ExprIsOfBaseType, BaseUrl: base} }

// Eval evaluates e against resource r for the given acting actor, purely in
// Go — used by MemStore-backed policy evaluation and by tests. The
// Postgres-backed planner instead lowers Expr into SQL via pkg/filter so
// the same semantics run inside the query (spec §4.4 item 3, "authorization
// weave").
func Eval(e Expr, actor ids.ActorId, r Resource) bool {
	switch e.Kind {
	case ExprAll:
		for _, c := range e.Children {
			if !Eval(c, actor, r) {
				return false
			}
		}
		return true
	case ExprAny:
		for _, c := range e.Children {
			if Eval(c, actor, r) {
				return true
			}
		}
		return false
	case ExprNot:
		return !Eval(e.Children[0], actor, r)
	case ExprIsBaseUrl:
		return r.BaseUrl == e.BaseUrl
	case ExprIsVersion:
		return r.Version == e.Version
	case ExprIsRemote:
		return r.IsRemote
	case ExprCreatedByPrincipal:
		return r.CreatedBy == actor
	case ExprIs:
		return r.Kind == e.Type
	case ExprIn:
		return r.WebId != nil && *r.WebId == e.Web
	case ExprIsOfType:
		return r.VersionedUrl() == e.Typed
	case ExprIsOfBaseType:
		for _, b := range r.EntityTypeBaseUrls {
			if b == e.BaseUrl {
				return true
			}
		}
		return r.BaseUrl == e.BaseUrl
	default:
		return false
	}
}
