package filter

import (
	"github.com/MrWong99/entigraph/pkg/authz"
	"github.com/MrWong99/entigraph/pkg/grapherr"
	"github.com/MrWong99/entigraph/pkg/ids"
)

// FromAuthorization lowers an authz.Expr (an Engine.Project result) into a
// Filter against resources of kind, so a query's authorization bound
// compiles through the same Compile path as the caller's own filter (spec
// §4.4 item 3, "authorization weave"). actor is the acting principal, needed
// to resolve ExprCreatedByPrincipal without carrying it through the Expr
// tree itself.
//
// ExprIs is resolved here rather than in SQL: a single compiled query is
// already scoped to one resource kind, so a kind comparison collapses to a
// constant true or false rather than a column predicate.
func FromAuthorization(e authz.Expr, actor ids.ActorId, kind authz.ResourceKind) (Filter, error) {
	switch e.Kind {
	case authz.ExprAll:
		children, err := bridgeChildren(e.Children, actor, kind)
		if err != nil {
			return Filter{}, err
		}
		return AllOf(children...), nil
	case authz.ExprAny:
		children, err := bridgeChildren(e.Children, actor, kind)
		if err != nil {
			return Filter{}, err
		}
		return AnyOf(children...), nil
	case authz.ExprNot:
		if len(e.Children) != 1 {
			return Filter{}, grapherr.New(grapherr.Internal, "authorization Not expression must have exactly one child")
		}
		inner, err := FromAuthorization(e.Children[0], actor, kind)
		if err != nil {
			return Filter{}, err
		}
		return Negate(inner), nil

	case authz.ExprIsBaseUrl:
		return Equals(baseUrlPath(kind), e.BaseUrl.String()), nil
	case authz.ExprIsVersion:
		if kind == authz.ResourceEntity {
			return Filter{}, grapherr.New(grapherr.IncompatibleTypes, "IsVersion does not apply to entities")
		}
		return Equals(OntologyVersion(), uint32(e.Version)), nil
	case authz.ExprIsRemote:
		if kind == authz.ResourceEntity {
			return Filter{}, grapherr.New(grapherr.IncompatibleTypes, "IsRemote does not apply to entities")
		}
		return Equals(OntologyOwnedById(), nil), nil
	case authz.ExprCreatedByPrincipal:
		return Equals(recordCreatedByPath(kind), actor.String()), nil

	case authz.ExprIs:
		if e.Type == kind {
			return AllOf(), nil
		}
		return AnyOf(), nil
	case authz.ExprIn:
		if kind == authz.ResourceEntity {
			return Equals(EntityWebId(), e.Web.String()), nil
		}
		return Equals(OntologyOwnedById(), e.Web.String()), nil
	case authz.ExprIsOfType:
		if kind != authz.ResourceEntity {
			return Filter{}, grapherr.New(grapherr.IncompatibleTypes, "IsOfType only applies to entities")
		}
		return ContainsValue(EntityTypeVersionedUrl(), e.Typed.String()), nil
	case authz.ExprIsOfBaseType:
		if kind != authz.ResourceEntity {
			return Filter{}, grapherr.New(grapherr.IncompatibleTypes, "IsOfBaseType only applies to entities")
		}
		return ContainsValue(EntityTypeBaseUrl(), e.BaseUrl.String()), nil

	default:
		return Filter{}, grapherr.Newf(grapherr.Internal, "unhandled authorization expression kind %d", e.Kind)
	}
}

func bridgeChildren(exprs []authz.Expr, actor ids.ActorId, kind authz.ResourceKind) ([]Filter, error) {
	out := make([]Filter, len(exprs))
	for i, c := range exprs {
		f, err := FromAuthorization(c, actor, kind)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func baseUrlPath(kind authz.ResourceKind) Path {
	if kind == authz.ResourceEntity {
		return EntityTypeBaseUrl()
	}
	return OntologyBaseUrl()
}

func recordCreatedByPath(kind authz.ResourceKind) Path {
	if kind == authz.ResourceEntity {
		return EntityRecordCreatedById()
	}
	return OntologyRecordCreatedById()
}
