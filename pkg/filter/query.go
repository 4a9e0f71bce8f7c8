package filter

import (
	"context"
	"strings"

	"github.com/MrWong99/entigraph/pkg/authz"
	"github.com/MrWong99/entigraph/pkg/grapherr"
	"github.com/MrWong99/entigraph/pkg/ids"
	"github.com/MrWong99/entigraph/pkg/temporal"
)

// Query describes a fully-specified read (spec §4.5): the caller's own
// filter, the temporal window it's pinned against, the acting principal (for
// the authorization weave and cell masking), and optional ordering/paging.
type Query struct {
	Filter Filter
	Kind   authz.ResourceKind
	Axes   temporal.TemporalAxes
	Actor  ids.ActorId

	Sorts      []Sort
	Limit      int
	CursorPage *CursorPage // nil for the first page
}

// CursorPage carries a decoded continuation point for keyset pagination.
type CursorPage struct {
	Values []any
}

// CompiledQuery is everything the storage layer needs to run a Query: the
// WHERE clause (already weaving the filter, temporal pinning, and
// authorization together), its positional arguments in order, the ORDER BY
// clause (empty when unsorted), and the masked properties projection to use
// in place of a bare `e.properties` column reference.
type CompiledQuery struct {
	Where       string
	Args        []any
	OrderBy     string
	PropertyCol string
}

// CompileQuery lowers q into a CompiledQuery, authorizing it against engine
// first (spec §4.6's full pipeline: user filter -> temporal pin ->
// authorization weave -> masking -> sort/cursor). A Query whose Project
// yields no matching policy still compiles — its WHERE clause simply always
// evaluates false, since Project's default is `FALSE` when no Permit policy
// matches (deny by default).
func CompileQuery(ctx context.Context, q Query, engine *authz.Engine) (CompiledQuery, error) {
	authExpr, cells, err := engine.Project(ctx, q.Actor, authz.ActionView, q.Kind)
	if err != nil {
		return CompiledQuery{}, grapherr.Wrap(err, "project authorization")
	}

	b := NewBuilder()

	userWhere, err := CompileWith(b, q.Filter, q.Kind)
	if err != nil {
		return CompiledQuery{}, err
	}

	authWhere, err := compileAuthExpr(b, authExpr, q.Actor, q.Kind)
	if err != nil {
		return CompiledQuery{}, err
	}

	temporalWhere := TemporalWhere(b, q.Axes, q.Kind)

	clauses := []string{"(" + userWhere + ")", "(" + authWhere + ")", "(" + temporalWhere + ")"}

	if q.CursorPage != nil && len(q.Sorts) > 0 {
		seek, err := SeekPredicate(b, q.Sorts, q.Kind, q.CursorPage.Values)
		if err != nil {
			return CompiledQuery{}, err
		}
		clauses = append(clauses, "("+seek+")")
	}

	orderBy, err := OrderByClause(q.Sorts, q.Kind)
	if err != nil {
		return CompiledQuery{}, err
	}

	propCol := "e.properties"
	if q.Kind == authz.ResourceEntity {
		propCol, err = maskedPropertiesExpr(b, cells, q.Actor)
		if err != nil {
			return CompiledQuery{}, err
		}
	}

	return CompiledQuery{
		Where:       strings.Join(clauses, " AND "),
		Args:        b.Args(),
		OrderBy:     orderBy,
		PropertyCol: propCol,
	}, nil
}

// compileAuthExpr bridges an already-projected authorization Expr into SQL.
// It is kept distinct from FromAuthorization's signature (which returns a
// Filter) so CompileQuery can feed it straight into the same Builder as the
// rest of the statement.
func compileAuthExpr(b *Builder, authExpr authz.Expr, actor ids.ActorId, kind authz.ResourceKind) (string, error) {
	f, err := FromAuthorization(authExpr, actor, kind)
	if err != nil {
		return "", err
	}
	return CompileWith(b, f, kind)
}

// maskedPropertiesExpr renders the properties column projection with each
// CellFilter rule's masked base URL conditionally deleted (spec §4.4's
// cell-level masking): every rule whose Condition holds for the acting
// principal strips its PropertyBaseUrl from the returned tree via jsonb's
// `#-` path-delete operator, folded so later rules see earlier ones' output.
func maskedPropertiesExpr(b *Builder, cells []authz.CellFilter, actor ids.ActorId) (string, error) {
	expr := "e.properties"
	for _, cf := range cells {
		cond, err := FromAuthorization(cf.Condition, actor, authz.ResourceEntity)
		if err != nil {
			return "", err
		}
		condSQL, err := CompileWith(b, cond, authz.ResourceEntity)
		if err != nil {
			return "", err
		}
		expr = "CASE WHEN (" + condSQL + ") THEN (" + expr + ") #- '{" + string(cf.PropertyBaseUrl) + "}' ELSE (" + expr + ") END"
	}
	return expr, nil
}
