package filter

import (
	"fmt"
	"strings"

	"github.com/MrWong99/entigraph/pkg/authz"
	"github.com/MrWong99/entigraph/pkg/grapherr"
	"github.com/MrWong99/entigraph/pkg/ontology"
)

// columnType classifies the SQL type a Path resolves to, so the compiler can
// reject operators that don't make sense against it (spec §5.1's
// UnsupportedOperator / IncompatibleTypes edge cases).
type columnType int

const (
	typeText columnType = iota
	typeUUID
	typeBool
	typeTimestamp
	typeRange
	typeArray
	typeJSON
)

// column is the resolved SQL shape of a Path against a specific resource
// table alias.
type column struct {
	expr string
	typ  columnType
}

// entityColumn maps Entity-kind Path segments to the "e" alias of the
// entities table (spec §9's Postgres schema sketch).
func entityColumn(p Path) (column, *grapherr.Error) {
	switch p.Segment {
	case SegmentUuid:
		return column{"e.entity_uuid", typeUUID}, nil
	case SegmentWebId:
		return column{"e.web_id", typeUUID}, nil
	case SegmentDraftId:
		return column{"e.draft_id", typeUUID}, nil
	case SegmentArchived:
		return column{"e.archived", typeBool}, nil
	case SegmentRecordCreatedById:
		return column{"e.record_created_by", typeText}, nil
	case SegmentDecisionTime:
		return column{"e.decision_time", typeRange}, nil
	case SegmentTransactionTime:
		return column{"e.transaction_time", typeRange}, nil
	case SegmentTypeBaseUrl:
		return column{"e.type_base_urls", typeArray}, nil
	case SegmentTypeVersionedUrl:
		return column{"e.type_versioned_urls", typeArray}, nil
	case SegmentLeftEntityUuid:
		return column{"e.left_entity_uuid", typeUUID}, nil
	case SegmentRightEntityUuid:
		return column{"e.right_entity_uuid", typeUUID}, nil
	case SegmentProperties:
		if len(p.Properties) == 0 {
			return column{}, grapherr.New(grapherr.InvalidPath, "properties path requires at least one base URL segment")
		}
		return column{propertiesExpr(p.Properties), typeJSON}, nil
	default:
		return column{}, grapherr.Newf(grapherr.InvalidPath, "segment %d does not resolve against an entity", p.Segment)
	}
}

// ontologyColumn maps ontology-element Path segments (shared by data types,
// property types, and entity types — spec §3.2) to the "o" alias of the
// ontology_elements table.
func ontologyColumn(p Path) (column, *grapherr.Error) {
	switch p.Segment {
	case SegmentBaseUrl:
		return column{"o.base_url", typeText}, nil
	case SegmentVersion:
		return column{"o.version", typeText}, nil // typed as text, so only the text operators (no Less/Greater) apply
	case SegmentOwnedById:
		return column{"o.owned_by", typeUUID}, nil
	case SegmentRecordCreatedById:
		return column{"o.record_created_by", typeText}, nil
	case SegmentFetchedAt:
		return column{"o.fetched_at", typeTimestamp}, nil
	case SegmentArchived:
		return column{"o.archived", typeBool}, nil
	case SegmentDecisionTime:
		return column{"o.decision_time", typeRange}, nil
	case SegmentTransactionTime:
		return column{"o.transaction_time", typeRange}, nil
	default:
		return column{}, grapherr.Newf(grapherr.InvalidPath, "segment %d does not resolve against an ontology element", p.Segment)
	}
}

// propertiesExpr renders a jsonb traversal expression for a chain of
// property BaseUrls, e.g. e.properties #>> '{https://…/height/,https://…/unit/}'.
func propertiesExpr(base []ontology.BaseUrl) string {
	keys := make([]string, len(base))
	for i, b := range base {
		keys[i] = string(b)
	}
	return "e.properties #>> '{" + strings.Join(keys, ",") + "}'"
}

func resolveColumn(kind authz.ResourceKind, p Path) (column, *grapherr.Error) {
	if kind == authz.ResourceEntity {
		return entityColumn(p)
	}
	return ontologyColumn(p)
}

// allowedOps lists which Kind values a columnType supports. Anything absent
// from the set is an UnsupportedOperator error; Overlap against a non-range
// column is always IncompatibleTypes regardless of this table, since it is a
// type mismatch rather than a missing capability (spec §5.1, §13 Open
// Question: Overlap against a scalar path is IncompatibleTypes, not
// UnsupportedOperator).
var allowedOps = map[columnType]map[Kind]bool{
	typeText:      {Equal: true, NotEqual: true, In: true, StartsWith: true, EndsWith: true, ContainsSegment: true},
	typeUUID:      {Equal: true, NotEqual: true, In: true},
	typeBool:      {Equal: true, NotEqual: true},
	typeTimestamp: {Equal: true, NotEqual: true, Less: true, LessOrEqual: true, Greater: true, GreaterOrEqual: true},
	typeRange:     {Overlap: true, Contains: true},
	typeArray:     {Contains: true, In: true},
	typeJSON:      {Equal: true, NotEqual: true, Less: true, LessOrEqual: true, Greater: true, GreaterOrEqual: true, In: true, Contains: true, StartsWith: true, EndsWith: true, ContainsSegment: true},
}

// Plan is a compiled WHERE clause fragment plus its positional arguments,
// ready to be embedded into a SELECT built by the storage layer (spec §4.6).
type Plan struct {
	Where string
	Args  []any
}

// Builder accumulates positional placeholders using the `next(v)` idiom
// shared with the Postgres storage layer's hand-written queries (grounded
// on pkg/memory/postgres/knowledge_graph.go's query builders). Callers
// composing a full statement out of several Filter/Sort/cursor fragments
// share one Builder so placeholder numbers stay consistent across all of
// them.
type Builder struct {
	args []any
}

// NewBuilder returns an empty positional-argument builder.
func NewBuilder() *Builder { return &Builder{} }

// Next records v as the next positional argument and returns its $n
// placeholder.
func (b *Builder) Next(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// Args returns the accumulated arguments in placeholder order.
func (b *Builder) Args() []any { return b.args }

// Compile lowers f into a SQL boolean expression against resources of kind.
// The returned Plan's Where fragment is meant to be AND-ed with the query's
// other constraints (temporal pinning, authorization projection) by the
// caller, not embedded standalone (spec §4.6 items 1-3). Use [CompileWith]
// instead when composing multiple fragments that must share one
// placeholder sequence.
func Compile(f Filter, kind authz.ResourceKind) (Plan, error) {
	b := NewBuilder()
	where, err := compileNode(b, f, kind)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Where: where, Args: b.args}, nil
}

// CompileWith lowers f using a caller-supplied Builder, so its placeholders
// continue a sequence started by other fragments (a Sort seek predicate, an
// authorization weave compiled separately).
func CompileWith(b *Builder, f Filter, kind authz.ResourceKind) (string, error) {
	where, err := compileNode(b, f, kind)
	if err != nil {
		return "", err
	}
	return where, nil
}

func compileNode(b *Builder, f Filter, kind authz.ResourceKind) (string, *grapherr.Error) {
	switch f.Kind {
	case All:
		return joinChildren(b, f.Children, kind, " AND ", "TRUE")
	case Any:
		return joinChildren(b, f.Children, kind, " OR ", "FALSE")
	case Not:
		if len(f.Children) != 1 {
			return "", grapherr.New(grapherr.Internal, "Not filter must have exactly one child")
		}
		inner, err := compileNode(b, f.Children[0], kind)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	default:
		return compileLeaf(b, f, kind)
	}
}

func joinChildren(b *Builder, children []Filter, kind authz.ResourceKind, sep, empty string) (string, *grapherr.Error) {
	if len(children) == 0 {
		return empty, nil
	}
	parts := make([]string, len(children))
	for i, c := range children {
		s, err := compileNode(b, c, kind)
		if err != nil {
			return "", err
		}
		parts[i] = "(" + s + ")"
	}
	return strings.Join(parts, sep), nil
}

func compileLeaf(b *Builder, f Filter, kind authz.ResourceKind) (string, *grapherr.Error) {
	col, err := resolveColumn(kind, f.Path)
	if err != nil {
		return "", err
	}

	if f.Kind == Overlap && col.typ != typeRange {
		return "", grapherr.Newf(grapherr.IncompatibleTypes, "Overlap requires a temporal path, got %v", f.Path.Segment)
	}
	if ops, ok := allowedOps[col.typ]; !ok || !ops[f.Kind] {
		return "", grapherr.Newf(grapherr.UnsupportedOperator, "operator %s is not defined for path %v", f.Kind, f.Path.Segment)
	}

	switch f.Kind {
	case Equal:
		if f.Value == nil {
			return col.expr + " IS NULL", nil
		}
		return col.expr + " = " + b.Next(f.Value), nil
	case NotEqual:
		if f.Value == nil {
			return col.expr + " IS NOT NULL", nil
		}
		return col.expr + " != " + b.Next(f.Value), nil
	case Less:
		return col.expr + " < " + b.Next(f.Value), nil
	case LessOrEqual:
		return col.expr + " <= " + b.Next(f.Value), nil
	case Greater:
		return col.expr + " > " + b.Next(f.Value), nil
	case GreaterOrEqual:
		return col.expr + " >= " + b.Next(f.Value), nil
	case In:
		return col.expr + " = ANY(" + b.Next(f.Values) + ")", nil
	case Overlap:
		return col.expr + " && " + b.Next(f.Value), nil
	case Contains:
		if col.typ == typeRange {
			return col.expr + " @> " + b.Next(f.Value) + "::timestamptz", nil
		}
		return col.expr + " @> ARRAY[" + b.Next(f.Value) + "]", nil
	case StartsWith:
		return col.expr + " LIKE " + b.Next(escapeLike(f.Value)+"%"), nil
	case EndsWith:
		return col.expr + " LIKE " + b.Next("%"+escapeLike(f.Value)), nil
	case ContainsSegment:
		return col.expr + " LIKE " + b.Next("%/"+escapeLike(f.Value)+"/%"), nil
	default:
		return "", grapherr.Newf(grapherr.Internal, "unhandled leaf kind %s", f.Kind)
	}
}

func escapeLike(v any) string {
	s, _ := v.(string)
	return s
}
