// Package filter implements the generic filter algebra and Path language
// (spec §5) and the planner that lowers a Filter/Path pair into a relational
// plan against Postgres (spec §4.5, §4.6). The IR mirrors pkg/authz's Expr
// tree deliberately — both are closed boolean-tree filter languages, and the
// planner's [FromAuthorization] bridge lowers an authz.Expr through the same
// Compile path so authorization is woven into the query rather than applied
// as a post-filter.
package filter

// Kind discriminates a Filter node's operator (spec §5.1).
type Kind int

const (
	All Kind = iota
	Any
	Not

	Equal
	NotEqual
	Less
	LessOrEqual
	Greater
	GreaterOrEqual

	In
	Overlap
	Contains
	StartsWith
	EndsWith
	ContainsSegment
)

func (k Kind) String() string {
	switch k {
	case All:
		return "all"
	case Any:
		return "any"
	case Not:
		return "not"
	case Equal:
		return "equal"
	case NotEqual:
		return "notEqual"
	case Less:
		return "less"
	case LessOrEqual:
		return "lessOrEqual"
	case Greater:
		return "greater"
	case GreaterOrEqual:
		return "greaterOrEqual"
	case In:
		return "in"
	case Overlap:
		return "overlap"
	case Contains:
		return "contains"
	case StartsWith:
		return "startsWith"
	case EndsWith:
		return "endsWith"
	case ContainsSegment:
		return "containsSegment"
	default:
		return "unknown"
	}
}

// Filter is one node of the filter IR: either a boolean combinator over
// Children, or a leaf operator comparing the value a Path resolves to
// against Value (or Values, for In/Overlap).
type Filter struct {
	Kind     Kind
	Children []Filter

	Path   Path
	Value  any
	Values []any
}

// Equals builds an Equal comparison between path and value.
func Equals(path Path, value any) Filter { return Filter{Kind: Equal, Path: path, Value: value} }

// NotEquals builds a NotEqual comparison.
func NotEquals(path Path, value any) Filter { return Filter{Kind: NotEqual, Path: path, Value: value} }

// LessThan builds a Less comparison.
func LessThan(path Path, value any) Filter { return Filter{Kind: Less, Path: path, Value: value} }

// LessOrEqualTo builds a LessOrEqual comparison.
func LessOrEqualTo(path Path, value any) Filter {
	return Filter{Kind: LessOrEqual, Path: path, Value: value}
}

// GreaterThan builds a Greater comparison.
func GreaterThan(path Path, value any) Filter { return Filter{Kind: Greater, Path: path, Value: value} }

// GreaterOrEqualTo builds a GreaterOrEqual comparison.
func GreaterOrEqualTo(path Path, value any) Filter {
	return Filter{Kind: GreaterOrEqual, Path: path, Value: value}
}

// InValues builds an In comparison: path's value must equal one of values.
func InValues(path Path, values ...any) Filter { return Filter{Kind: In, Path: path, Values: values} }

// OverlapsWith builds an Overlap comparison between a temporal or range-typed
// path and value, which must itself resolve to a range (spec §5.1 —
// comparing Overlap against a scalar path is an IncompatibleTypes error at
// compile time, not at construction time).
func OverlapsWith(path Path, value any) Filter { return Filter{Kind: Overlap, Path: path, Value: value} }

// ContainsValue builds a Contains comparison (array/range membership).
func ContainsValue(path Path, value any) Filter { return Filter{Kind: Contains, Path: path, Value: value} }

// HasPrefix builds a StartsWith comparison over a text-typed path.
func HasPrefix(path Path, value string) Filter { return Filter{Kind: StartsWith, Path: path, Value: value} }

// HasSuffix builds an EndsWith comparison over a text-typed path.
func HasSuffix(path Path, value string) Filter { return Filter{Kind: EndsWith, Path: path, Value: value} }

// HasSegment builds a ContainsSegment comparison: a URL-typed path must
// contain value as a full path segment (spec §5.1's base-URL containment
// check, distinct from a plain substring StartsWith/EndsWith).
func HasSegment(path Path, value string) Filter {
	return Filter{Kind: ContainsSegment, Path: path, Value: value}
}

// AllOf builds a conjunction.
func AllOf(filters ...Filter) Filter { return Filter{Kind: All, Children: filters} }

// AnyOf builds a disjunction.
func AnyOf(filters ...Filter) Filter { return Filter{Kind: Any, Children: filters} }

// Negate negates f.
func Negate(f Filter) Filter { return Filter{Kind: Not, Children: []Filter{f}} }
