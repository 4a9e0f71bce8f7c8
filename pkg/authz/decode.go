package authz

import (
	"fmt"

	"github.com/MrWong99/entigraph/pkg/ids"
	"github.com/MrWong99/entigraph/pkg/ontology"
)

// DecodeExprMap decodes a generic map (as produced by a YAML/JSON decoder
// into map[string]any, e.g. a config file's policy.filter block) into an
// Expr, mirroring pkg/filter's tagged-by-operator wire format (spec §6) so
// policy filters and user filters are authored the same way. The supported
// keys are "all"/"any"/"not" plus one atom key per [ExprKind]:
// "isBaseUrl", "isVersion", "isRemote", "createdByPrincipal", "is", "in",
// "isOfType", "isOfBaseType".
func DecodeExprMap(m map[string]any) (Expr, error) {
	if len(m) != 1 {
		return Expr{}, fmt.Errorf("authz: expression object must have exactly one key, got %d", len(m))
	}
	for key, val := range m {
		switch key {
		case "all":
			return decodeExprList(val, All)
		case "any":
			return decodeExprList(val, Any)
		case "not":
			child, ok := val.(map[string]any)
			if !ok {
				return Expr{}, fmt.Errorf("authz: \"not\" value must be an expression object")
			}
			sub, err := DecodeExprMap(child)
			if err != nil {
				return Expr{}, err
			}
			return Not(sub), nil
		case "isBaseUrl":
			s, ok := val.(string)
			if !ok {
				return Expr{}, fmt.Errorf("authz: \"isBaseUrl\" value must be a string")
			}
			base, err := ontology.NewBaseUrl(s)
			if err != nil {
				return Expr{}, err
			}
			return IsBaseUrl(base), nil
		case "isVersion":
			n, err := asInt(val)
			if err != nil {
				return Expr{}, fmt.Errorf("authz: \"isVersion\": %w", err)
			}
			return IsVersion(ontology.OntologyTypeVersion(n)), nil
		case "isRemote":
			return IsRemote(), nil
		case "createdByPrincipal":
			return CreatedByPrincipal(), nil
		case "is":
			s, ok := val.(string)
			if !ok {
				return Expr{}, fmt.Errorf("authz: \"is\" value must be a string")
			}
			kind, err := ParseResourceKind(s)
			if err != nil {
				return Expr{}, err
			}
			return Is(kind), nil
		case "in":
			s, ok := val.(string)
			if !ok {
				return Expr{}, fmt.Errorf("authz: \"in\" value must be a string")
			}
			web, err := ids.ParseWebId(s)
			if err != nil {
				return Expr{}, err
			}
			return In(web), nil
		case "isOfType":
			s, ok := val.(string)
			if !ok {
				return Expr{}, fmt.Errorf("authz: \"isOfType\" value must be a string")
			}
			typed, err := ontology.ParseVersionedUrl(s)
			if err != nil {
				return Expr{}, err
			}
			return IsOfType(typed), nil
		case "isOfBaseType":
			s, ok := val.(string)
			if !ok {
				return Expr{}, fmt.Errorf("authz: \"isOfBaseType\" value must be a string")
			}
			base, err := ontology.NewBaseUrl(s)
			if err != nil {
				return Expr{}, err
			}
			return IsOfBaseType(base), nil
		default:
			return Expr{}, fmt.Errorf("authz: unknown expression key %q", key)
		}
	}
	panic("unreachable")
}

func decodeExprList(val any, combine func(...Expr) Expr) (Expr, error) {
	items, ok := val.([]any)
	if !ok {
		return Expr{}, fmt.Errorf("authz: combinator value must be a list of expression objects")
	}
	children := make([]Expr, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return Expr{}, fmt.Errorf("authz: combinator entry must be an expression object")
		}
		child, err := DecodeExprMap(obj)
		if err != nil {
			return Expr{}, err
		}
		children = append(children, child)
	}
	return combine(children...), nil
}

// ParseResourceKind parses the lowercase camelCase spelling produced by
// [ResourceKind.String] back into a ResourceKind, used both by
// [DecodeExprMap]'s "is" atom and by a config file's resource.kind field
// (SPEC_FULL §10.3).
func ParseResourceKind(s string) (ResourceKind, error) {
	switch s {
	case ResourceDataType.String():
		return ResourceDataType, nil
	case ResourcePropertyType.String():
		return ResourcePropertyType, nil
	case ResourceEntityType.String():
		return ResourceEntityType, nil
	case ResourceEntity.String():
		return ResourceEntity, nil
	default:
		return 0, fmt.Errorf("authz: unknown resource kind %q", s)
	}
}

func asInt(val any) (int, error) {
	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case uint64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("value %v is not a number", val)
	}
}
