package entity

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MrWong99/entigraph/pkg/ontology"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var gjsonSpecialChars = []string{`\`, `.`, `*`, `?`, `|`}

// EscapeBaseUrlSegment escapes a BaseUrl for safe use as one segment of a
// gjson/sjson path: base URLs contain dots and slashes, which gjson would
// otherwise read as nested-path separators and wildcards.
func EscapeBaseUrlSegment(base ontology.BaseUrl) string {
	s := string(base)
	for _, c := range gjsonSpecialChars {
		s = strings.ReplaceAll(s, c, `\`+c)
	}
	return s
}

// PathForBaseUrl returns the gjson/sjson path addressing the top-level
// property stored under base. Callers build deeper paths (into array
// elements or nested objects) by appending ".<segment>" using
// EscapeBaseUrlSegment on every further BaseUrl segment.
func PathForBaseUrl(base ontology.BaseUrl) string {
	return EscapeBaseUrlSegment(base)
}

// ApplyPatch applies ops to props in order, returning a new PropertyObject.
// All ops succeed or none are applied (spec §4.3: "each op is validated in
// order; all succeed or none"). Paths address the tree the way gjson/sjson
// address JSON documents, rooted at the property object's base URLs.
func ApplyPatch(props PropertyObject, ops []PatchOp) (PropertyObject, error) {
	raw, err := marshalPropertyObject(props)
	if err != nil {
		return nil, fmt.Errorf("entity: marshal properties: %w", err)
	}
	doc := string(raw)

	for i, op := range ops {
		switch op.Kind {
		case PatchRemove:
			if !gjson.Get(doc, op.Path).Exists() {
				return nil, fmt.Errorf("entity: patch[%d]: remove path %q does not exist", i, op.Path)
			}
			next, err := sjson.Delete(doc, op.Path)
			if err != nil {
				return nil, fmt.Errorf("entity: patch[%d]: remove %q: %w", i, op.Path, err)
			}
			doc = next

		case PatchReplace:
			if !gjson.Get(doc, op.Path).Exists() {
				return nil, fmt.Errorf("entity: patch[%d]: replace path %q does not exist", i, op.Path)
			}
			next, err := setPatchValue(doc, op.Path, op.Value)
			if err != nil {
				return nil, fmt.Errorf("entity: patch[%d]: replace %q: %w", i, op.Path, err)
			}
			doc = next

		case PatchAdd:
			next, err := setPatchValue(doc, op.Path, op.Value)
			if err != nil {
				return nil, fmt.Errorf("entity: patch[%d]: add %q: %w", i, op.Path, err)
			}
			doc = next

		default:
			return nil, fmt.Errorf("entity: patch[%d]: unknown op kind %d", i, op.Kind)
		}
	}

	return unmarshalPropertyObject([]byte(doc))
}

func setPatchValue(doc, path string, value Property) (string, error) {
	raw, err := marshalProperty(value)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	return sjson.SetRawOptions(doc, path, string(raw), &sjson.Options{Optimistic: true, ReplaceInPlace: false})
}

func marshalPropertyObject(props PropertyObject) ([]byte, error) {
	m := make(map[string]json.RawMessage, len(props))
	for base, p := range props {
		raw, err := marshalProperty(p)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", base, err)
		}
		m[string(base)] = raw
	}
	return json.Marshal(m)
}

func marshalProperty(p Property) ([]byte, error) {
	switch p.Kind {
	case PropertyValue:
		if len(p.Value) == 0 {
			return []byte("null"), nil
		}
		return p.Value, nil
	case PropertyArray:
		items := make([]json.RawMessage, 0, len(p.Array))
		for _, item := range p.Array {
			raw, err := marshalProperty(item)
			if err != nil {
				return nil, err
			}
			items = append(items, raw)
		}
		return json.Marshal(items)
	case PropertyObjectKind:
		return marshalPropertyObject(p.Object)
	default:
		return nil, fmt.Errorf("unknown property kind %d", p.Kind)
	}
}

func unmarshalPropertyObject(raw []byte) (PropertyObject, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode property object: %w", err)
	}
	out := make(PropertyObject, len(m))
	for base, v := range m {
		p, err := unmarshalProperty(v)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", base, err)
		}
		out[ontology.BaseUrl(base)] = p
	}
	return out, nil
}

func unmarshalProperty(raw json.RawMessage) (Property, error) {
	trimmed := gjson.ParseBytes(raw)
	switch {
	case trimmed.IsArray():
		var items []Property
		var outerErr error
		trimmed.ForEach(func(_, v gjson.Result) bool {
			p, err := unmarshalProperty([]byte(v.Raw))
			if err != nil {
				outerErr = err
				return false
			}
			items = append(items, p)
			return true
		})
		if outerErr != nil {
			return Property{}, outerErr
		}
		return NewArrayProperty(items), nil
	case trimmed.IsObject():
		obj, err := unmarshalPropertyObject(raw)
		if err != nil {
			return Property{}, err
		}
		return NewObjectProperty(obj), nil
	default:
		return NewValueProperty(json.RawMessage(raw)), nil
	}
}
