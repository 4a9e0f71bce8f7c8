package filter_test

import (
	"testing"

	"github.com/MrWong99/entigraph/pkg/filter"
	"github.com/MrWong99/entigraph/pkg/ontology"
)

func mustBase(t *testing.T, raw string) ontology.BaseUrl {
	t.Helper()
	b, err := ontology.NewBaseUrl(raw)
	if err != nil {
		t.Fatalf("NewBaseUrl(%q): %v", raw, err)
	}
	return b
}

func TestFilterConstructors_SetKind(t *testing.T) {
	path := filter.EntityArchived()

	cases := []struct {
		name string
		f    filter.Filter
		want filter.Kind
	}{
		{"Equals", filter.Equals(path, true), filter.Equal},
		{"NotEquals", filter.NotEquals(path, true), filter.NotEqual},
		{"LessThan", filter.LessThan(path, 1), filter.Less},
		{"LessOrEqualTo", filter.LessOrEqualTo(path, 1), filter.LessOrEqual},
		{"GreaterThan", filter.GreaterThan(path, 1), filter.Greater},
		{"GreaterOrEqualTo", filter.GreaterOrEqualTo(path, 1), filter.GreaterOrEqual},
		{"InValues", filter.InValues(path, 1, 2), filter.In},
		{"OverlapsWith", filter.OverlapsWith(path, 1), filter.Overlap},
		{"ContainsValue", filter.ContainsValue(path, 1), filter.Contains},
		{"HasPrefix", filter.HasPrefix(path, "x"), filter.StartsWith},
		{"HasSuffix", filter.HasSuffix(path, "x"), filter.EndsWith},
		{"HasSegment", filter.HasSegment(path, "x"), filter.ContainsSegment},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.f.Kind != tc.want {
				t.Errorf("got Kind %s, want %s", tc.f.Kind, tc.want)
			}
		})
	}
}

func TestAllOfAnyOfNegate(t *testing.T) {
	a := filter.Equals(filter.EntityArchived(), true)
	b := filter.Equals(filter.EntityArchived(), false)

	all := filter.AllOf(a, b)
	if all.Kind != filter.All || len(all.Children) != 2 {
		t.Fatalf("AllOf: got %+v", all)
	}

	any := filter.AnyOf(a, b)
	if any.Kind != filter.Any || len(any.Children) != 2 {
		t.Fatalf("AnyOf: got %+v", any)
	}

	neg := filter.Negate(a)
	if neg.Kind != filter.Not || len(neg.Children) != 1 {
		t.Fatalf("Negate: got %+v", neg)
	}
}

func TestEntityProperties_CapturesChain(t *testing.T) {
	height := mustBase(t, "https://example.com/property-type/height/")
	unit := mustBase(t, "https://example.com/property-type/unit/")

	p := filter.EntityProperties(height, unit)
	if p.Segment != filter.SegmentProperties {
		t.Fatalf("got segment %v", p.Segment)
	}
	if len(p.Properties) != 2 || p.Properties[0] != height || p.Properties[1] != unit {
		t.Fatalf("got properties %v", p.Properties)
	}
}

func TestKindString_CoversAllValues(t *testing.T) {
	kinds := []filter.Kind{
		filter.All, filter.Any, filter.Not,
		filter.Equal, filter.NotEqual, filter.Less, filter.LessOrEqual,
		filter.Greater, filter.GreaterOrEqual, filter.In, filter.Overlap,
		filter.Contains, filter.StartsWith, filter.EndsWith, filter.ContainsSegment,
	}
	for _, k := range kinds {
		if k.String() == "unknown" {
			t.Errorf("Kind %d stringified to unknown", k)
		}
	}
}
