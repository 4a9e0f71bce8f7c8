package filter

import (
	"encoding/json"
	"fmt"

	"github.com/MrWong99/entigraph/pkg/grapherr"
	"github.com/MrWong99/entigraph/pkg/ontology"
)

// Encode and Decode implement spec §8's filter round-trip invariant:
// decode(encode(F)) = F for every Filter the planner accepts. The wire
// format names Kind and Segment by string rather than their numeric
// iota so the encoding is stable across reorderings of the const blocks.

var segmentNames = map[Segment]string{
	SegmentUuid:              "uuid",
	SegmentWebId:             "webId",
	SegmentDraftId:           "draftId",
	SegmentArchived:          "archived",
	SegmentOwnedById:         "ownedById",
	SegmentRecordCreatedById: "recordCreatedById",
	SegmentFetchedAt:         "fetchedAt",
	SegmentBaseUrl:           "baseUrl",
	SegmentVersion:           "version",
	SegmentDecisionTime:      "decisionTime",
	SegmentTransactionTime:   "transactionTime",
	SegmentTypeBaseUrl:       "typeBaseUrl",
	SegmentTypeVersionedUrl:  "typeVersionedUrl",
	SegmentProperties:        "properties",
	SegmentLeftEntityUuid:    "leftEntityUuid",
	SegmentRightEntityUuid:   "rightEntityUuid",
	SegmentIsOfType:          "isOfType",
}

func (s Segment) String() string {
	if name, ok := segmentNames[s]; ok {
		return name
	}
	return "unknown"
}

func parseSegment(name string) (Segment, error) {
	for s, n := range segmentNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("filter: unknown path segment %q", name)
}

var kindNames = map[Kind]string{
	All: "all", Any: "any", Not: "not",
	Equal: "equal", NotEqual: "notEqual",
	Less: "less", LessOrEqual: "lessOrEqual",
	Greater: "greater", GreaterOrEqual: "greaterOrEqual",
	In: "in", Overlap: "overlap", Contains: "contains",
	StartsWith: "startsWith", EndsWith: "endsWith",
	ContainsSegment: "containsSegment",
}

func parseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("filter: unknown kind %q", name)
}

type pathWire struct {
	Segment    string   `json:"segment"`
	Properties []string `json:"properties,omitempty"`
}

func (p Path) wire() pathWire {
	w := pathWire{Segment: p.Segment.String()}
	for _, b := range p.Properties {
		w.Properties = append(w.Properties, string(b))
	}
	return w
}

func (w pathWire) path() (Path, error) {
	seg, err := parseSegment(w.Segment)
	if err != nil {
		return Path{}, err
	}
	p := Path{Segment: seg}
	for _, s := range w.Properties {
		base, err := ontology.NewBaseUrl(s)
		if err != nil {
			return Path{}, grapherr.Wrap(err, "filter: decode path property base")
		}
		p.Properties = append(p.Properties, base)
	}
	return p, nil
}

type filterWire struct {
	Kind     string          `json:"kind"`
	Children []filterWire    `json:"children,omitempty"`
	Path     *pathWire       `json:"path,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`
	Values   []json.RawMessage `json:"values,omitempty"`
}

func (f Filter) toWire() (filterWire, error) {
	w := filterWire{Kind: f.Kind.String()}
	for _, c := range f.Children {
		cw, err := c.toWire()
		if err != nil {
			return filterWire{}, err
		}
		w.Children = append(w.Children, cw)
	}
	if f.Kind != All && f.Kind != Any && f.Kind != Not {
		pw := f.Path.wire()
		w.Path = &pw
		if f.Value != nil {
			raw, err := json.Marshal(f.Value)
			if err != nil {
				return filterWire{}, grapherr.Wrap(err, "filter: encode value")
			}
			w.Value = raw
		}
		for _, v := range f.Values {
			raw, err := json.Marshal(v)
			if err != nil {
				return filterWire{}, grapherr.Wrap(err, "filter: encode values")
			}
			w.Values = append(w.Values, raw)
		}
	}
	return w, nil
}

func (w filterWire) fromWire() (Filter, error) {
	kind, err := parseKind(w.Kind)
	if err != nil {
		return Filter{}, err
	}
	f := Filter{Kind: kind}
	for _, cw := range w.Children {
		c, err := cw.fromWire()
		if err != nil {
			return Filter{}, err
		}
		f.Children = append(f.Children, c)
	}
	if w.Path != nil {
		p, err := w.Path.path()
		if err != nil {
			return Filter{}, err
		}
		f.Path = p
	}
	if len(w.Value) > 0 {
		var v any
		if err := json.Unmarshal(w.Value, &v); err != nil {
			return Filter{}, grapherr.Wrap(err, "filter: decode value")
		}
		f.Value = v
	}
	for _, raw := range w.Values {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return Filter{}, grapherr.Wrap(err, "filter: decode values")
		}
		f.Values = append(f.Values, v)
	}
	return f, nil
}

// Encode serialises f to its canonical JSON wire form.
func Encode(f Filter) ([]byte, error) {
	w, err := f.toWire()
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(w)
	if err != nil {
		return nil, grapherr.Wrap(err, "filter: marshal wire filter")
	}
	return out, nil
}

// Decode parses the JSON produced by [Encode] back into a Filter.
func Decode(data []byte) (Filter, error) {
	var w filterWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Filter{}, grapherr.Wrap(err, "filter: unmarshal wire filter")
	}
	return w.fromWire()
}
