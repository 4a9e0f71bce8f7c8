// Package subgraph implements the structural query resolver (spec §4.6):
// expanding a set of root vertices into a bounded graph of ontology and
// entity vertices under either resolve-depths budgets or explicit
// traversal-paths, honouring the query's temporal axes.
package subgraph

import (
	"github.com/MrWong99/entigraph/pkg/entity"
	"github.com/MrWong99/entigraph/pkg/ids"
	"github.com/MrWong99/entigraph/pkg/ontology"
	"github.com/MrWong99/entigraph/pkg/temporal"
)

// VertexKind discriminates ontology and entity vertices within a Subgraph.
type VertexKind int

const (
	VertexOntology VertexKind = iota
	VertexEntity
)

// VertexId uniquely identifies one vertex. It is a plain value type (no
// pointer fields) so it is safe to use as a map key and to compare with ==,
// unlike [entity.EntityId] whose DraftId field is a pointer.
type VertexId struct {
	Kind       VertexKind
	Ontology   ontology.VersionedUrl
	Web        ids.WebId
	EntityUuid ids.EntityUuid
	Draft      ids.DraftId
	IsDraft    bool
}

// OntologyVertexId builds a VertexId for an ontology edition.
func OntologyVertexId(id ontology.VersionedUrl) VertexId {
	return VertexId{Kind: VertexOntology, Ontology: id}
}

// EntityVertexId builds a VertexId for an entity, folding the pointer-typed
// [entity.EntityId.DraftId] into the value-typed Draft/IsDraft pair.
func EntityVertexId(id entity.EntityId) VertexId {
	v := VertexId{Kind: VertexEntity, Web: id.WebId, EntityUuid: id.EntityUuid}
	if id.DraftId != nil {
		v.Draft = *id.DraftId
		v.IsDraft = true
	}
	return v
}

// EntityId reconstructs an [entity.EntityId] from an entity-kind VertexId.
func (v VertexId) EntityId() entity.EntityId {
	id := entity.EntityId{WebId: v.Web, EntityUuid: v.EntityUuid}
	if v.IsDraft {
		draft := v.Draft
		id.DraftId = &draft
	}
	return id
}

// EdgeKind enumerates every edge label the resolver can emit (spec §4.6).
type EdgeKind int

const (
	EdgeInheritsFrom EdgeKind = iota
	EdgeConstrainsValuesOn
	EdgeConstrainsPropertiesOn
	EdgeConstrainsLinksOn
	EdgeConstrainsLinkDestinationsOn
	EdgeIsOfType
	EdgeHasLeftEntity
	EdgeHasRightEntity
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeInheritsFrom:
		return "inheritsFrom"
	case EdgeConstrainsValuesOn:
		return "constrainsValuesOn"
	case EdgeConstrainsPropertiesOn:
		return "constrainsPropertiesOn"
	case EdgeConstrainsLinksOn:
		return "constrainsLinksOn"
	case EdgeConstrainsLinkDestinationsOn:
		return "constrainsLinkDestinationsOn"
	case EdgeIsOfType:
		return "isOfType"
	case EdgeHasLeftEntity:
		return "hasLeftEntity"
	case EdgeHasRightEntity:
		return "hasRightEntity"
	default:
		return "unknown"
	}
}

// ontologyEdgeKind converts an ontology.EdgeKind into the matching subgraph
// EdgeKind; the two enums are kept distinct because pkg/ontology must not
// import pkg/subgraph (or vice versa for traversal-only labels).
func ontologyEdgeKind(k ontology.EdgeKind) EdgeKind {
	switch k {
	case ontology.EdgeInheritsFrom:
		return EdgeInheritsFrom
	case ontology.EdgeConstrainsValuesOn:
		return EdgeConstrainsValuesOn
	case ontology.EdgeConstrainsPropertiesOn:
		return EdgeConstrainsPropertiesOn
	case ontology.EdgeConstrainsLinksOn:
		return EdgeConstrainsLinksOn
	case ontology.EdgeConstrainsLinkDestinationsOn:
		return EdgeConstrainsLinkDestinationsOn
	default:
		return EdgeConstrainsPropertiesOn
	}
}

// Direction qualifies a traversal-path step (spec §4.6: "each with
// incoming|outgoing direction").
type Direction int

const (
	Outgoing Direction = iota
	Incoming
)

// Edge is one outgoing connection from a vertex in a [Subgraph].
type Edge struct {
	Kind     EdgeKind
	Reversed bool
	RightEnd VertexId
}

// Vertex holds the resolved content of one graph node: either an ontology
// edition or an entity, never both.
type Vertex struct {
	Kind     VertexKind
	Ontology ontology.Record
	Entity   entity.Entity
}

// GraphResolveDepths is the per-edge-kind bounded-BFS budget vector for
// resolve-depths mode (spec §4.6). IsOfType is boolean: either the
// entity→ontology edge is followed once or not at all.
type GraphResolveDepths struct {
	InheritsFrom                 int
	ConstrainsValuesOn           int
	ConstrainsPropertiesOn       int
	ConstrainsLinksOn            int
	ConstrainsLinkDestinationsOn int
	IsOfType                     bool
}

func (d GraphResolveDepths) budget(k ontology.EdgeKind) int {
	switch k {
	case ontology.EdgeInheritsFrom:
		return d.InheritsFrom
	case ontology.EdgeConstrainsValuesOn:
		return d.ConstrainsValuesOn
	case ontology.EdgeConstrainsPropertiesOn:
		return d.ConstrainsPropertiesOn
	case ontology.EdgeConstrainsLinksOn:
		return d.ConstrainsLinksOn
	case ontology.EdgeConstrainsLinkDestinationsOn:
		return d.ConstrainsLinkDestinationsOn
	default:
		return 0
	}
}

// IsZero reports whether every budget is exhausted and is_of_type is unset,
// meaning resolve-depths mode contributes nothing beyond the roots.
func (d GraphResolveDepths) IsZero() bool {
	return d.InheritsFrom == 0 && d.ConstrainsValuesOn == 0 &&
		d.ConstrainsPropertiesOn == 0 && d.ConstrainsLinksOn == 0 &&
		d.ConstrainsLinkDestinationsOn == 0 && !d.IsOfType
}

// TraversalStep is one edge label in an explicit [TraversalPath].
type TraversalStep struct {
	Kind      EdgeKind
	Direction Direction
}

// TraversalPath is a literal sequence of edge steps followed from each root
// (spec §4.6 traversal-paths mode), e.g.
// [{HasLeftEntity, Incoming}, {HasRightEntity, Outgoing}].
type TraversalPath []TraversalStep

// Subgraph is the resolver's output (spec §4.6). Invariants: every vertex
// referenced by an edge exists in Vertices; Roots is a subset of the keys of
// Vertices; no vertex appears twice under the same axis-resolved window
// (enforced by VertexId being the map key).
type Subgraph struct {
	Roots    []VertexId
	Vertices map[VertexId]Vertex
	Edges    map[VertexId][]Edge
	Depths   GraphResolveDepths
	Axes     temporal.TemporalAxes
}

func newSubgraph(depths GraphResolveDepths, axes temporal.TemporalAxes) *Subgraph {
	return &Subgraph{
		Vertices: make(map[VertexId]Vertex),
		Edges:    make(map[VertexId][]Edge),
		Depths:   depths,
		Axes:     axes,
	}
}

func (g *Subgraph) addEdge(from VertexId, e Edge) {
	g.Edges[from] = append(g.Edges[from], e)
}
