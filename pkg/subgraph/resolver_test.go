package subgraph_test

import (
	"context"
	"testing"
	"time"

	"github.com/MrWong99/entigraph/internal/txpermit"
	"github.com/MrWong99/entigraph/pkg/entity"
	"github.com/MrWong99/entigraph/pkg/ids"
	"github.com/MrWong99/entigraph/pkg/ontology"
	"github.com/MrWong99/entigraph/pkg/subgraph"
	"github.com/MrWong99/entigraph/pkg/temporal"
)

// fakeOntologySource is an in-memory OntologySource keyed by VersionedUrl.
type fakeOntologySource map[ontology.VersionedUrl]ontology.Record

func (f fakeOntologySource) Get(ctx context.Context, id ontology.VersionedUrl) (ontology.Record, error) {
	rec, ok := f[id]
	if !ok {
		return ontology.Record{}, errNotFound
	}
	return rec, nil
}

type fakeEntitySource struct {
	entities map[entity.EntityId]entity.Entity
}

func (f *fakeEntitySource) GetEntity(ctx context.Context, id entity.EntityId) (entity.Entity, error) {
	e, ok := f.entities[id]
	if !ok {
		return entity.Entity{}, errNotFound
	}
	return e, nil
}

func (f *fakeEntitySource) LinksOf(ctx context.Context, id entity.EntityId, axes temporal.TemporalAxes) ([]entity.Entity, error) {
	var out []entity.Entity
	for _, e := range f.entities {
		if e.LinkData == nil {
			continue
		}
		if e.LinkData.LeftEntityId == id || e.LinkData.RightEntityId == id {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeNotFound struct{}

func (fakeNotFound) Error() string { return "not found" }

var errNotFound = fakeNotFound{}

func base(t *testing.T, raw string) ontology.BaseUrl {
	t.Helper()
	b, err := ontology.NewBaseUrl(raw)
	if err != nil {
		t.Fatalf("NewBaseUrl(%q): %v", raw, err)
	}
	return b
}

func testAxes() temporal.TemporalAxes {
	end := temporal.ExclusiveBound(temporal.TimestampFrom[temporal.DecisionTime](time.Now().Add(time.Hour)))
	variable, _ := temporal.NewLimitedInterval(temporal.UnboundedBound[temporal.DecisionTime](), end)
	return temporal.NewDecisionTimeAxes(temporal.Now[temporal.TransactionTime](), variable)
}

func TestResolveDepths_InheritsFromChain(t *testing.T) {
	grandparent := ontology.VersionedUrl{Base: base(t, "https://example.com/entity-type/organism/"), Version: 1}
	parent := ontology.VersionedUrl{Base: base(t, "https://example.com/entity-type/animal/"), Version: 1}
	child := ontology.VersionedUrl{Base: base(t, "https://example.com/entity-type/dog/"), Version: 1}

	ont := fakeOntologySource{
		child:       ontology.Record{Id: child, Kind: ontology.KindEntityType, Relationships: []ontology.RelationshipEdge{{Kind: ontology.EdgeInheritsFrom, Target: parent}}},
		parent:      ontology.Record{Id: parent, Kind: ontology.KindEntityType, Relationships: []ontology.RelationshipEdge{{Kind: ontology.EdgeInheritsFrom, Target: grandparent}}},
		grandparent: ontology.Record{Id: grandparent, Kind: ontology.KindEntityType},
	}
	ents := &fakeEntitySource{entities: map[entity.EntityId]entity.Entity{}}

	r := subgraph.NewResolver(ont, ents, nil)
	root := subgraph.OntologyVertexId(child)

	g, err := r.Resolve(context.Background(), subgraph.Query{
		Roots:       []subgraph.VertexId{root},
		GraphDepths: subgraph.GraphResolveDepths{InheritsFrom: 1},
		Axes:        testAxes(),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if _, ok := g.Vertices[root]; !ok {
		t.Fatal("root not present in subgraph")
	}
	if _, ok := g.Vertices[subgraph.OntologyVertexId(parent)]; !ok {
		t.Error("direct parent not present")
	}
	if _, ok := g.Vertices[subgraph.OntologyVertexId(grandparent)]; ok {
		t.Error("grandparent should not be reachable with inheritsFrom budget 1")
	}
}

func TestResolveDepths_IsOfType(t *testing.T) {
	typeId := ontology.VersionedUrl{Base: base(t, "https://example.com/entity-type/person/"), Version: 1}
	ont := fakeOntologySource{typeId: ontology.Record{Id: typeId, Kind: ontology.KindEntityType}}

	web := ids.NewWebId()
	eid := entity.EntityId{WebId: web, EntityUuid: ids.NewEntityUuid()}
	ents := &fakeEntitySource{entities: map[entity.EntityId]entity.Entity{
		eid: {Id: eid, Types: []ontology.EntityTypeId{ontology.EntityTypeId(typeId)}},
	}}

	r := subgraph.NewResolver(ont, ents, nil)
	root := subgraph.EntityVertexId(eid)

	g, err := r.Resolve(context.Background(), subgraph.Query{
		Roots:       []subgraph.VertexId{root},
		GraphDepths: subgraph.GraphResolveDepths{IsOfType: true},
		Axes:        testAxes(),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := g.Vertices[subgraph.OntologyVertexId(typeId)]; !ok {
		t.Error("entity type vertex not reached via is_of_type")
	}
}

func TestResolveTraversalPath_HasLeftEntity(t *testing.T) {
	web := ids.NewWebId()
	left := entity.EntityId{WebId: web, EntityUuid: ids.NewEntityUuid()}
	right := entity.EntityId{WebId: web, EntityUuid: ids.NewEntityUuid()}
	link := entity.EntityId{WebId: web, EntityUuid: ids.NewEntityUuid()}

	ents := &fakeEntitySource{entities: map[entity.EntityId]entity.Entity{
		left:  {Id: left},
		right: {Id: right},
		link:  {Id: link, LinkData: &entity.LinkData{LeftEntityId: left, RightEntityId: right}},
	}}

	r := subgraph.NewResolver(fakeOntologySource{}, ents, nil)
	root := subgraph.EntityVertexId(left)

	g, err := r.Resolve(context.Background(), subgraph.Query{
		Roots: []subgraph.VertexId{root},
		TraversalPaths: []subgraph.TraversalPath{
			{{Kind: subgraph.EdgeHasLeftEntity, Direction: subgraph.Incoming}},
		},
		Axes: testAxes(),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := g.Vertices[subgraph.EntityVertexId(link)]; !ok {
		t.Error("link entity not reached via HasLeftEntity incoming")
	}
}

func TestResolve_UnionOfDepthsAndPaths(t *testing.T) {
	typeId := ontology.VersionedUrl{Base: base(t, "https://example.com/entity-type/person/"), Version: 1}
	ont := fakeOntologySource{typeId: ontology.Record{Id: typeId, Kind: ontology.KindEntityType}}

	web := ids.NewWebId()
	left := entity.EntityId{WebId: web, EntityUuid: ids.NewEntityUuid()}
	right := entity.EntityId{WebId: web, EntityUuid: ids.NewEntityUuid()}
	link := entity.EntityId{WebId: web, EntityUuid: ids.NewEntityUuid()}

	ents := &fakeEntitySource{entities: map[entity.EntityId]entity.Entity{
		left:  {Id: left, Types: []ontology.EntityTypeId{ontology.EntityTypeId(typeId)}},
		right: {Id: right},
		link:  {Id: link, LinkData: &entity.LinkData{LeftEntityId: left, RightEntityId: right}},
	}}

	r := subgraph.NewResolver(ont, ents, nil)
	root := subgraph.EntityVertexId(left)

	g, err := r.Resolve(context.Background(), subgraph.Query{
		Roots:       []subgraph.VertexId{root},
		GraphDepths: subgraph.GraphResolveDepths{IsOfType: true},
		TraversalPaths: []subgraph.TraversalPath{
			{{Kind: subgraph.EdgeHasLeftEntity, Direction: subgraph.Incoming}},
		},
		Axes: testAxes(),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := g.Vertices[subgraph.OntologyVertexId(typeId)]; !ok {
		t.Error("missing vertex reached via resolve-depths leg of the union")
	}
	if _, ok := g.Vertices[subgraph.EntityVertexId(link)]; !ok {
		t.Error("missing vertex reached via traversal-paths leg of the union")
	}
}

// blockingEntitySource blocks GetEntity for one designated entity id until
// its context is cancelled, letting a test observe whether a superseded
// Resolve call actually unwinds.
type blockingEntitySource struct {
	*fakeEntitySource
	blockOn entity.EntityId
}

func (f *blockingEntitySource) GetEntity(ctx context.Context, id entity.EntityId) (entity.Entity, error) {
	if id == f.blockOn {
		<-ctx.Done()
		return entity.Entity{}, ctx.Err()
	}
	return f.fakeEntitySource.GetEntity(ctx, id)
}

func TestResolve_SessionKeySupersedesPriorResolve(t *testing.T) {
	web := ids.NewWebId()
	stale := entity.EntityId{WebId: web, EntityUuid: ids.NewEntityUuid()}
	fresh := entity.EntityId{WebId: web, EntityUuid: ids.NewEntityUuid()}

	ents := &blockingEntitySource{
		fakeEntitySource: &fakeEntitySource{entities: map[entity.EntityId]entity.Entity{
			stale: {Id: stale},
			fresh: {Id: fresh},
		}},
		blockOn: stale,
	}

	permits := txpermit.NewCollection()
	r := subgraph.NewResolver(fakeOntologySource{}, ents, nil, subgraph.WithPermits(permits))

	staleDone := make(chan error, 1)
	go func() {
		_, err := r.Resolve(context.Background(), subgraph.Query{
			Roots:      []subgraph.VertexId{subgraph.EntityVertexId(stale)},
			SessionKey: "session-1",
			Axes:       testAxes(),
		})
		staleDone <- err
	}()

	// Give the stale resolve a chance to start and register its permit.
	for i := 0; i < 100 && permits.Len() == 0; i++ {
		time.Sleep(time.Millisecond)
	}
	if permits.Len() != 1 {
		t.Fatal("expected the stale resolve to have registered a permit")
	}

	g, err := r.Resolve(context.Background(), subgraph.Query{
		Roots:      []subgraph.VertexId{subgraph.EntityVertexId(fresh)},
		SessionKey: "session-1",
		Axes:       testAxes(),
	})
	if err != nil {
		t.Fatalf("fresh Resolve: %v", err)
	}
	if _, ok := g.Vertices[subgraph.EntityVertexId(fresh)]; !ok {
		t.Error("fresh resolve should have loaded its root")
	}

	select {
	case err := <-staleDone:
		if err == nil {
			t.Error("expected the superseded resolve to fail once its permit was cancelled")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("superseded resolve did not unwind after being superseded")
	}
}
