// Package entity implements the entity store (spec §3.3, §4.3): entity
// identity, the property tree, editions, link entities, and the
// create/patch operations that validate and version them.
package entity

import (
	"encoding/json"

	"github.com/MrWong99/entigraph/pkg/ids"
	"github.com/MrWong99/entigraph/pkg/ontology"
	"github.com/MrWong99/entigraph/pkg/temporal"
)

// EntityId identifies an entity, optionally scoped to a draft (spec §3.3).
type EntityId struct {
	WebId      ids.WebId
	EntityUuid ids.EntityUuid
	DraftId    *ids.DraftId
}

// IsDraft reports whether this id names a draft edition rather than the
// canonical entity.
func (id EntityId) IsDraft() bool { return id.DraftId != nil }

// PropertyKind discriminates the three [Property] variants.
type PropertyKind int

const (
	PropertyValue PropertyKind = iota
	PropertyArray
	PropertyObjectKind
)

// Property is a node in the property tree: a scalar JSON value, an ordered
// list of properties, or a nested [PropertyObject] (spec §3.3).
type Property struct {
	Kind   PropertyKind
	Value  json.RawMessage
	Array  []Property
	Object PropertyObject
}

// NewValueProperty wraps a scalar JSON value.
func NewValueProperty(v json.RawMessage) Property { return Property{Kind: PropertyValue, Value: v} }

// NewArrayProperty wraps an ordered list of properties.
func NewArrayProperty(items []Property) Property { return Property{Kind: PropertyArray, Array: items} }

// NewObjectProperty wraps a nested property object.
func NewObjectProperty(obj PropertyObject) Property {
	return Property{Kind: PropertyObjectKind, Object: obj}
}

// PropertyObject maps a BaseUrl to the property stored under it.
type PropertyObject map[ontology.BaseUrl]Property

// PropertyMetadata mirrors the shape of a [PropertyObject] but holds
// provenance and confidence at each path instead of values (spec §3.3).
type PropertyMetadata struct {
	Confidence     *float64
	DataTypeId     *ontology.DataTypeId
	Provenance     Provenance
	CanonicalValue []json.RawMessage
	Children       map[ontology.BaseUrl]PropertyMetadata
	Elements       []PropertyMetadata
}

// Provenance records who/what produced a value or edition, and when.
type Provenance struct {
	CreatedById ids.ActorId
	Source      string
}

// LinkData marks an entity as a link between two other entities. Its
// presence is stable across an entity's entire lifetime (spec §3.3
// invariant: link and non-link entities never mix editions).
type LinkData struct {
	LeftEntityId   EntityId
	RightEntityId  EntityId
	LeftConfidence *float64

	RightConfidence *float64
}

// TemporalVersioning pairs the decision-time and transaction-time intervals
// an edition is alive across.
type TemporalVersioning struct {
	DecisionTime    temporal.Interval[temporal.DecisionTime]
	TransactionTime temporal.Interval[temporal.TransactionTime]
}

// Edition is one immutable snapshot of an entity (spec §3.3).
type Edition struct {
	EditionId  ids.EntityEditionId
	EntityId   EntityId
	Types      []ontology.EntityTypeId
	Properties PropertyObject
	Metadata   PropertyMetadata
	LinkData   *LinkData
	Versioning TemporalVersioning
	Provenance Provenance
	Archived   bool
}

// IsLink reports whether this edition is a link entity.
func (e Edition) IsLink() bool { return e.LinkData != nil }

// Entity is the current-time view of an entity: its identity plus its
// latest live edition's content (spec §3.3).
type Entity struct {
	Id         EntityId
	Types      []ontology.EntityTypeId
	Properties PropertyObject
	Metadata   PropertyMetadata
	LinkData   *LinkData
	Versioning TemporalVersioning
	Provenance Provenance
}

// IsLink reports whether this entity is a link entity.
func (e Entity) IsLink() bool { return e.LinkData != nil }
