package filter

import "github.com/MrWong99/entigraph/pkg/ontology"

// Segment names one step of a [Path]. Segment values are shared across
// resource kinds where the underlying concept is the same (uuid, webId,
// archived, the two temporal axes); kind-specific segments like
// SegmentProperties or SegmentLeftEntityUuid only resolve against the
// resource kinds their builder functions are defined for (spec §5.2's
// per-resource-kind Path enums).
type Segment int

const (
	SegmentUuid Segment = iota
	SegmentWebId
	SegmentDraftId
	SegmentArchived
	SegmentOwnedById
	SegmentRecordCreatedById
	SegmentFetchedAt
	SegmentBaseUrl
	SegmentVersion
	SegmentDecisionTime
	SegmentTransactionTime
	SegmentTypeBaseUrl
	SegmentTypeVersionedUrl
	SegmentProperties
	SegmentLeftEntityUuid
	SegmentRightEntityUuid
	SegmentIsOfType
)

// Path is one addressable attribute of a resource, resolved by the planner
// into a SQL column expression (spec §5.2). Properties is populated only
// when Segment is SegmentProperties: it names the dotted BaseUrl chain into
// the property tree (e.g. EntityProperties("https://…/height/") for a top-level
// scalar, or two entries for a nested object member).
type Path struct {
	Segment    Segment
	Properties []ontology.BaseUrl
}

// --- Ontology element paths (data types, property types, entity types) ---

// OntologyBaseUrl addresses an element's BaseUrl.
func OntologyBaseUrl() Path { return Path{Segment: SegmentBaseUrl} }

// OntologyVersion addresses an element's version number.
func OntologyVersion() Path { return Path{Segment: SegmentVersion} }

// OntologyOwnedById addresses the WebId that owns a local element.
func OntologyOwnedById() Path { return Path{Segment: SegmentOwnedById} }

// OntologyRecordCreatedById addresses the actor who registered the element.
func OntologyRecordCreatedById() Path { return Path{Segment: SegmentRecordCreatedById} }

// OntologyFetchedAt addresses when a remote element was last fetched.
func OntologyFetchedAt() Path { return Path{Segment: SegmentFetchedAt} }

// OntologyArchived addresses an element's archived flag.
func OntologyArchived() Path { return Path{Segment: SegmentArchived} }

// OntologyDecisionTime addresses the element edition's decision-time interval.
func OntologyDecisionTime() Path { return Path{Segment: SegmentDecisionTime} }

// OntologyTransactionTime addresses the element edition's transaction-time interval.
func OntologyTransactionTime() Path { return Path{Segment: SegmentTransactionTime} }

// --- Entity paths ---

// EntityUuid addresses an entity's uuid.
func EntityUuid() Path { return Path{Segment: SegmentUuid} }

// EntityWebId addresses an entity's owning web.
func EntityWebId() Path { return Path{Segment: SegmentWebId} }

// EntityDraftId addresses a draft entity's draft id (null for canonical entities).
func EntityDraftId() Path { return Path{Segment: SegmentDraftId} }

// EntityArchived addresses an entity edition's archived flag.
func EntityArchived() Path { return Path{Segment: SegmentArchived} }

// EntityRecordCreatedById addresses the actor who created the edition.
func EntityRecordCreatedById() Path { return Path{Segment: SegmentRecordCreatedById} }

// EntityDecisionTime addresses an entity edition's decision-time interval.
func EntityDecisionTime() Path { return Path{Segment: SegmentDecisionTime} }

// EntityTransactionTime addresses an entity edition's transaction-time interval.
func EntityTransactionTime() Path { return Path{Segment: SegmentTransactionTime} }

// EntityTypeBaseUrl addresses the base URL of any entity type the entity
// carries (spec §3.3: entities may carry more than one type).
func EntityTypeBaseUrl() Path { return Path{Segment: SegmentTypeBaseUrl} }

// EntityTypeVersionedUrl addresses the exact VersionedUrl of any entity type
// the entity carries.
func EntityTypeVersionedUrl() Path { return Path{Segment: SegmentTypeVersionedUrl} }

// EntityProperties addresses a node in the property tree, following base to
// a (possibly nested) property. A single-element base addresses a top-level
// property; additional elements descend into nested property objects.
func EntityProperties(base ...ontology.BaseUrl) Path {
	return Path{Segment: SegmentProperties, Properties: base}
}

// EntityLeftUuid addresses a link entity's left endpoint.
func EntityLeftUuid() Path { return Path{Segment: SegmentLeftEntityUuid} }

// EntityRightUuid addresses a link entity's right endpoint.
func EntityRightUuid() Path { return Path{Segment: SegmentRightEntityUuid} }
