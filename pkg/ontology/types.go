// Package ontology implements the identity and ontology catalog (spec §3.2,
// §4.2): versioned data/property/entity type records addressed by
// BaseUrl-rooted VersionedUrls, with create/get/update/archive operations
// grounded on the teacher's internal/entity Store/MemStore shape.
package ontology

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/MrWong99/entigraph/pkg/ids"
)

// BaseUrl is an absolute URL with a trailing slash that roots a family of
// ontology type versions. Case is preserved (spec §3.2).
type BaseUrl string

// NewBaseUrl validates and returns a BaseUrl. The input must be an absolute
// URL ending in "/".
func NewBaseUrl(raw string) (BaseUrl, error) {
	if raw == "" {
		return "", fmt.Errorf("ontology: base url must not be empty")
	}
	if !strings.HasSuffix(raw, "/") {
		return "", fmt.Errorf("ontology: base url %q must end with a trailing slash", raw)
	}
	if !strings.Contains(raw, "://") {
		return "", fmt.Errorf("ontology: base url %q must be absolute", raw)
	}
	return BaseUrl(raw), nil
}

func (b BaseUrl) String() string { return string(b) }

// OntologyTypeVersion is a non-negative integer, monotonically increasing
// per BaseUrl, starting at 1.
type OntologyTypeVersion uint32

// VersionedUrl uniquely addresses one edition of an ontology type.
type VersionedUrl struct {
	Base    BaseUrl
	Version OntologyTypeVersion
}

// String renders the canonical "{base}v/{n}" wire form.
func (v VersionedUrl) String() string {
	return fmt.Sprintf("%sv/%d", v.Base, v.Version)
}

// ParseVersionedUrl parses the canonical "{base}v/{n}" wire form (spec §6)
// back into a VersionedUrl.
func ParseVersionedUrl(raw string) (VersionedUrl, error) {
	idx := strings.LastIndex(raw, "v/")
	if idx < 0 {
		return VersionedUrl{}, fmt.Errorf("ontology: versioned url %q missing \"v/{n}\" suffix", raw)
	}
	base, err := NewBaseUrl(raw[:idx])
	if err != nil {
		return VersionedUrl{}, err
	}
	var n uint64
	if _, err := fmt.Sscanf(raw[idx+2:], "%d", &n); err != nil {
		return VersionedUrl{}, fmt.Errorf("ontology: versioned url %q has a non-numeric version: %w", raw, err)
	}
	return VersionedUrl{Base: base, Version: OntologyTypeVersion(n)}, nil
}

// DataTypeId, PropertyTypeId and EntityTypeId are transparent wrappers over
// VersionedUrl, one per ontology kind (spec §3.2).
type (
	DataTypeId     VersionedUrl
	PropertyTypeId VersionedUrl
	EntityTypeId   VersionedUrl
)

func (d DataTypeId) String() string     { return VersionedUrl(d).String() }
func (p PropertyTypeId) String() string { return VersionedUrl(p).String() }
func (e EntityTypeId) String() string   { return VersionedUrl(e).String() }

// Kind discriminates the three ontology type families. All three share an
// identical operation contract (spec §4.2).
type Kind int

const (
	KindDataType Kind = iota
	KindPropertyType
	KindEntityType
)

func (k Kind) String() string {
	switch k {
	case KindDataType:
		return "dataType"
	case KindPropertyType:
		return "propertyType"
	case KindEntityType:
		return "entityType"
	default:
		return fmt.Sprintf("ontology.Kind(%d)", int(k))
	}
}

// OntologyElementMetadata is the envelope carried by every ontology type
// edition (spec §3.2). OwnedBy present means local ownership; absent means
// the record is mirrored from a remote source.
type OntologyElementMetadata struct {
	Id              VersionedUrl
	OwnedBy         *ids.WebId
	RecordCreatedBy ids.ActorId
	FetchedAt       *time.Time
}

// IsRemote reports whether this edition is mirrored rather than locally owned.
func (m OntologyElementMetadata) IsRemote() bool { return m.OwnedBy == nil }

// EdgeKind discriminates the ontology→ontology edge kinds the subgraph
// resolver's resolve-depths budget is keyed on (spec §4.6).
type EdgeKind int

const (
	EdgeInheritsFrom EdgeKind = iota
	EdgeConstrainsValuesOn
	EdgeConstrainsPropertiesOn
	EdgeConstrainsLinksOn
	EdgeConstrainsLinkDestinationsOn
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
	default:
		return fmt.Sprintf("ontology.EdgeKind(%d)", int(k))
	}
}

// RelationshipEdge is one outgoing ontology→ontology reference, typed by
// edge kind so the subgraph resolver can apply a per-kind resolve-depth
// budget (spec §4.6). Persisted as a row in the flat ontology_edges table
// (SPEC_FULL §12), not nested inside the schema document.
type RelationshipEdge struct {
	Kind   EdgeKind
	Target VersionedUrl
}

// Record is one stored edition of an ontology type: its identity, raw JSON
// Schema document, metadata envelope, and archive state.
type Record struct {
	Id       VersionedUrl
	Kind     Kind
	Schema   json.RawMessage
	Metadata OntologyElementMetadata
	Archived bool

	// Relationships lists the typed edges this edition references (e.g. a
	// property type's value constraints, an entity type's property and link
	// references). Stored as ontology_edges rows by the Postgres backend
	// (SPEC_FULL §12).
	Relationships []RelationshipEdge
}

// OnConflict controls create() behaviour when (base_url, version) collides.
type OnConflict int

const (
	// OnConflictFail returns ErrAlreadyExists (the default).
	OnConflictFail OnConflict = iota
	// OnConflictSkip returns the existing record instead of failing.
	OnConflictSkip
)
