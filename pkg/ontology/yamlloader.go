package ontology

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/MrWong99/entigraph/pkg/ids"
	"gopkg.in/yaml.v3"
)

// CatalogFile is the top-level structure of a fixture file describing a set
// of ontology type editions to seed into a Catalog, e.g. for local
// development or integration tests.
//
// Example:
//
//	dataTypes:
//	  - baseUrl: "https://example.com/data-type/text/"
//	    schema: { "type": "string" }
//	entityTypes:
//	  - baseUrl: "https://example.com/entity-type/person/"
//	    schema: { "type": "object" }
type CatalogFile struct {
	DataTypes     []TypeFixture `yaml:"dataTypes"`
	PropertyTypes []TypeFixture `yaml:"propertyTypes"`
	EntityTypes   []TypeFixture `yaml:"entityTypes"`
}

// TypeFixture is one ontology type edition in a [CatalogFile].
type TypeFixture struct {
	BaseUrl       string              `yaml:"baseUrl"`
	Schema        json.RawMessage     `yaml:"schema"`
	Relationships []RelationshipFixture `yaml:"relationships"`
}

// RelationshipFixture is one typed outgoing edge in a [TypeFixture]. Kind
// matches an [EdgeKind].String() value; it defaults to
// "constrainsPropertiesOn" when omitted, the most common ontology edge.
type RelationshipFixture struct {
	Target string `yaml:"target"`
	Kind   string `yaml:"kind"`
}

func parseEdgeKind(raw string) (EdgeKind, error) {
	switch raw {
	case "", "constrainsPropertiesOn":
		return EdgeConstrainsPropertiesOn, nil
	case "inheritsFrom":
		return EdgeInheritsFrom, nil
	case "constrainsValuesOn":
		return EdgeConstrainsValuesOn, nil
	case "constrainsLinksOn":
		return EdgeConstrainsLinksOn, nil
	case "constrainsLinkDestinationsOn":
		return EdgeConstrainsLinkDestinationsOn, nil
	default:
		return 0, fmt.Errorf("ontology: unknown relationship kind %q", raw)
	}
}

// LoadCatalogFile reads and parses a catalog fixture file from disk.
func LoadCatalogFile(path string) (*CatalogFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ontology: open catalog file %q: %w", path, err)
	}
	defer f.Close()

	cf, err := LoadCatalogFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("ontology: parse catalog file %q: %w", path, err)
	}
	return cf, nil
}

// LoadCatalogFromReader parses catalog fixture YAML from an [io.Reader].
func LoadCatalogFromReader(r io.Reader) (*CatalogFile, error) {
	var cf CatalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("ontology: decode catalog yaml: %w", err)
	}
	return &cf, nil
}

// Import creates every fixture in cf against cat as actor, in dependency
// order (data types, then property types, then entity types). Returns the
// number of editions successfully created.
func Import(ctx context.Context, cat Catalog, actor ids.ActorId, cf *CatalogFile) (int, error) {
	if cf == nil {
		return 0, fmt.Errorf("ontology: catalog file must not be nil")
	}

	groups := []struct {
		kind     Kind
		fixtures []TypeFixture
	}{
		{KindDataType, cf.DataTypes},
		{KindPropertyType, cf.PropertyTypes},
		{KindEntityType, cf.EntityTypes},
	}

	count := 0
	for _, g := range groups {
		for _, fx := range g.fixtures {
			base, err := NewBaseUrl(fx.BaseUrl)
			if err != nil {
				return count, fmt.Errorf("ontology: fixture %q: %w", fx.BaseUrl, err)
			}

			rels := make([]RelationshipEdge, 0, len(fx.Relationships))
			for _, rf := range fx.Relationships {
				relBase, err := NewBaseUrl(rf.Target)
				if err != nil {
					return count, fmt.Errorf("ontology: fixture %q: relationship %q: %w", fx.BaseUrl, rf.Target, err)
				}
				edgeKind, err := parseEdgeKind(rf.Kind)
				if err != nil {
					return count, fmt.Errorf("ontology: fixture %q: %w", fx.BaseUrl, err)
				}
				rels = append(rels, RelationshipEdge{Kind: edgeKind, Target: VersionedUrl{Base: relBase, Version: 1}})
			}

			if _, err := cat.Create(ctx, actor, CreateParams{
				Kind:          g.kind,
				Base:          base,
				Schema:        fx.Schema,
				OnConflict:    OnConflictSkip,
				Relationships: rels,
			}); err != nil {
				return count, fmt.Errorf("ontology: create %s: %w", fx.BaseUrl, err)
			}
			count++
		}
	}
	return count, nil
}
