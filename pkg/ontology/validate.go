package ontology

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Validate checks a Record for structural well-formedness: a non-empty
// schema document that parses as JSON Schema, and relationships that
// reference distinct VersionedUrls.
//
// It does not check cross-reference existence (whether a referenced
// VersionedUrl actually resolves) — that is the Catalog implementation's
// job, since it alone can see the whole store.
func Validate(rec Record) error {
	var errs []error

	if len(rec.Schema) == 0 {
		errs = append(errs, errors.New("ontology: schema must not be empty"))
	} else if _, err := CompileSchema(rec.Schema); err != nil {
		errs = append(errs, fmt.Errorf("ontology: schema: %w", err))
	}

	seen := make(map[RelationshipEdge]bool, len(rec.Relationships))
	for i, r := range rec.Relationships {
		if seen[r] {
			errs = append(errs, fmt.Errorf("ontology: relationship[%d]: duplicate %s reference to %s", i, r.Kind, r.Target))
		}
		seen[r] = true
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// CompileSchema parses and resolves a raw JSON Schema document, ready for
// repeated [*jsonschema.Resolved.Validate] calls against property values.
// Record validation above calls it to reject a schema that does not compile;
// nothing in pkg/entity calls it, and no compiled schema is cached.
func CompileSchema(raw json.RawMessage) (*jsonschema.Resolved, error) {
	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("parse json schema: %w", err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve json schema: %w", err)
	}
	return resolved, nil
}
