package entity

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/MrWong99/entigraph/pkg/ontology"
)

// EntityTypeSchema is the JSON shape entigraph expects inside an
// ontology.Record whose Kind is ontology.KindEntityType: the set of
// property-type base URLs it requires, and whether each is array-valued.
// PropertyTypeSchema plays the analogous role for ontology.KindPropertyType,
// naming the data types a value at that path may conform to.
//
// Both are stored as the Record's raw JSON Schema document in a shape the
// Postgres-backed catalog and MemStore agree on; pkg/ontology itself stays
// agnostic of this convention since it only stores opaque schema bytes.
type EntityTypeSchema struct {
	Required   []string                 `json:"required"`
	Properties map[string]PropertyUsage `json:"properties"`
	Link       *LinkSchema              `json:"link,omitempty"`
}

// PropertyUsage names the property type a path must conform to.
type PropertyUsage struct {
	PropertyTypeBaseUrl string `json:"propertyTypeBaseUrl"`
	Array               bool   `json:"array"`
}

// LinkSchema restricts which entity types may occupy a link's endpoints.
type LinkSchema struct {
	LeftEntityTypeBaseUrls  []string `json:"leftEntityTypeBaseUrls"`
	RightEntityTypeBaseUrls []string `json:"rightEntityTypeBaseUrls"`
}

// PropertyTypeSchema names the data types a property type's value may
// conform to; validity requires matching at least one (spec §4.3: "every
// value conforms to some referenced data-type's JSON-schema variant").
type PropertyTypeSchema struct {
	DataTypeBaseUrls []string `json:"dataTypeBaseUrls"`
}

// EntityResolver looks up the other entities needed to validate a link
// entity's endpoints.
type EntityResolver interface {
	GetEntity(ctx context.Context, id EntityId) (Entity, error)
}

// ValidateProperties checks props against every entity type in types:
// every required property is present, and every value's path resolves to a
// property type whose schema accepts a data type matching the value.
//
// typeSchemas and propertySchemas are pre-resolved from the ontology catalog
// by the caller (neither Store implementation calls this function), keeping
// this function free of
// any direct Catalog dependency so it can be unit tested with fixtures.
func ValidateProperties(props PropertyObject, typeSchemas []EntityTypeSchema, propertySchemas map[string]PropertyTypeSchema, dataTypeValidators map[string]func(any) error) ValidationErrors {
	var errs ValidationErrors

	required := map[string]bool{}
	usages := map[string]PropertyUsage{}
	for _, ts := range typeSchemas {
		for _, r := range ts.Required {
			required[r] = true
		}
		for base, usage := range ts.Properties {
			usages[base] = usage
		}
	}

	for base := range required {
		if _, ok := props[ontology.BaseUrl(base)]; !ok {
			errs = append(errs, &ValidationFailed{Path: base, Reason: "required property is missing"})
		}
	}

	paths := make([]string, 0, len(props))
	for base := range props {
		paths = append(paths, string(base))
	}
	sort.Strings(paths)

	for _, path := range paths {
		prop := props[ontology.BaseUrl(path)]
		usage, known := usages[path]
		if !known {
			errs = append(errs, &ValidationFailed{Path: path, Reason: "property is not declared by any referenced entity type"})
			continue
		}
		if usage.Array && prop.Kind != PropertyArray {
			errs = append(errs, &ValidationFailed{Path: path, Reason: "property must be an array"})
			continue
		}

		schema, ok := propertySchemas[usage.PropertyTypeBaseUrl]
		if !ok {
			errs = append(errs, &ValidationFailed{Path: path, Reason: fmt.Sprintf("unknown property type %q", usage.PropertyTypeBaseUrl)})
			continue
		}

		values := []Property{prop}
		if usage.Array {
			values = prop.Array
		}
		for i, v := range values {
			if err := validateValue(v, schema, dataTypeValidators); err != nil {
				p := path
				if usage.Array {
					p = fmt.Sprintf("%s[%d]", path, i)
				}
				errs = append(errs, &ValidationFailed{Path: p, Reason: err.Error()})
			}
		}
	}

	return errs
}

func validateValue(v Property, schema PropertyTypeSchema, validators map[string]func(any) error) error {
	if v.Kind != PropertyValue {
		return fmt.Errorf("nested objects are not yet validated against data type schemas")
	}
	var decoded any
	if err := json.Unmarshal(v.Value, &decoded); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}

	var lastErr error
	for _, base := range schema.DataTypeBaseUrls {
		validate, ok := validators[base]
		if !ok {
			lastErr = fmt.Errorf("no compiled schema for data type %q", base)
			continue
		}
		if err := validate(decoded); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no data type schema configured")
	}
	return fmt.Errorf("value does not conform to any of %v: %w", schema.DataTypeBaseUrls, lastErr)
}

// ValidateLink checks a link entity's endpoints exist and that their types
// satisfy link.LeftEntityTypeBaseUrls/RightEntityTypeBaseUrls.
func ValidateLink(ctx context.Context, resolver EntityResolver, link LinkData, schema LinkSchema) error {
	left, err := resolver.GetEntity(ctx, link.LeftEntityId)
	if err != nil {
		return fmt.Errorf("resolve left entity: %w", err)
	}
	if !anyTypeIn(left.Types, schema.LeftEntityTypeBaseUrls) {
		return fmt.Errorf("left entity type not permitted by link schema")
	}

	right, err := resolver.GetEntity(ctx, link.RightEntityId)
	if err != nil {
		return fmt.Errorf("resolve right entity: %w", err)
	}
	if !anyTypeIn(right.Types, schema.RightEntityTypeBaseUrls) {
		return fmt.Errorf("right entity type not permitted by link schema")
	}
	return nil
}

func anyTypeIn(types []ontology.EntityTypeId, baseUrls []string) bool {
	if len(baseUrls) == 0 {
		return true
	}
	for _, t := range types {
		for _, base := range baseUrls {
			if string(t.Base) == base {
				return true
			}
		}
	}
	return false
}
