package artifacts

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Every JSON artifact is checked against one of these embedded schemas
// before decoding, so a truncated or hand-edited bundle fails with a field
// path instead of a zero-value model.
var schemaSources = map[string]string{
	"manifest":   manifestSchema,
	"centroids":  centroidsSchema,
	"scaler":     scalerSchema,
	"vectorizer": vectorizerSchema,
	"matrix":     matrixSchema,
	"metrics":    metricsSchema,
}

const manifestSchema = `{
	"type": "object",
	"required": ["version", "catalog_rows"],
	"properties": {
		"version": {"type": "integer", "minimum": 1},
		"created_at": {"type": "string"},
		"catalog_rows": {"type": "integer", "minimum": 1},
		"files": {"type": "object", "additionalProperties": {"type": "string"}}
	}
}`

const scalerSchema = `{
	"type": "object",
	"required": ["mean", "scale"],
	"properties": {
		"mean": {"type": "array", "items": {"type": "number"}, "minItems": 1},
		"scale": {"type": "array", "items": {"type": "number"}, "minItems": 1}
	}
}`

const centroidsSchema = `{
	"type": "object",
	"required": ["k", "features", "centroids", "scaler"],
	"properties": {
		"k": {"type": "integer", "minimum": 1},
		"features": {"type": "array", "items": {"type": "string"}, "minItems": 1},
		"centroids": {
			"type": "array",
			"items": {"type": "array", "items": {"type": "number"}, "minItems": 1},
			"minItems": 1
		},
		"scaler": ` + scalerSchema + `
	}
}`

const vectorizerSchema = `{
	"type": "object",
	"required": ["vocabulary", "idf"],
	"properties": {
		"vocabulary": {
			"type": "object",
			"minProperties": 1,
			"additionalProperties": {"type": "integer", "minimum": 0}
		},
		"idf": {"type": "array", "items": {"type": "number"}, "minItems": 1},
		"ngram_min": {"type": "integer", "minimum": 1},
		"ngram_max": {"type": "integer", "minimum": 1},
		"lowercase": {"type": "boolean"},
		"stop_words": {"type": "array", "items": {"type": "string"}},
		"max_features": {"type": "integer", "minimum": 1}
	}
}`

const matrixSchema = `{
	"type": "object",
	"required": ["rows", "cols", "indptr", "indices", "data"],
	"properties": {
		"rows": {"type": "integer", "minimum": 0},
		"cols": {"type": "integer", "minimum": 1},
		"indptr": {"type": "array", "items": {"type": "integer", "minimum": 0}, "minItems": 1},
		"indices": {"type": "array", "items": {"type": "integer", "minimum": 0}},
		"data": {"type": "array", "items": {"type": "number"}}
	}
}`

const metricsSchema = `{
	"type": "object",
	"additionalProperties": {
		"type": "object",
		"properties": {
			"silhouette": {"type": "number"},
			"davies_bouldin": {"type": "number"},
			"inertia": {"type": "number"},
			"n_clusters": {"type": "integer", "minimum": 1}
		}
	}
}`

type schemaValidator struct {
	schemas map[string]*gojsonschema.Schema
}

func newSchemaValidator() (*schemaValidator, error) {
	sv := &schemaValidator{schemas: make(map[string]*gojsonschema.Schema, len(schemaSources))}
	for name, source := range schemaSources {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", name, err)
		}
		sv.schemas[name] = schema
	}
	return sv, nil
}

func (sv *schemaValidator) validate(name string, document []byte) error {
	schema, ok := sv.schemas[name]
	if !ok {
		return fmt.Errorf("unknown artifact schema %q", name)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("failed to run %s schema validation: %w", name, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return fmt.Errorf("%s artifact failed schema validation: %s", name, strings.Join(problems, "; "))
	}
	return nil
}
