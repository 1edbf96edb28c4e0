package module

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const definitionSchemaURL = "module.schema.json"

// definitionSchema constrains module definitions before they are compiled.
const definitionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["handlers"],
  "additionalProperties": false,
  "properties": {
    "description": {"type": "string"},
    "timeout": {"type": "integer", "minimum": 0},
    "handlers": {
      "type": "object",
      "minProperties": 1,
      "propertyNames": {"minLength": 1},
      "additionalProperties": {"$ref": "#/$defs/handler"}
    }
  },
  "$defs": {
    "handler": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "status": {"type": "integer", "minimum": 100, "maximum": 599},
        "headers": {"type": "object", "additionalProperties": {"type": "string"}},
        "contentType": {"type": "string"},
        "body": true,
        "bodyFile": {"type": "string", "minLength": 1},
        "expr": {"type": "string", "minLength": 1}
      },
      "allOf": [
        {"not": {"required": ["body", "bodyFile"]}},
        {"not": {"required": ["body", "expr"]}},
        {"not": {"required": ["bodyFile", "expr"]}}
      ]
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(definitionSchemaURL, strings.NewReader(definitionSchema)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile(definitionSchemaURL)
	})
	return schema, schemaErr
}

// validateDefinition checks a JSON-decoded definition against the schema.
func validateDefinition(instance any) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile definition schema: %w", err)
	}
	if err := s.Validate(instance); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%w: %s", ErrInvalidDefinition, strings.Join(leafMessages(verr), "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return nil
}

func leafMessages(err *jsonschema.ValidationError) []string {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return []string{loc + ": " + err.Message}
	}
	var out []string
	for _, c := range err.Causes {
		out = append(out, leafMessages(c)...)
	}
	return out
}
