package graphapi

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

const graphSchemaURL = "https://nodegen.dev/schemas/graph.json"

const graphSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "id": {"type": "string"},
    "nodes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "type": {"type": "string", "enum": ["imageInput", "prompt", "generate", "output"]},
          "position": {
            "oneOf": [
              {
                "type": "object",
                "properties": {"x": {"type": "number"}, "y": {"type": "number"}}
              },
              {
                "type": "array",
                "items": {"type": "number"},
                "maxItems": 2
              }
            ]
          },
          "data": {
            "type": "object",
            "properties": {
              "label": {"type": "string"},
              "image": {"type": "string"},
              "prompt": {"type": "string"},
              "isGenerating": {"type": "boolean"},
              "error": {"type": ["string", "null"]},
              "images": {"type": "array", "items": {"type": "string"}},
              "isLoading": {"type": "boolean"}
            }
          }
        }
      }
    },
    "edges": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["source", "target"],
        "properties": {
          "id": {"type": "string"},
          "source": {"type": "string", "minLength": 1},
          "target": {"type": "string", "minLength": 1},
          "sourceHandle": {"type": ["string", "null"]},
          "targetHandle": {"type": ["string", "null"]}
        }
      }
    }
  },
  "required": ["nodes"]
}`

var (
	graphSchemaOnce sync.Once
	graphSchema     *jsonschema.Schema
	graphSchemaErr  error
)

func compiledGraphSchema() (*jsonschema.Schema, error) {
	graphSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(graphSchemaJSON))
		if err != nil {
			graphSchemaErr = fmt.Errorf("unmarshal graph schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(graphSchemaURL, doc); err != nil {
			graphSchemaErr = fmt.Errorf("add graph schema resource: %w", err)
			return
		}
		graphSchema, graphSchemaErr = c.Compile(graphSchemaURL)
	})
	return graphSchema, graphSchemaErr
}

// ValidateDocument checks raw graph JSON against the graph document schema
// before it is decoded.
func ValidateDocument(data []byte) error {
	sch, err := compiledGraphSchema()
	if err != nil {
		return err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return nil
}
