package dsl

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	renderSchemaURL   = "https://agd.schemas.local/render.schema.json"
	critiqueSchemaURL = "https://agd.schemas.local/critique.schema.json"
)

// renderSchema checks JSON shapes only. Presence and range rules live in
// Validate so their messages name the offending field.
const renderSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "version": {"type": "string"},
    "type": {"type": "string"},
    "seq": {"type": "integer", "minimum": 0},
    "window": {
      "type": "object",
      "properties": {
        "width": {"$ref": "#/$defs/uint32"},
        "height": {"$ref": "#/$defs/uint32"},
        "title": {"type": "string"}
      }
    },
    "commands": {"type": "array", "items": {"$ref": "#/$defs/command"}}
  },
  "$defs": {
    "int32": {"type": "integer", "minimum": -2147483648, "maximum": 2147483647},
    "uint32": {"type": "integer", "minimum": 0, "maximum": 4294967295},
    "color": {"type": "string"},
    "point": {
      "type": "object",
      "required": ["x", "y"],
      "properties": {"x": {"$ref": "#/$defs/int32"}, "y": {"$ref": "#/$defs/int32"}}
    },
    "segment": {
      "type": "object",
      "required": ["cmd"],
      "properties": {
        "cmd": {"type": "string"},
        "x": {"$ref": "#/$defs/int32"},
        "y": {"$ref": "#/$defs/int32"}
      }
    },
    "command": {
      "type": "object",
      "required": ["cmd"],
      "properties": {
        "cmd": {"enum": [%s]},
        "id": {"type": "string"},
        "x": {"$ref": "#/$defs/int32"},
        "y": {"$ref": "#/$defs/int32"},
        "w": {"$ref": "#/$defs/int32"},
        "h": {"$ref": "#/$defs/int32"},
        "r": {"$ref": "#/$defs/int32"},
        "x1": {"$ref": "#/$defs/int32"},
        "y1": {"$ref": "#/$defs/int32"},
        "x2": {"$ref": "#/$defs/int32"},
        "y2": {"$ref": "#/$defs/int32"},
        "cx": {"$ref": "#/$defs/int32"},
        "cy": {"$ref": "#/$defs/int32"},
        "rx": {"$ref": "#/$defs/int32"},
        "ry": {"$ref": "#/$defs/int32"},
        "size": {"$ref": "#/$defs/int32"},
        "width": {"$ref": "#/$defs/int32"},
        "stroke_width": {"$ref": "#/$defs/int32"},
        "start_deg": {"type": "number"},
        "end_deg": {"type": "number"},
        "color": {"$ref": "#/$defs/color"},
        "fill": {"$ref": "#/$defs/color"},
        "stroke": {"$ref": "#/$defs/color"},
        "bg": {"$ref": "#/$defs/color"},
        "text": {"type": "string"},
        "src_type": {"type": "string"},
        "src": {"type": "string"},
        "clickable": {"type": "boolean"},
        "points": {"type": "array", "items": {"$ref": "#/$defs/point"}},
        "segments": {"type": "array", "items": {"$ref": "#/$defs/segment"}}
      }
    }
  }
}`

const critiqueSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["is_final", "render"],
  "properties": {
    "is_final": {"type": "boolean"},
    "rejection_reason": {"type": ["string", "null"]},
    "render": {"$ref": "render.schema.json"}
  }
}`

type schemaSet struct {
	render   *jsonschema.Schema
	critique *jsonschema.Schema
}

var (
	schemasOnce sync.Once
	schemas     schemaSet
	schemasErr  error
)

func loadSchemas() (schemaSet, error) {
	schemasOnce.Do(func() {
		kinds := make([]string, len(Kinds))
		for i, k := range Kinds {
			kinds[i] = `"` + string(k) + `"`
		}
		render := fmt.Sprintf(renderSchema, strings.Join(kinds, ", "))

		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(renderSchemaURL, strings.NewReader(render)); err != nil {
			schemasErr = fmt.Errorf("render schema load failed: %w", err)
			return
		}
		if err := c.AddResource(critiqueSchemaURL, strings.NewReader(critiqueSchema)); err != nil {
			schemasErr = fmt.Errorf("critique schema load failed: %w", err)
			return
		}
		if schemas.render, schemasErr = c.Compile(renderSchemaURL); schemasErr != nil {
			schemasErr = fmt.Errorf("render schema compile failed: %w", schemasErr)
			return
		}
		if schemas.critique, schemasErr = c.Compile(critiqueSchemaURL); schemasErr != nil {
			schemasErr = fmt.Errorf("critique schema compile failed: %w", schemasErr)
		}
	})
	return schemas, schemasErr
}
