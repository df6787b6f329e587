package plan

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "schema://weekplan/plan.json"

// documentSchema describes the JSON document exchanged with stores and
// import/export files.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["id", "weeks", "version"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "clientId": {"type": "string"},
    "name": {"type": "string"},
    "version": {"type": "integer", "minimum": 0},
    "weeks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["index", "days"],
        "properties": {
          "index": {"type": "integer", "minimum": 0},
          "days": {
            "type": "array",
            "minItems": 7,
            "maxItems": 7,
            "items": {
              "type": "object",
              "required": ["index", "sessions"],
              "properties": {
                "index": {"type": "integer", "minimum": 0, "maximum": 6},
                "sessions": {
                  "type": "object",
                  "additionalProperties": {"$ref": "#/$defs/session"}
                }
              }
            }
          }
        }
      }
    }
  },
  "$defs": {
    "session": {
      "type": "object",
      "required": ["id", "slot", "hora", "duracion", "estado", "ejercicios"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "slot": {"type": "string", "minLength": 1},
        "hora": {"type": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"},
        "duracion": {"type": "integer", "minimum": 0, "maximum": 1440},
        "estado": {"enum": ["pendiente", "en-progreso", "completado", "cancelado"]},
        "notas": {"type": "string"},
        "ejercicios": {"type": "array", "items": {"$ref": "#/$defs/exercise"}}
      }
    },
    "exercise": {
      "type": "object",
      "required": ["id", "ejercicioRef", "series", "repeticiones", "peso", "descanso", "orden", "completado"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "ejercicioRef": {"type": "string", "minLength": 1},
        "series": {"type": "integer"},
        "repeticiones": {"type": "integer"},
        "peso": {"type": "number", "minimum": 0},
        "descanso": {"type": "integer", "minimum": 0},
        "orden": {"type": "integer", "minimum": 0},
        "completado": {"type": "boolean"},
        "notas": {"type": "string"}
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func planSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		var def any
		if err := json.Unmarshal([]byte(documentSchema), &def); err != nil {
			schemaErr = fmt.Errorf("parse plan schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, def); err != nil {
			schemaErr = fmt.Errorf("add plan schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// ValidateJSON checks raw against the plan document schema.
func ValidateJSON(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	s, err := planSchema()
	if err != nil {
		return err
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("plan document: %w", err)
	}
	return nil
}

// Decode validates raw against the schema, unmarshals it and checks the
// structural invariants.
func Decode(raw []byte) (*Plan, error) {
	if err := ValidateJSON(raw); err != nil {
		return nil, err
	}
	var p Plan
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if err := p.Check(); err != nil {
		return nil, fmt.Errorf("check plan: %w", err)
	}
	return &p, nil
}

// Encode marshals the plan as an indented JSON document.
func Encode(p *Plan) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
