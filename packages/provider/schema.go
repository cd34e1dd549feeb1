package provider

// featureSchema validates a feature document before decoding. Each section
// carries exactly one of background, scenario or outline; steps are either
// bare strings or objects with a text field.
const featureSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["feature"],
  "additionalProperties": false,
  "properties": {
    "feature": {
      "type": "object",
      "required": ["name", "sections"],
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "description": {"type": "string"},
        "tags": {"$ref": "#/definitions/tags"},
        "sections": {
          "type": "array",
          "items": {"$ref": "#/definitions/section"}
        }
      }
    }
  },
  "definitions": {
    "tags": {
      "type": "array",
      "items": {"type": "string", "pattern": "^@?[A-Za-z_][A-Za-z0-9_]*(=.*)?$"}
    },
    "section": {
      "type": "object",
      "minProperties": 1,
      "maxProperties": 1,
      "additionalProperties": false,
      "properties": {
        "background": {"$ref": "#/definitions/background"},
        "scenario": {"$ref": "#/definitions/scenario"},
        "outline": {"$ref": "#/definitions/outline"}
      }
    },
    "background": {
      "type": "object",
      "required": ["steps"],
      "additionalProperties": false,
      "properties": {
        "steps": {"$ref": "#/definitions/steps"}
      }
    },
    "scenario": {
      "type": "object",
      "required": ["name", "steps"],
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "description": {"type": "string"},
        "tags": {"$ref": "#/definitions/tags"},
        "steps": {"$ref": "#/definitions/steps"}
      }
    },
    "outline": {
      "type": "object",
      "required": ["name", "steps", "examples"],
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "description": {"type": "string"},
        "tags": {"$ref": "#/definitions/tags"},
        "steps": {"$ref": "#/definitions/steps"},
        "examples": {
          "type": "array",
          "minItems": 1,
          "items": {"$ref": "#/definitions/table"}
        }
      }
    },
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": {
        "oneOf": [
          {"type": "string", "minLength": 1},
          {
            "type": "object",
            "required": ["text"],
            "additionalProperties": false,
            "properties": {
              "prefix": {"type": "string"},
              "text": {"type": "string", "minLength": 1},
              "docstring": {"type": "string"}
            }
          }
        ]
      }
    },
    "table": {
      "type": "object",
      "required": ["header"],
      "additionalProperties": false,
      "properties": {
        "header": {
          "type": "array",
          "minItems": 1,
          "items": {"type": "string", "minLength": 1}
        },
        "rows": {
          "type": "array",
          "items": {
            "type": "array",
            "items": {"type": "string"}
          }
        }
      }
    }
  }
}`
