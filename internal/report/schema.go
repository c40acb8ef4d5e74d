package report

// Schema is the JSON Schema (Draft 2020-12) for the testgen run
// report. It documents the structure returned by WriteJSON.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/testgen/run-report.schema.json",
  "title": "testgen Run Report",
  "description": "Output schema for testgen generate --format=json",
  "type": "object",
  "required": ["version", "metadata", "output", "callables", "records", "excluded"],
  "properties": {
    "version": {
      "type": "string",
      "description": "Schema version (semver)"
    },
    "metadata": { "$ref": "#/$defs/Metadata" },
    "output": {
      "type": "string",
      "description": "Path of the written test file"
    },
    "callables": {
      "type": "integer",
      "minimum": 0,
      "description": "Number of callables analyzed"
    },
    "records": {
      "type": "array",
      "items": { "$ref": "#/$defs/Record" }
    },
    "excluded": {
      "type": "array",
      "items": { "$ref": "#/$defs/Exclusion" }
    },
    "feedback": { "$ref": "#/$defs/Feedback" },
    "crap": { "$ref": "#/$defs/CRAPSummary" }
  },
  "$defs": {
    "Metadata": {
      "type": "object",
      "required": ["run_id", "testgen_version", "root", "duration_ms", "warnings"],
      "properties": {
        "run_id": {
          "type": "string",
          "description": "Unique identifier of the run (UUID)"
        },
        "testgen_version": { "type": "string" },
        "root": {
          "type": "string",
          "description": "Analyzed source root"
        },
        "duration_ms": { "type": "integer", "minimum": 0 },
        "timestamp": {
          "type": "string",
          "description": "Run start time (RFC 3339)"
        },
        "warnings": {
          "type": "array",
          "items": { "type": "string" }
        }
      }
    },
    "Record": {
      "type": "object",
      "required": ["name", "target", "callable", "scenario", "expected", "is_async"],
      "properties": {
        "name": {
          "type": "string",
          "pattern": "^test_[a-z0-9_]+$"
        },
        "target": {
          "type": "string",
          "description": "Descriptor ID of the callable under test"
        },
        "callable": { "type": "string" },
        "scenario": {
          "type": "string",
          "enum": ["happy_path", "boundary", "exception", "targeted"]
        },
        "expected": {
          "type": "string",
          "description": "Expected outcome, e.g. 'raises ValueError'"
        },
        "is_async": { "type": "boolean" },
        "target_line": {
          "type": "integer",
          "minimum": 1,
          "description": "Source line a targeted case aims at"
        },
        "observed": {
          "type": "string",
          "description": "Repr of the result seen during execution"
        }
      }
    },
    "Exclusion": {
      "type": "object",
      "required": ["name", "reason"],
      "properties": {
        "name": { "type": "string" },
        "reason": { "type": "string" }
      }
    },
    "Feedback": {
      "type": "object",
      "required": ["state", "iterations", "coverage", "failures", "discarded"],
      "properties": {
        "state": {
          "type": "string",
          "enum": ["converged", "aborted"]
        },
        "iterations": { "type": "integer", "minimum": 0 },
        "coverage": {
          "type": "array",
          "items": { "$ref": "#/$defs/IterationCoverage" }
        },
        "failures": {
          "type": "array",
          "items": { "$ref": "#/$defs/Failure" }
        },
        "discarded": {
          "type": "array",
          "items": { "type": "string" }
        },
        "pending": {
          "type": "integer",
          "minimum": 0,
          "description": "Targeted cases left unexecuted when the iteration ceiling stopped the loop"
        },
        "error": {
          "type": "string",
          "description": "Why the loop aborted"
        }
      }
    },
    "IterationCoverage": {
      "type": "object",
      "required": ["iteration", "covered", "total", "percentage"],
      "properties": {
        "iteration": { "type": "integer", "minimum": 0 },
        "covered": { "type": "integer", "minimum": 0 },
        "total": { "type": "integer", "minimum": 0 },
        "percentage": { "type": "number", "minimum": 0, "maximum": 100 }
      }
    },
    "Failure": {
      "type": "object",
      "required": ["name", "status"],
      "properties": {
        "name": { "type": "string" },
        "status": {
          "type": "string",
          "enum": ["failed", "timeout", "crashed"]
        },
        "output": { "type": "string" }
      }
    },
    "CRAPSummary": {
      "type": "object",
      "required": ["total_callables", "avg_complexity", "avg_line_coverage", "avg_crap", "crapload", "crap_threshold", "worst_crap"],
      "properties": {
        "total_callables": { "type": "integer", "minimum": 0 },
        "avg_complexity": { "type": "number" },
        "avg_line_coverage": { "type": "number" },
        "avg_crap": { "type": "number" },
        "crapload": { "type": "integer", "minimum": 0 },
        "crap_threshold": { "type": "number" },
        "worst_crap": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["callable", "file", "line", "complexity", "line_coverage", "crap"],
            "properties": {
              "module": { "type": "string" },
              "callable": { "type": "string" },
              "file": { "type": "string" },
              "line": { "type": "integer" },
              "complexity": { "type": "integer", "minimum": 1 },
              "line_coverage": { "type": "number" },
              "crap": { "type": "number" }
            }
          }
        }
      }
    }
  }
}`

// AnalysisSchema is the JSON Schema (Draft 2020-12) for the output of
// testgen analyze --format=json.
const AnalysisSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/testgen/analysis-report.schema.json",
  "title": "testgen Analysis Report",
  "type": "object",
  "required": ["version", "metadata", "callables"],
  "properties": {
    "version": { "type": "string" },
    "metadata": {
      "type": "object",
      "required": ["run_id", "testgen_version", "root", "warnings"],
      "properties": {
        "run_id": { "type": "string" },
        "testgen_version": { "type": "string" },
        "root": { "type": "string" },
        "duration_ms": { "type": "integer", "minimum": 0 },
        "timestamp": { "type": "string" },
        "warnings": { "type": "array", "items": { "type": "string" } }
      }
    },
    "callables": {
      "type": "array",
      "items": { "$ref": "#/$defs/Callable" }
    }
  },
  "$defs": {
    "Callable": {
      "type": "object",
      "required": ["id", "module", "file", "qualified_name", "name", "params", "return_type", "is_async", "is_method", "guards", "start_line", "end_line", "complexity"],
      "properties": {
        "id": { "type": "string", "pattern": "^cd-[0-9a-f]{8}$" },
        "module": { "type": "string" },
        "file": { "type": "string" },
        "qualified_name": { "type": "string" },
        "name": { "type": "string" },
        "class": { "type": "string" },
        "inherited_from": { "type": "string" },
        "params": {
          "type": ["array", "null"],
          "items": { "$ref": "#/$defs/Parameter" }
        },
        "return_hint": { "type": "string" },
        "return_type": { "$ref": "#/$defs/TypeInfo" },
        "docstring": { "type": "string" },
        "decorators": { "type": "array", "items": { "type": "string" } },
        "is_async": { "type": "boolean" },
        "is_method": { "type": "boolean" },
        "is_static": { "type": "boolean" },
        "is_constructor": { "type": "boolean" },
        "guards": {
          "type": ["array", "null"],
          "items": { "$ref": "#/$defs/Guard" }
        },
        "branches": {
          "type": "array",
          "items": { "$ref": "#/$defs/Guard" }
        },
        "returns_value": { "type": "boolean" },
        "start_line": { "type": "integer", "minimum": 1 },
        "end_line": { "type": "integer", "minimum": 1 },
        "complexity": { "type": "integer", "minimum": 1 }
      }
    },
    "Parameter": {
      "type": "object",
      "required": ["name", "type", "kind"],
      "properties": {
        "name": { "type": "string" },
        "hint": { "type": "string" },
        "type": { "$ref": "#/$defs/TypeInfo" },
        "default": { "type": "string" },
        "has_default": { "type": "boolean" },
        "kind": {
          "type": "string",
          "enum": ["positional_only", "positional", "keyword_only", "var_positional", "var_keyword"]
        }
      }
    },
    "TypeInfo": {
      "type": "object",
      "required": ["kind"],
      "properties": {
        "kind": {
          "type": "string",
          "enum": ["numeric", "string", "boolean", "collection", "none", "unannotated", "unresolved"]
        },
        "name": { "type": "string" },
        "optional": { "type": "boolean" }
      }
    },
    "Guard": {
      "type": "object",
      "required": ["parameter", "measure", "operator", "line", "body_start", "body_end"],
      "properties": {
        "parameter": { "type": "string" },
        "measure": { "type": "string", "enum": ["value", "len"] },
        "operator": { "type": "string" },
        "threshold": {
          "type": "object",
          "required": ["kind", "text"],
          "properties": {
            "kind": { "type": "string" },
            "text": { "type": "string" },
            "number": { "type": "number" },
            "is_float": { "type": "boolean" }
          }
        },
        "exception": { "type": "string" },
        "line": { "type": "integer" },
        "body_start": { "type": "integer" },
        "body_end": { "type": "integer" }
      }
    }
  }
}`
