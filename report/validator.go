package report

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const documentSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"run_id": {"type": "string", "minLength": 1},
		"root": {"type": "string"},
		"source": {"type": "string", "enum": ["path", "upload", "repo"]},
		"generated_at": {"type": "string", "format": "date-time"},
		"duration_ms": {"type": "integer", "minimum": 0},
		"summary": {"type": "string"},
		"files": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"file": {"type": "string", "minLength": 1},
					"analysis": {"type": "string"}
				},
				"required": ["file", "analysis"]
			}
		}
	},
	"required": ["run_id", "root", "generated_at", "summary", "files"]
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// ValidationResult lists every schema violation found in a document.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// Validate checks raw JSON against the report document schema.
func Validate(data []byte) ValidationResult {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return ValidationResult{Errors: []string{fmt.Sprintf("schema validation error: %v", err)}}
	}

	var errs []string
	for _, e := range result.Errors() {
		errs = append(errs, e.String())
	}
	return ValidationResult{Valid: result.Valid(), Errors: errs}
}

// FormatValidationErrors joins the errors one per line.
func FormatValidationErrors(result ValidationResult) string {
	if result.Valid {
		return ""
	}
	return strings.Join(result.Errors, "\n")
}
