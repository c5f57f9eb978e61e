package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// DocumentValidator checks raw JSON documents against a compiled JSON Schema.
type DocumentValidator struct {
	schema *gojsonschema.Schema
}

// NewDocumentValidator compiles schemaJSON once for repeated use.
func NewDocumentValidator(schemaJSON string) (*DocumentValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &DocumentValidator{schema: schema}, nil
}

// MustDocumentValidator panics on an invalid schema; for package-level schemas.
func MustDocumentValidator(schemaJSON string) *DocumentValidator {
	v, err := NewDocumentValidator(schemaJSON)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks doc and converts failures to ValidationErrors. A document
// that is not valid JSON is reported as a single INVALID_JSON error.
func (d *DocumentValidator) Validate(doc []byte) *ValidationResult {
	result, err := d.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: err.Error(),
				Code:    "INVALID_JSON",
			}},
		}
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, e := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
			Code:    e.Type(),
		})
	}
	return out
}
