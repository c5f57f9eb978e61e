package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customerSchema() JSONSchema {
	return JSONSchema{
		Type:     "object",
		Required: []string{"Age", "Complains"},
		Properties: map[string]Property{
			"Age":       {Type: "integer", Minimum: FloatPtr(0), Maximum: FloatPtr(120)},
			"Complains": {Type: "integer", Minimum: FloatPtr(0), Maximum: FloatPtr(1)},
			"Value":     {Type: "number", Minimum: FloatPtr(0)},
			"Plan":      {Type: "string", Enum: []string{"prepaid", "contract"}},
		},
		AdditionalProperties: true,
	}
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name       string
		input      map[string]interface{}
		valid      bool
		errorField string
		errorCode  string
	}{
		{
			name:  "valid ints and floats",
			input: map[string]interface{}{"Age": 30, "Complains": 0, "Value": 197.64},
			valid: true,
		},
		{
			name:  "integral float accepted as integer",
			input: map[string]interface{}{"Age": float64(30), "Complains": float64(1)},
			valid: true,
		},
		{
			name:       "missing required",
			input:      map[string]interface{}{"Age": 30},
			errorField: "Complains",
			errorCode:  "REQUIRED_FIELD_MISSING",
		},
		{
			name:       "above maximum",
			input:      map[string]interface{}{"Age": 150, "Complains": 0},
			errorField: "Age",
			errorCode:  "MAXIMUM_VIOLATION",
		},
		{
			name:       "below minimum",
			input:      map[string]interface{}{"Age": 30, "Complains": 0, "Value": -1.5},
			errorField: "Value",
			errorCode:  "MINIMUM_VIOLATION",
		},
		{
			name:       "fractional integer",
			input:      map[string]interface{}{"Age": 30.5, "Complains": 0},
			errorField: "Age",
			errorCode:  "INVALID_TYPE",
		},
		{
			name:       "string enum",
			input:      map[string]interface{}{"Age": 30, "Complains": 0, "Plan": "yearly"},
			errorField: "Plan",
			errorCode:  "INVALID_ENUM_VALUE",
		},
		{
			name:  "additional properties pass through",
			input: map[string]interface{}{"Age": 30, "Complains": 0, "notes": "abc"},
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateInput(tt.input, customerSchema())
			assert.Equal(t, tt.valid, result.Valid, result.GetErrorMessages())
			if tt.errorField != "" {
				require.NotEmpty(t, errorCodes(result, tt.errorField))
				assert.Contains(t, errorCodes(result, tt.errorField), tt.errorCode)
			}
		})
	}
}

func TestValidateInput_ClosedSchema(t *testing.T) {
	schema := customerSchema()
	schema.AdditionalProperties = false

	result := ValidateInput(map[string]interface{}{"Age": 30, "Complains": 0, "notes": "abc"}, schema)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, errorCodes(result, "notes"))
}

func TestValidateInput_SortedMessages(t *testing.T) {
	result := ValidateInput(map[string]interface{}{"Age": 500, "Complains": 7}, customerSchema())
	assert.Equal(t, []string{
		"Age: value must be <= 120",
		"Complains: value must be <= 1",
	}, result.GetErrorMessages())
}

const testContract = `{
  "type": "object",
  "required": ["probability", "label"],
  "properties": {
    "probability": {"type": "number", "minimum": 0, "maximum": 1},
    "label": {"type": "string"}
  }
}`

func TestDocumentValidator(t *testing.T) {
	v := MustDocumentValidator(testContract)

	t.Run("valid", func(t *testing.T) {
		assert.True(t, v.Validate([]byte(`{"probability":0.4,"label":"Medium"}`)).Valid)
	})

	t.Run("out of range", func(t *testing.T) {
		result := v.Validate([]byte(`{"probability":1.4,"label":"Medium"}`))
		require.False(t, result.Valid)
		assert.NotEmpty(t, errorCodes(result, "probability"))
	})

	t.Run("missing field", func(t *testing.T) {
		result := v.Validate([]byte(`{"probability":0.4}`))
		assert.False(t, result.Valid)
		assert.NotEmpty(t, result.Errors)
	})

	t.Run("not json", func(t *testing.T) {
		result := v.Validate([]byte(`<html>`))
		require.False(t, result.Valid)
		assert.Equal(t, "INVALID_JSON", result.Errors[0].Code)
	})
}

func TestNewDocumentValidator_BadSchema(t *testing.T) {
	_, err := NewDocumentValidator(`{"type": 12}`)
	assert.Error(t, err)
}

func errorCodes(result *ValidationResult, field string) []string {
	var codes []string
	for _, err := range result.Errors {
		if err.Field == field {
			codes = append(codes, err.Code)
		}
	}
	return codes
}
