package form

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	commonerrors "churn-console/internal/common/errors"
	"churn-console/internal/common/validation"
)

// Serialize converts raw text values into an Input.
//
// Declared fields are converted by their declared kind; a declared numeric
// field whose text is not a number is an error rather than being sent as a
// string. Blank declared fields are left out so that Validate reports them as
// missing. Undeclared fields keep the loose rule: text that parses as a float
// becomes a number, anything else stays a string.
func Serialize(values map[string]string) (Input, error) {
	input := make(Input, len(values))
	var problems []string

	for _, name := range sortedKeys(values) {
		raw := values[name]
		field, declared := Lookup(name)
		if !declared {
			input[name] = coerceLoose(raw)
			continue
		}

		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}

		v, err := convert(field, text)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %s", name, err.Error()))
			continue
		}
		input[name] = v
	}

	if len(problems) > 0 {
		return nil, commonerrors.NewInvalidFormError(problems)
	}
	return input, nil
}

// Validate checks an Input against the declared schema.
func Validate(input Input) error {
	result := validation.ValidateInput(input, Schema())
	if !result.Valid {
		return commonerrors.NewInvalidFormError(result.GetErrorMessages())
	}
	return nil
}

// Prepare serializes and validates in one step.
func Prepare(values map[string]string) (Input, error) {
	input, err := Serialize(values)
	if err != nil {
		return nil, err
	}
	if err := Validate(input); err != nil {
		return nil, err
	}
	return input, nil
}

func convert(field Field, text string) (interface{}, error) {
	switch field.Kind {
	case KindInteger:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("expected an integer, got %q", text)
		}
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("expected an integer, got %q", text)
		}
		return int(f), nil
	case KindNumber:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("expected a number, got %q", text)
		}
		return f, nil
	default:
		return text, nil
	}
}

// coerceLoose mirrors how the page treated free-form inputs.
func coerceLoose(raw string) interface{} {
	text := strings.TrimSpace(raw)
	if text == "" {
		return raw
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return raw
	}
	return f
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
