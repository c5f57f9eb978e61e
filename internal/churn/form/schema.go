// Package form declares the customer form fields and turns submitted text
// values into the JSON body the prediction API expects.
package form

import (
	"churn-console/internal/common/validation"
)

// Kind is the declared type of a form field.
type Kind string

const (
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindString  Kind = "string"
)

// Option is one choice of a select field.
type Option struct {
	Value string
	Label string
}

// Field describes one input of the customer form.
type Field struct {
	Name     string
	Label    string
	Help     string
	Kind     Kind
	Min      *float64
	Max      *float64
	Step     string
	Options  []Option
	Required bool
}

// Input is a serialized form: field name to number or string.
type Input map[string]interface{}

var fields = []Field{
	{Name: "Call_Failure", Label: "Call Failures", Help: "Number of call failures", Kind: KindInteger, Min: validation.FloatPtr(0), Step: "1", Required: true},
	{Name: "Complains", Label: "Complaints", Help: "Customer complained", Kind: KindInteger, Min: validation.FloatPtr(0), Max: validation.FloatPtr(1), Required: true,
		Options: []Option{{"0", "No"}, {"1", "Yes"}}},
	{Name: "Subscription_Length", Label: "Subscription Length", Help: "Months subscribed", Kind: KindNumber, Min: validation.FloatPtr(0), Step: "any", Required: true},
	{Name: "Charge_Amount", Label: "Charge Amount", Help: "Charge category (0-9)", Kind: KindInteger, Min: validation.FloatPtr(0), Max: validation.FloatPtr(9), Step: "1", Required: true},
	{Name: "Seconds_of_Use", Label: "Seconds of Use", Help: "Total usage seconds", Kind: KindNumber, Min: validation.FloatPtr(0), Step: "any", Required: true},
	{Name: "Frequency_of_use", Label: "Frequency of Use", Help: "Number of calls", Kind: KindNumber, Min: validation.FloatPtr(0), Step: "any", Required: true},
	{Name: "Frequency_of_SMS", Label: "Frequency of SMS", Help: "Number of text messages", Kind: KindNumber, Min: validation.FloatPtr(0), Step: "any", Required: true},
	{Name: "Distinct_Called_Numbers", Label: "Distinct Called Numbers", Help: "Unique numbers called", Kind: KindInteger, Min: validation.FloatPtr(0), Step: "1", Required: true},
	{Name: "Age_Group", Label: "Age Group", Help: "Age category", Kind: KindInteger, Min: validation.FloatPtr(1), Max: validation.FloatPtr(5), Required: true,
		Options: []Option{{"1", "Group 1"}, {"2", "Group 2"}, {"3", "Group 3"}, {"4", "Group 4"}, {"5", "Group 5"}}},
	{Name: "Tariff_Plan", Label: "Tariff Plan", Help: "Plan type", Kind: KindInteger, Min: validation.FloatPtr(1), Max: validation.FloatPtr(2), Required: true,
		Options: []Option{{"1", "Pay as you go"}, {"2", "Contractual"}}},
	{Name: "Status", Label: "Status", Help: "Account status", Kind: KindInteger, Min: validation.FloatPtr(1), Max: validation.FloatPtr(2), Required: true,
		Options: []Option{{"1", "Active"}, {"2", "Non-active"}}},
	{Name: "Age", Label: "Age", Help: "Customer age", Kind: KindInteger, Min: validation.FloatPtr(0), Max: validation.FloatPtr(120), Step: "1", Required: true},
	{Name: "Customer_Value", Label: "Customer Value", Help: "Calculated customer value", Kind: KindNumber, Min: validation.FloatPtr(0), Step: "any", Required: true},
}

var byName = func() map[string]Field {
	m := make(map[string]Field, len(fields))
	for _, f := range fields {
		m[f.Name] = f
	}
	return m
}()

// Fields returns the declared fields in display order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// Lookup returns the declared field with the given name.
func Lookup(name string) (Field, bool) {
	f, ok := byName[name]
	return f, ok
}

// Schema converts the declared fields into a validation schema. Undeclared
// fields are allowed and sent as-is.
func Schema() validation.JSONSchema {
	schema := validation.JSONSchema{
		Type:                 "object",
		Properties:           make(map[string]validation.Property, len(fields)),
		AdditionalProperties: true,
	}
	for _, f := range fields {
		schema.Properties[f.Name] = validation.Property{
			Type:        string(f.Kind),
			Description: f.Help,
			Minimum:     f.Min,
			Maximum:     f.Max,
		}
		if f.Required {
			schema.Required = append(schema.Required, f.Name)
		}
	}
	return schema
}
