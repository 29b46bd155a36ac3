package grounded

import (
	"encoding/json"
	"fmt"
	"sort"

	"google.golang.org/genai"
)

// Type is a JSON value kind a Schema node can require.
type Type string

const (
	TypeString  Type = "STRING"
	TypeNumber  Type = "NUMBER"
	TypeBoolean Type = "BOOLEAN"
	TypeArray   Type = "ARRAY"
	TypeObject  Type = "OBJECT"
)

// Schema describes the JSON shape a structured query must return.
type Schema struct {
	Type        Type
	Description string
	Properties  map[string]*Schema
	Items       *Schema
	Required    []string
	Enum        []string
}

// String is a convenience constructor for a string leaf.
func String(description string) *Schema {
	return &Schema{Type: TypeString, Description: description}
}

// Enum is a string leaf restricted to values.
func Enum(description string, values ...string) *Schema {
	return &Schema{Type: TypeString, Description: description, Enum: values}
}

// Number is a convenience constructor for a number leaf.
func Number(description string) *Schema {
	return &Schema{Type: TypeNumber, Description: description}
}

// Boolean is a convenience constructor for a boolean leaf.
func Boolean(description string) *Schema {
	return &Schema{Type: TypeBoolean, Description: description}
}

// ArrayOf returns an array schema with the given item schema.
func ArrayOf(items *Schema) *Schema {
	return &Schema{Type: TypeArray, Items: items}
}

// Object returns an object schema. Every property is listed as required
// unless optional names it.
func Object(properties map[string]*Schema, optional ...string) *Schema {
	skip := make(map[string]bool, len(optional))
	for _, name := range optional {
		skip[name] = true
	}

	required := make([]string, 0, len(properties))
	for name := range properties {
		if !skip[name] {
			required = append(required, name)
		}
	}
	sort.Strings(required)

	return &Schema{Type: TypeObject, Properties: properties, Required: required}
}

func (s *Schema) toGenAI() *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        genaiType(s.Type),
		Description: s.Description,
		Items:       s.Items.toGenAI(),
	}
	if len(s.Enum) > 0 {
		out.Enum = append([]string(nil), s.Enum...)
	}
	if len(s.Required) > 0 {
		out.Required = append([]string(nil), s.Required...)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = prop.toGenAI()
		}
	}
	return out
}

func genaiType(t Type) genai.Type {
	switch t {
	case TypeString:
		return genai.TypeString
	case TypeNumber:
		return genai.TypeNumber
	case TypeBoolean:
		return genai.TypeBoolean
	case TypeArray:
		return genai.TypeArray
	case TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

// conform checks that raw is JSON whose value kinds match the schema.
// Missing properties are left to the caller's contract; only present
// values are checked.
func (s *Schema) conform(raw []byte) error {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if v == nil {
		return fmt.Errorf("%w: null body", ErrSchemaMismatch)
	}
	return s.check("$", v)
}

func (s *Schema) check(path string, v interface{}) error {
	if s == nil || v == nil {
		return nil
	}

	switch s.Type {
	case TypeString:
		if _, ok := v.(string); !ok {
			return mismatch(path, s.Type, v)
		}
	case TypeNumber:
		if _, ok := v.(float64); !ok {
			return mismatch(path, s.Type, v)
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return mismatch(path, s.Type, v)
		}
	case TypeArray:
		items, ok := v.([]interface{})
		if !ok {
			return mismatch(path, s.Type, v)
		}
		for i, item := range items {
			if err := s.Items.check(fmt.Sprintf("%s[%d]", path, i), item); err != nil {
				return err
			}
		}
	case TypeObject:
		fields, ok := v.(map[string]interface{})
		if !ok {
			return mismatch(path, s.Type, v)
		}
		for name, prop := range s.Properties {
			if err := prop.check(path+"."+name, fields[name]); err != nil {
				return err
			}
		}
	}
	return nil
}

func mismatch(path string, want Type, got interface{}) error {
	return fmt.Errorf("%w: %s: want %s, got %T", ErrSchemaMismatch, path, want, got)
}
