package catalog

import (
	"fmt"
)

// PropertyType is the semantic type of a configurable field.
type PropertyType string

const (
	TypeText     PropertyType = "text"
	TypeNumber   PropertyType = "number"
	TypeColor    PropertyType = "color"
	TypeFile     PropertyType = "file"
	TypeSelect   PropertyType = "select"
	TypeTextarea PropertyType = "textarea"
	TypeBoolean  PropertyType = "boolean"
	TypeArray    PropertyType = "array"
)

// Constraints are type-specific input hints. They are enforced by whoever
// collects the input, not by Validate.
type Constraints struct {
	Min     *float64         `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64         `json:"max,omitempty" yaml:"max,omitempty"`
	Step    *float64         `json:"step,omitempty" yaml:"step,omitempty"`
	Options []string         `json:"options,omitempty" yaml:"options,omitempty"`
	Items   *ComponentSchema `json:"items,omitempty" yaml:"items,omitempty"`
}

// ComponentProperty describes one configurable field.
type ComponentProperty struct {
	ID          string       `json:"id" yaml:"id"`
	Label       string       `json:"label,omitempty" yaml:"label,omitempty"`
	Type        PropertyType `json:"type" yaml:"type"`
	Required    bool         `json:"required" yaml:"required"`
	Default     any          `json:"default,omitempty" yaml:"default,omitempty"`
	Constraints Constraints  `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// ComponentSchema is the ordered list of fields of a component asset.
type ComponentSchema struct {
	ID         string              `json:"id" yaml:"id"`
	Properties []ComponentProperty `json:"properties" yaml:"properties"`
}

// SchemaViolation reports a required property that is missing or null.
type SchemaViolation struct {
	AssetType    string
	MissingField string
}

func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("asset %q: required property %q is missing", e.AssetType, e.MissingField)
}

// Defaults returns the schema's default values keyed by property id.
func (s *ComponentSchema) Defaults() Properties {
	out := Properties{}
	if s == nil {
		return out
	}
	for _, p := range s.Properties {
		if p.Default != nil {
			out[p.ID] = p.Default
		}
	}
	return out
}

// missing returns the path of the first required field that is absent or nil.
// Array items carrying a nested schema are checked the same way.
func (s *ComponentSchema) missing(props map[string]any, prefix string) string {
	if s == nil {
		return ""
	}
	for _, p := range s.Properties {
		v, ok := props[p.ID]
		if p.Required && (!ok || v == nil) {
			return prefix + p.ID
		}
		if p.Type != TypeArray || p.Constraints.Items == nil || v == nil {
			continue
		}
		list, ok := v.([]any)
		if !ok {
			continue
		}
		for i, el := range list {
			m, ok := el.(map[string]any)
			if !ok {
				continue
			}
			if f := p.Constraints.Items.missing(m, fmt.Sprintf("%s%s[%d].", prefix, p.ID, i)); f != "" {
				return f
			}
		}
	}
	return ""
}
