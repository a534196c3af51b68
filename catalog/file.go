package catalog

import (
	"fmt"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// File is one catalog document. A YAML stream may hold several.
type File struct {
	Types     []TypeSpec              `yaml:"types" json:"types"`
	Overrides map[string]OverrideSpec `yaml:"overrides" json:"overrides"`
}

// TypeSpec declares one type. Which keys apply depends on Kind.
type TypeSpec struct {
	ID   string `yaml:"id" json:"id"`
	Kind string `yaml:"kind" json:"kind"`

	// Scope defaults to the dotted segments of ID minus the last one. An
	// explicit empty list declares a top-level type.
	Scope *[]string `yaml:"scope,omitempty" json:"scope,omitempty"`

	// Namespace and Name register an override for ID.
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Name      string `yaml:"name,omitempty" json:"name,omitempty"`

	Doc     string   `yaml:"doc,omitempty" json:"doc,omitempty"`
	Aliases []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`

	Fields   []FieldSpec `yaml:"fields,omitempty" json:"fields,omitempty"`
	Symbols  []string    `yaml:"symbols,omitempty" json:"symbols,omitempty"`
	Default  string      `yaml:"default,omitempty" json:"default,omitempty"`
	Branches []string    `yaml:"branches,omitempty" json:"branches,omitempty"`
	Items    string      `yaml:"items,omitempty" json:"items,omitempty"`
	Values   string      `yaml:"values,omitempty" json:"values,omitempty"`
	Size     int         `yaml:"size,omitempty" json:"size,omitempty"`

	// Type names the primitive of a primitive alias.
	Type      string `yaml:"type,omitempty" json:"type,omitempty"`
	Logical   string `yaml:"logical,omitempty" json:"logical,omitempty"`
	Precision int    `yaml:"precision,omitempty" json:"precision,omitempty"`
	Scale     int    `yaml:"scale,omitempty" json:"scale,omitempty"`
}

// FieldSpec declares one record field. HasDefault is set whenever the
// "default" key is present, including an explicit null.
type FieldSpec struct {
	Name       string
	Type       string
	Default    any
	HasDefault bool
	Doc        string
	Aliases    []string
}

type fieldKeys struct {
	Name    string   `yaml:"name" json:"name"`
	Type    string   `yaml:"type" json:"type"`
	Doc     string   `yaml:"doc" json:"doc"`
	Aliases []string `yaml:"aliases" json:"aliases"`
}

var knownFieldKeys = map[string]bool{"name": true, "type": true, "default": true, "doc": true, "aliases": true}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *FieldSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: field must be a mapping", value.Line)
	}
	var k fieldKeys
	if err := value.Decode(&k); err != nil {
		return err
	}
	*f = FieldSpec{Name: k.Name, Type: k.Type, Doc: k.Doc, Aliases: k.Aliases}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		if !knownFieldKeys[key.Value] {
			return fmt.Errorf("line %d: field %q has unknown key %q", key.Line, k.Name, key.Value)
		}
		if key.Value == "default" {
			var d any
			if err := val.Decode(&d); err != nil {
				return err
			}
			f.Default, f.HasDefault = d, true
		}
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FieldSpec) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for key := range raw {
		if !knownFieldKeys[key] {
			return fmt.Errorf("field has unknown key %q", key)
		}
	}
	var k fieldKeys
	if err := json.Unmarshal(b, &k); err != nil {
		return err
	}
	*f = FieldSpec{Name: k.Name, Type: k.Type, Doc: k.Doc, Aliases: k.Aliases}
	if d, ok := raw["default"]; ok {
		var v any
		if err := json.Unmarshal(d, &v); err != nil {
			return err
		}
		f.Default, f.HasDefault = v, true
	}
	return nil
}

// OverrideSpec is either a bare namespace string or a {namespace, name}
// mapping.
type OverrideSpec struct {
	Namespace string `yaml:"namespace" json:"namespace"`
	Name      string `yaml:"name,omitempty" json:"name,omitempty"`
}

type overrideKeys OverrideSpec

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *OverrideSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*o = OverrideSpec{Namespace: value.Value}
		return nil
	}
	var k overrideKeys
	if err := value.Decode(&k); err != nil {
		return err
	}
	*o = OverrideSpec(k)
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OverrideSpec) UnmarshalJSON(b []byte) error {
	var ns string
	if err := json.Unmarshal(b, &ns); err == nil {
		*o = OverrideSpec{Namespace: ns}
		return nil
	}
	var k overrideKeys
	if err := json.Unmarshal(b, &k); err != nil {
		return err
	}
	*o = OverrideSpec(k)
	return nil
}
