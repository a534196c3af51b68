package avroskema

import (
	"fmt"
	"slices"

	json "github.com/goccy/go-json"
)

// Document is a derived schema: the root tree plus every named definition it
// reaches. A Document renders to the canonical JSON schema grammar: each named
// type is defined at its first occurrence in document order and referenced by
// full name afterwards.
type Document struct {
	Root  Node
	named map[QualifiedName]Named
}

func newDocument(root Node) *Document {
	return &Document{Root: root, named: make(map[QualifiedName]Named)}
}

// Lookup returns the definition of a named type in the document.
func (d *Document) Lookup(qn QualifiedName) (Named, bool) {
	n, ok := d.named[qn]
	return n, ok
}

// Names returns the qualified names defined in the document, sorted.
func (d *Document) Names() []QualifiedName {
	out := make([]QualifiedName, 0, len(d.named))
	for qn := range d.named {
		out = append(out, qn)
	}
	slices.SortFunc(out, QualifiedName.Compare)
	return out
}

// MarshalJSON renders the document.
func (d *Document) MarshalJSON() ([]byte, error) {
	v, err := d.Value()
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// MarshalIndent renders the document with indentation.
func (d *Document) MarshalIndent(prefix, indent string) ([]byte, error) {
	v, err := d.Value()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(v, prefix, indent)
}

// Value returns the JSON-compatible tree of the document. Object keys keep the
// canonical order (type, name, namespace, ...).
func (d *Document) Value() (any, error) {
	r := &renderer{doc: d, defined: make(map[QualifiedName]bool, len(d.named))}
	return r.render(d.Root, "")
}

type recordJSON struct {
	Type      string      `json:"type"`
	Name      string      `json:"name"`
	Namespace *string     `json:"namespace,omitempty"`
	Doc       string      `json:"doc,omitempty"`
	Aliases   []string    `json:"aliases,omitempty"`
	Fields    []fieldJSON `json:"fields"`
}

type fieldJSON struct {
	Name    string          `json:"name"`
	Type    any             `json:"type"`
	Default json.RawMessage `json:"default,omitempty"`
	Doc     string          `json:"doc,omitempty"`
	Aliases []string        `json:"aliases,omitempty"`
}

type enumJSON struct {
	Type      string   `json:"type"`
	Name      string   `json:"name"`
	Namespace *string  `json:"namespace,omitempty"`
	Doc       string   `json:"doc,omitempty"`
	Aliases   []string `json:"aliases,omitempty"`
	Symbols   []string `json:"symbols"`
	Default   string   `json:"default,omitempty"`
}

type fixedJSON struct {
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Namespace   *string  `json:"namespace,omitempty"`
	Doc         string   `json:"doc,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
	Size        int      `json:"size"`
	LogicalType string   `json:"logicalType,omitempty"`
	Precision   int      `json:"precision,omitempty"`
	Scale       int      `json:"scale,omitempty"`
}

type logicalJSON struct {
	Type        string `json:"type"`
	LogicalType string `json:"logicalType"`
	Precision   int    `json:"precision,omitempty"`
	Scale       int    `json:"scale,omitempty"`
}

type arrayJSON struct {
	Type  string `json:"type"`
	Items any    `json:"items"`
}

type mapJSON struct {
	Type   string `json:"type"`
	Values any    `json:"values"`
}

type renderer struct {
	doc     *Document
	defined map[QualifiedName]bool
}

// namespaceOf decides whether "namespace" is emitted. An empty namespace is
// written out only when the enclosing one is not empty, otherwise the reader
// would inherit the enclosing namespace.
func namespaceOf(ns, enclosing string) *string {
	if ns == "" && enclosing == "" {
		return nil
	}
	return &ns
}

func (r *renderer) render(n Node, enclosing string) (any, error) {
	switch n := n.(type) {
	case *Primitive:
		if n.Logical == nil {
			return string(n.Type), nil
		}
		return logicalJSON{
			Type:        string(n.Type),
			LogicalType: n.Logical.Name,
			Precision:   n.Logical.Precision,
			Scale:       n.Logical.Scale,
		}, nil
	case *Ref:
		if r.defined[n.Name] {
			return n.Name.FullName(), nil
		}
		def, ok := r.doc.named[n.Name]
		if !ok {
			return nil, fmt.Errorf("avroskema: no definition for reference %s", n.Name)
		}
		return r.render(def, enclosing)
	case *Record:
		if r.defined[n.Name] {
			return n.Name.FullName(), nil
		}
		r.defined[n.Name] = true
		out := recordJSON{
			Type:      "record",
			Name:      n.Name.Name,
			Namespace: namespaceOf(n.Name.Namespace, enclosing),
			Doc:       n.Doc,
			Aliases:   n.Aliases,
			Fields:    make([]fieldJSON, 0, len(n.Fields)),
		}
		for _, f := range n.Fields {
			t, err := r.render(f.Type, n.Name.Namespace)
			if err != nil {
				return nil, err
			}
			fj := fieldJSON{Name: f.Name, Type: t, Doc: f.Doc, Aliases: f.Aliases}
			if f.HasDefault {
				b, err := json.Marshal(f.Default)
				if err != nil {
					return nil, fmt.Errorf("avroskema: default of %s.%s: %w", n.Name, f.Name, err)
				}
				fj.Default = b
			}
			out.Fields = append(out.Fields, fj)
		}
		return out, nil
	case *Enum:
		if r.defined[n.Name] {
			return n.Name.FullName(), nil
		}
		r.defined[n.Name] = true
		return enumJSON{
			Type:      "enum",
			Name:      n.Name.Name,
			Namespace: namespaceOf(n.Name.Namespace, enclosing),
			Doc:       n.Doc,
			Aliases:   n.Aliases,
			Symbols:   n.Symbols,
			Default:   n.Default,
		}, nil
	case *Fixed:
		if r.defined[n.Name] {
			return n.Name.FullName(), nil
		}
		r.defined[n.Name] = true
		out := fixedJSON{
			Type:      "fixed",
			Name:      n.Name.Name,
			Namespace: namespaceOf(n.Name.Namespace, enclosing),
			Doc:       n.Doc,
			Aliases:   n.Aliases,
			Size:      n.Size,
		}
		if n.Logical != nil {
			out.LogicalType = n.Logical.Name
			out.Precision = n.Logical.Precision
			out.Scale = n.Logical.Scale
		}
		return out, nil
	case *Union:
		out := make([]any, 0, len(n.Branches))
		for _, b := range n.Branches {
			v, err := r.render(b, enclosing)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case *Array:
		items, err := r.render(n.Items, enclosing)
		if err != nil {
			return nil, err
		}
		return arrayJSON{Type: "array", Items: items}, nil
	case *Map:
		values, err := r.render(n.Values, enclosing)
		if err != nil {
			return nil, err
		}
		return mapJSON{Type: "map", Values: values}, nil
	case nil:
		return nil, fmt.Errorf("avroskema: nil node")
	}
	return nil, fmt.Errorf("avroskema: unsupported node %T", n)
}
