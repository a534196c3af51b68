// Package catalog declares type descriptors in YAML or JSON files: the
// manual-registration strategy for hosts without reflection.
//
// A catalog document lists types and, optionally, namespace overrides:
//
//	types:
//	  - id: com.acme.internal.Order
//	    kind: record
//	    fields:
//	      - {name: item, type: com.acme.internal.Widget}
//	  - id: com.acme.internal.Widget
//	    kind: record
//	    namespace: com.acme.v2
//	    fields:
//	      - {name: sku, type: string}
//	overrides:
//	  com.acme.internal.Order: com.acme.orders
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/avroskema"
)

// Catalog is a Provider backed by declared types. Loading is safe to
// interleave with Describe.
type Catalog struct {
	mu        sync.RWMutex
	types     map[avroskema.TypeID]avroskema.Descriptor
	overrides map[avroskema.TypeID]avroskema.Override
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		types:     make(map[avroskema.TypeID]avroskema.Descriptor),
		overrides: make(map[avroskema.TypeID]avroskema.Override),
	}
}

// LoadFile loads a catalog file; ".json" files are read as JSON, anything
// else as (multi-document) YAML.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = c.LoadJSON(data)
	} else {
		err = c.LoadYAML(data)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadYAML loads every document of a YAML stream. Unknown keys are rejected.
func (c *Catalog) LoadYAML(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	for i := 0; ; i++ {
		var f File
		if err := dec.Decode(&f); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("catalog: document %d: %w", i, err)
		}
		if err := c.Add(f); err != nil {
			return fmt.Errorf("catalog: document %d: %w", i, err)
		}
	}
}

// LoadJSON loads a single JSON catalog document. Unknown keys are rejected.
func (c *Catalog) LoadJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var f File
	if err := dec.Decode(&f); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := c.Add(f); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	return nil
}

// Add merges a decoded document. Nothing is added when any entry is invalid.
func (c *Catalog) Add(f File) error {
	types := make(map[avroskema.TypeID]avroskema.Descriptor, len(f.Types))
	overrides := make(map[avroskema.TypeID]avroskema.Override)
	for i, ts := range f.Types {
		id, d, err := ts.descriptor()
		if err != nil {
			return fmt.Errorf("types[%d]: %w", i, err)
		}
		if _, dup := types[id]; dup {
			return fmt.Errorf("types[%d]: %s declared more than once", i, id)
		}
		types[id] = d
		if ts.Namespace != "" || ts.Name != "" {
			overrides[id] = avroskema.Override{Namespace: ts.Namespace, Name: ts.Name}
		}
	}
	for key, o := range f.Overrides {
		id, err := avroskema.ParseTypeID(key)
		if err != nil {
			return fmt.Errorf("overrides: %w", err)
		}
		ov := avroskema.Override{Namespace: o.Namespace, Name: o.Name}
		if prev, ok := overrides[id]; ok && prev != ov {
			return fmt.Errorf("overrides: %s overridden twice (%s, %s)", id, prev, ov)
		}
		overrides[id] = ov
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range types {
		if _, dup := c.types[id]; dup {
			return fmt.Errorf("%s already declared", id)
		}
	}
	for id, o := range overrides {
		if prev, ok := c.overrides[id]; ok && prev != o {
			return fmt.Errorf("%s overridden twice (%s, %s)", id, prev, o)
		}
	}
	for id, d := range types {
		c.types[id] = d
	}
	for id, o := range overrides {
		c.overrides[id] = o
	}
	return nil
}

// Describe implements avroskema.Provider.
func (c *Catalog) Describe(id avroskema.TypeID) (avroskema.Descriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.types[id]
	if !ok {
		return avroskema.Descriptor{}, avroskema.ErrNotDescribed
	}
	return d, nil
}

// Apply registers the catalog's overrides into reg, in TypeID order.
func (c *Catalog) Apply(reg *avroskema.Registry) error {
	c.mu.RLock()
	entries := make([]avroskema.Entry, 0, len(c.overrides))
	for id, o := range c.overrides {
		entries = append(entries, avroskema.Entry{ID: id, Override: o})
	}
	c.mu.RUnlock()
	slices.SortFunc(entries, func(a, b avroskema.Entry) int { return compareID(a.ID, b.ID) })
	for _, e := range entries {
		if err := reg.RegisterOverride(e.ID, e.Override); err != nil {
			return err
		}
	}
	return nil
}

// IDs returns the declared TypeIDs, sorted.
func (c *Catalog) IDs() []avroskema.TypeID {
	c.mu.RLock()
	out := make([]avroskema.TypeID, 0, len(c.types))
	for id := range c.types {
		out = append(out, id)
	}
	c.mu.RUnlock()
	slices.SortFunc(out, compareID)
	return out
}

// Len returns the number of declared types.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.types)
}

func compareID(a, b avroskema.TypeID) int { return strings.Compare(a.String(), b.String()) }

func (ts TypeSpec) descriptor() (avroskema.TypeID, avroskema.Descriptor, error) {
	id, err := avroskema.ParseTypeID(ts.ID)
	if err != nil {
		return id, avroskema.Descriptor{}, err
	}
	kind, ok := avroskema.ParseKind(ts.Kind)
	if !ok {
		return id, avroskema.Descriptor{}, fmt.Errorf("%s: unknown kind %q", id, ts.Kind)
	}
	d := avroskema.Descriptor{
		Kind:    kind,
		Doc:     ts.Doc,
		Aliases: ts.Aliases,
	}
	if ts.Scope != nil {
		d.Scope = slices.Clone(*ts.Scope)
	} else if i := strings.LastIndexByte(id.Name, '.'); i >= 0 {
		d.Scope = strings.Split(id.Name[:i], ".")
	}
	if id.Generic() {
		d.TypeArgs = typeArgs(id)
	}
	ref := func(what, s string) (avroskema.TypeID, error) {
		if s == "" {
			return avroskema.TypeID{}, fmt.Errorf("%s: %s is required for kind %s", id, what, kind)
		}
		t, err := avroskema.ParseTypeID(s)
		if err != nil {
			return t, fmt.Errorf("%s: %s: %w", id, what, err)
		}
		return t, nil
	}
	switch kind {
	case avroskema.KindPrimitive:
		d.Primitive = avroskema.PrimitiveType(ts.Type)
		d.Logical = ts.logical()
	case avroskema.KindRecord:
		for _, f := range ts.Fields {
			t, err := ref("type of field "+f.Name, f.Type)
			if err != nil {
				return id, d, err
			}
			d.Fields = append(d.Fields, avroskema.FieldDescriptor{
				Name:       f.Name,
				Type:       t,
				Default:    f.Default,
				HasDefault: f.HasDefault,
				Doc:        f.Doc,
				Aliases:    f.Aliases,
			})
		}
	case avroskema.KindEnum:
		d.Symbols = ts.Symbols
		d.DefaultSymbol = ts.Default
	case avroskema.KindUnion:
		for _, b := range ts.Branches {
			if b == "" {
				// a JSON null branch decodes to ""
				b = string(avroskema.Null)
			}
			t, err := ref("branch", b)
			if err != nil {
				return id, d, err
			}
			d.Branches = append(d.Branches, t)
		}
	case avroskema.KindFixed:
		d.Size = ts.Size
		d.Logical = ts.logical()
	case avroskema.KindArray:
		if d.Elem, err = ref("items", ts.Items); err != nil {
			return id, d, err
		}
	case avroskema.KindMap:
		if d.Elem, err = ref("values", ts.Values); err != nil {
			return id, d, err
		}
	}
	return id, d, nil
}

func (ts TypeSpec) logical() *avroskema.LogicalType {
	if ts.Logical == "" {
		return nil
	}
	return &avroskema.LogicalType{Name: ts.Logical, Precision: ts.Precision, Scale: ts.Scale}
}

// typeArgs splits the canonical "[a,b[c]]" argument list at top-level commas.
func typeArgs(id avroskema.TypeID) []avroskema.TypeID {
	s := strings.TrimSuffix(strings.TrimPrefix(id.Args, "["), "]")
	var out []avroskema.TypeID
	depth, start := 0, 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) {
			switch s[i] {
			case '[':
				depth++
				continue
			case ']':
				depth--
				continue
			case ',':
				if depth > 0 {
					continue
				}
			default:
				continue
			}
		}
		if t, err := avroskema.ParseTypeID(s[start:i]); err == nil {
			out = append(out, t)
		}
		start = i + 1
	}
	return out
}
