// Package reflectschema describes Go types through reflect: the runtime
// introspection strategy.
//
// Mapping:
//   - named structs become records; exported fields in declaration order,
//     embedded structs without a tag name are flattened
//   - field keys: avro tag > json tag > field name; "-" skips the field
//   - `avro:"name,default=<json>"` declares a field default
//   - pointers become [null, T] unions
//   - slices and arrays become arrays, []byte becomes bytes
//   - map[string]V becomes a map
//   - named [N]byte becomes fixed
//   - time.Time becomes long/timestamp-millis
//   - a named type with an AvroSymbols() []string method becomes an enum
//   - AvroNamespace() string overrides a type's namespace, AvroDoc() string
//     sets its doc
//
// The scope of a named type is its package path, one segment per path element
// with characters outside the identifier grammar replaced by '_'.
package reflectschema

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/reoring/avroskema"
	"github.com/reoring/avroskema/internal/names"
)

type symboler interface{ AvroSymbols() []string }

type namespacer interface{ AvroNamespace() string }

type documenter interface{ AvroDoc() string }

var (
	symbolerType   = reflect.TypeOf((*symboler)(nil)).Elem()
	namespacerType = reflect.TypeOf((*namespacer)(nil)).Elem()
	documenterType = reflect.TypeOf((*documenter)(nil)).Elem()
	timeType       = reflect.TypeOf(time.Time{})
)

// TimeID is the identity time.Time is described under.
var TimeID = avroskema.TypeID{Name: "time.Time"}

// Provider describes the Go types added to it and every type they reach.
type Provider struct {
	mu        sync.RWMutex
	descs     map[avroskema.TypeID]avroskema.Descriptor
	ids       map[reflect.Type]avroskema.TypeID
	overrides map[avroskema.TypeID]string
}

// New returns an empty Provider.
func New() *Provider {
	return &Provider{
		descs:     make(map[avroskema.TypeID]avroskema.Descriptor),
		ids:       make(map[reflect.Type]avroskema.TypeID),
		overrides: make(map[avroskema.TypeID]string),
	}
}

// Add discovers the dynamic types of values and returns their TypeIDs in
// order. Nothing is added when any reachable type is unsupported.
func (p *Provider) Add(values ...any) ([]avroskema.TypeID, error) {
	types := make([]reflect.Type, len(values))
	for i, v := range values {
		if v == nil {
			return nil, errors.New("reflectschema: nil value has no type")
		}
		types[i] = reflect.TypeOf(v)
	}
	return p.AddTypes(types...)
}

// AddTypes is Add for reflect.Types.
func (p *Provider) AddTypes(types ...reflect.Type) ([]avroskema.TypeID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	w := &walker{
		p:         p,
		descs:     make(map[avroskema.TypeID]avroskema.Descriptor),
		ids:       make(map[reflect.Type]avroskema.TypeID),
		overrides: make(map[avroskema.TypeID]string),
		visiting:  make(map[reflect.Type]bool),
	}
	out := make([]avroskema.TypeID, 0, len(types))
	for _, t := range types {
		id, err := w.id(t)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	for k, v := range w.descs {
		p.descs[k] = v
	}
	for k, v := range w.ids {
		p.ids[k] = v
	}
	for k, v := range w.overrides {
		p.overrides[k] = v
	}
	return out, nil
}

// Describe implements avroskema.Provider.
func (p *Provider) Describe(id avroskema.TypeID) (avroskema.Descriptor, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.descs[id]
	if !ok {
		return avroskema.Descriptor{}, avroskema.ErrNotDescribed
	}
	return d, nil
}

// Apply registers the AvroNamespace overrides found so far into reg.
func (p *Provider) Apply(reg *avroskema.Registry) error {
	p.mu.RLock()
	entries := make([]avroskema.Entry, 0, len(p.overrides))
	for id, ns := range p.overrides {
		entries = append(entries, avroskema.Entry{ID: id, Override: avroskema.Override{Namespace: ns}})
	}
	p.mu.RUnlock()
	slices.SortFunc(entries, func(a, b avroskema.Entry) int { return strings.Compare(a.ID.String(), b.ID.String()) })
	for _, e := range entries {
		if err := reg.RegisterOverride(e.ID, e.Override); err != nil {
			return err
		}
	}
	return nil
}

// UnsupportedTypeError reports a Go type with no schema mapping.
type UnsupportedTypeError struct {
	Type   reflect.Type
	Reason string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("reflectschema: unsupported type %s: %s", e.Type, e.Reason)
}

type walker struct {
	p         *Provider
	descs     map[avroskema.TypeID]avroskema.Descriptor
	ids       map[reflect.Type]avroskema.TypeID
	overrides map[avroskema.TypeID]string
	visiting  map[reflect.Type]bool // unnamed-kind types being walked
}

func (w *walker) id(t reflect.Type) (avroskema.TypeID, error) {
	if id, ok := w.ids[t]; ok {
		return id, nil
	}
	if id, ok := w.p.ids[t]; ok {
		return id, nil
	}
	if t == timeType {
		w.define(t, TimeID, avroskema.Descriptor{
			Kind:      avroskema.KindPrimitive,
			Primitive: avroskema.Long,
			Logical:   &avroskema.LogicalType{Name: "timestamp-millis"},
		})
		return TimeID, nil
	}
	if t.Name() != "" && t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(symbolerType) {
		return w.enum(t)
	}
	switch t.Kind() {
	case reflect.Bool:
		return avroskema.PrimitiveID(avroskema.Boolean), nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		return avroskema.PrimitiveID(avroskema.Int), nil
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return avroskema.PrimitiveID(avroskema.Long), nil
	case reflect.Float32:
		return avroskema.PrimitiveID(avroskema.Float), nil
	case reflect.Float64:
		return avroskema.PrimitiveID(avroskema.Double), nil
	case reflect.String:
		return avroskema.PrimitiveID(avroskema.String), nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return avroskema.PrimitiveID(avroskema.Bytes), nil
		}
		return w.collection(t, "array", avroskema.KindArray)
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			if t.Name() == "" {
				return avroskema.TypeID{}, &UnsupportedTypeError{Type: t, Reason: "fixed-size byte arrays must be named"}
			}
			return w.fixed(t)
		}
		return w.collection(t, "array", avroskema.KindArray)
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return avroskema.TypeID{}, &UnsupportedTypeError{Type: t, Reason: "map keys must be strings"}
		}
		return w.collection(t, "map", avroskema.KindMap)
	case reflect.Pointer:
		elem, err := w.elem(t)
		if err != nil {
			return avroskema.TypeID{}, err
		}
		id := avroskema.NewTypeID("optional", elem)
		w.define(t, id, avroskema.Descriptor{
			Kind:     avroskema.KindUnion,
			Branches: []avroskema.TypeID{avroskema.PrimitiveID(avroskema.Null), elem},
		})
		return id, nil
	case reflect.Struct:
		if t.Name() == "" {
			return avroskema.TypeID{}, &UnsupportedTypeError{Type: t, Reason: "anonymous structs have no name"}
		}
		return w.record(t)
	}
	return avroskema.TypeID{}, &UnsupportedTypeError{Type: t, Reason: "no schema mapping for kind " + t.Kind().String()}
}

func (w *walker) define(t reflect.Type, id avroskema.TypeID, d avroskema.Descriptor) {
	w.ids[t] = id
	w.descs[id] = d
}

// named returns the identity and enclosing scope of a named type and records
// its AvroNamespace override.
func (w *walker) named(t reflect.Type) (avroskema.TypeID, []string) {
	scope := Scope(t.PkgPath())
	base, args := t.Name(), ""
	if i := strings.IndexByte(base, '['); i >= 0 {
		base, args = base[:i], base[i:]
	}
	id := avroskema.TypeID{Name: names.Join(strings.Join(scope, "."), base), Args: args}
	if reflect.PointerTo(t).Implements(namespacerType) {
		w.overrides[id] = reflect.New(t).Interface().(namespacer).AvroNamespace()
	}
	return id, scope
}

func docOf(t reflect.Type) string {
	if reflect.PointerTo(t).Implements(documenterType) {
		return reflect.New(t).Interface().(documenter).AvroDoc()
	}
	return ""
}

// Scope maps a Go package path onto a namespace path.
func Scope(pkgPath string) []string {
	if pkgPath == "" {
		return nil
	}
	parts := strings.Split(pkgPath, "/")
	for i, s := range parts {
		parts[i] = names.Sanitize(s)
	}
	return parts
}

func (w *walker) enum(t reflect.Type) (avroskema.TypeID, error) {
	id, scope := w.named(t)
	symbols := reflect.New(t).Interface().(symboler).AvroSymbols()
	w.define(t, id, avroskema.Descriptor{
		Kind:    avroskema.KindEnum,
		Scope:   scope,
		Symbols: slices.Clone(symbols),
		Doc:     docOf(t),
	})
	return id, nil
}

func (w *walker) fixed(t reflect.Type) (avroskema.TypeID, error) {
	id, scope := w.named(t)
	w.define(t, id, avroskema.Descriptor{
		Kind:  avroskema.KindFixed,
		Scope: scope,
		Size:  t.Len(),
		Doc:   docOf(t),
	})
	return id, nil
}

func (w *walker) elem(t reflect.Type) (avroskema.TypeID, error) {
	if w.visiting[t] {
		return avroskema.TypeID{}, &UnsupportedTypeError{Type: t, Reason: "recursion without a named struct"}
	}
	w.visiting[t] = true
	defer delete(w.visiting, t)
	return w.id(t.Elem())
}

func (w *walker) collection(t reflect.Type, name string, kind avroskema.Kind) (avroskema.TypeID, error) {
	elem, err := w.elem(t)
	if err != nil {
		return avroskema.TypeID{}, err
	}
	id := avroskema.NewTypeID(name, elem)
	w.define(t, id, avroskema.Descriptor{Kind: kind, Elem: elem})
	return id, nil
}

func (w *walker) record(t reflect.Type) (avroskema.TypeID, error) {
	id, scope := w.named(t)
	// claim the identity first so self references terminate
	w.ids[t] = id
	d := avroskema.Descriptor{Kind: avroskema.KindRecord, Scope: scope, Doc: docOf(t)}
	if err := w.fields(t, &d, map[reflect.Type]bool{t: true}); err != nil {
		delete(w.ids, t)
		return avroskema.TypeID{}, err
	}
	w.descs[id] = d
	return id, nil
}

// fields appends the fields of t to d, flattening untagged embedded structs.
// An embedded struct already being flattened is skipped, as encoding/json does.
func (w *walker) fields(t reflect.Type, d *avroskema.Descriptor, embedding map[reflect.Type]bool) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		key, def, hasDef, err := fieldKey(sf)
		if err != nil {
			return fmt.Errorf("reflectschema: %s.%s: %w", t, sf.Name, err)
		}
		if key == "-" {
			continue
		}
		if sf.Anonymous && !tagged(sf) {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if embedding[ft] {
					continue
				}
				embedding[ft] = true
				err := w.fields(ft, d, embedding)
				delete(embedding, ft)
				if err != nil {
					return err
				}
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		ft, err := w.id(sf.Type)
		if err != nil {
			return err
		}
		d.Fields = append(d.Fields, avroskema.FieldDescriptor{
			Name:       key,
			Type:       ft,
			Default:    def,
			HasDefault: hasDef,
		})
	}
	return nil
}

func tagged(sf reflect.StructField) bool {
	return tagName(sf.Tag.Get("avro")) != "" || tagName(sf.Tag.Get("json")) != ""
}

func tagName(tag string) string {
	if i := strings.IndexByte(tag, ','); i >= 0 {
		return tag[:i]
	}
	return tag
}

// fieldKey resolves the schema field name: avro tag > json tag > field name.
// The "default=" option of the avro tag takes the rest of the tag as JSON.
func fieldKey(sf reflect.StructField) (key string, def any, hasDef bool, err error) {
	key = sf.Name
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-", nil, false, nil
		}
		if n := tagName(jt); n != "" {
			key = n
		}
	}
	at, ok := sf.Tag.Lookup("avro")
	if !ok {
		return key, nil, false, nil
	}
	if at == "-" {
		return "-", nil, false, nil
	}
	if n := tagName(at); n != "" {
		key = n
	}
	if i := strings.Index(at, ",default="); i >= 0 {
		raw := at[i+len(",default="):]
		if err := json.Unmarshal([]byte(raw), &def); err != nil {
			return "", nil, false, fmt.Errorf("default %q: %w", raw, err)
		}
		hasDef = true
	}
	return key, def, hasDef, nil
}
