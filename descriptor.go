package avroskema

import "errors"

// Descriptor is an immutable snapshot of a type's shape, produced once per
// TypeID by a Provider. Which fields are meaningful depends on Kind.
type Descriptor struct {
	Kind Kind

	// KindPrimitive (Logical also applies to KindFixed).
	Primitive PrimitiveType
	Logical   *LogicalType

	// KindRecord, in declaration order.
	Fields []FieldDescriptor

	// KindEnum, in declaration order. DefaultSymbol is optional.
	Symbols       []string
	DefaultSymbol string

	// KindUnion, in declaration order. Nested unions must already be
	// flattened by the provider.
	Branches []TypeID

	// KindFixed.
	Size int

	// KindArray items / KindMap values.
	Elem TypeID

	// Scope is the enclosing-scope path, outermost first, excluding the
	// type's own simple name.
	Scope []string

	// TypeArgs lists generic argument bindings in order.
	TypeArgs []TypeID

	Doc     string
	Aliases []string
}

// FieldDescriptor describes one record field.
type FieldDescriptor struct {
	Name string
	Type TypeID
	// Default is only meaningful when HasDefault is set; a nil Default with
	// HasDefault renders as an explicit null default.
	Default    any
	HasDefault bool
	Doc        string
	Aliases    []string
}

// Provider supplies descriptors. Describe must fail as a whole, never return
// a partial descriptor, when a type is unsupported.
type Provider interface {
	Describe(id TypeID) (Descriptor, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(id TypeID) (Descriptor, error)

// Describe calls f(id).
func (f ProviderFunc) Describe(id TypeID) (Descriptor, error) { return f(id) }

// ErrNotDescribed is returned by providers that do not know a TypeID.
var ErrNotDescribed = errors.New("avroskema: type not described")

// MapProvider is a fixed, in-memory Provider. It is safe for concurrent reads.
type MapProvider map[TypeID]Descriptor

// Describe returns the stored descriptor or ErrNotDescribed.
func (m MapProvider) Describe(id TypeID) (Descriptor, error) {
	d, ok := m[id]
	if !ok {
		return Descriptor{}, ErrNotDescribed
	}
	return d, nil
}

// Chain consults providers in order and returns the first descriptor found.
// Errors other than ErrNotDescribed stop the search.
func Chain(providers ...Provider) Provider {
	return ProviderFunc(func(id TypeID) (Descriptor, error) {
		for _, p := range providers {
			d, err := p.Describe(id)
			if err == nil {
				return d, nil
			}
			if !errors.Is(err, ErrNotDescribed) {
				return Descriptor{}, err
			}
		}
		return Descriptor{}, ErrNotDescribed
	})
}
