package avroskema

import (
	"fmt"
	"strings"

	"github.com/reoring/avroskema/internal/names"
)

// TypeID identifies one concrete type instantiation. Two TypeIDs are equal iff
// they denote the same instantiation, so TypeID is usable as a map key.
//
// Name is the fully-resolved dotted name of the (base) type. Args is the
// canonical rendering of generic argument bindings, for example
// "[int,com.acme.Widget]", and is empty for non-generic types.
type TypeID struct {
	Name string
	Args string
}

// NewTypeID builds a TypeID from a base name and its generic arguments.
func NewTypeID(name string, args ...TypeID) TypeID {
	if len(args) == 0 {
		return TypeID{Name: name}
	}
	b := &strings.Builder{}
	b.WriteByte('[')
	for i, a := range args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.String())
	}
	b.WriteByte(']')
	return TypeID{Name: name, Args: b.String()}
}

// ParseTypeID parses the String form of a TypeID ("com.acme.Box[int,string]").
// Whitespace around names and separators is ignored.
func ParseTypeID(s string) (TypeID, error) {
	p := &idParser{in: s}
	id, err := p.parse()
	if err != nil {
		return TypeID{}, err
	}
	p.skipSpace()
	if p.pos != len(p.in) {
		return TypeID{}, fmt.Errorf("avroskema: trailing input in type id %q at %d", s, p.pos)
	}
	return id, nil
}

// MustParseTypeID is like ParseTypeID but panics on error. Intended for
// package-level variables and tests.
func MustParseTypeID(s string) TypeID {
	id, err := ParseTypeID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String renders the identity as Name followed by Args.
func (id TypeID) String() string { return id.Name + id.Args }

// SimpleName returns the last dot-separated segment of Name. Generic arguments
// never contribute to it.
func (id TypeID) SimpleName() string { return names.Last(id.Name) }

// IsZero reports whether id is the zero TypeID.
func (id TypeID) IsZero() bool { return id.Name == "" && id.Args == "" }

// Generic reports whether id carries generic argument bindings.
func (id TypeID) Generic() bool { return id.Args != "" }

type idParser struct {
	in  string
	pos int
}

func (p *idParser) skipSpace() {
	for p.pos < len(p.in) && (p.in[p.pos] == ' ' || p.in[p.pos] == '\t') {
		p.pos++
	}
}

func (p *idParser) parse() (TypeID, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.in) {
		c := p.in[p.pos]
		if c == '[' || c == ']' || c == ',' {
			break
		}
		p.pos++
	}
	name := strings.TrimSpace(p.in[start:p.pos])
	if name == "" {
		return TypeID{}, fmt.Errorf("avroskema: empty type name in %q at %d", p.in, start)
	}
	p.skipSpace()
	if p.pos >= len(p.in) || p.in[p.pos] != '[' {
		return TypeID{Name: name}, nil
	}
	p.pos++ // '['
	var args []TypeID
	for {
		arg, err := p.parse()
		if err != nil {
			return TypeID{}, err
		}
		args = append(args, arg)
		p.skipSpace()
		if p.pos >= len(p.in) {
			return TypeID{}, fmt.Errorf("avroskema: unterminated type arguments in %q", p.in)
		}
		if p.in[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.in[p.pos] == ']' {
			p.pos++
			break
		}
		return TypeID{}, fmt.Errorf("avroskema: unexpected %q in %q at %d", p.in[p.pos], p.in, p.pos)
	}
	return NewTypeID(name, args...), nil
}

// Kind tags both descriptors and schema nodes.
type Kind int

const (
	KindPrimitive Kind = iota
	KindRecord
	KindEnum
	KindUnion
	KindFixed
	KindArray
	KindMap
	KindReference // nodes only; descriptors never carry it
)

var kindNames = [...]string{"primitive", "record", "enum", "union", "fixed", "array", "map", "reference"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps the lower-case kind name back to a Kind.
func ParseKind(s string) (Kind, bool) {
	for i, n := range kindNames {
		if n == s && Kind(i) != KindReference {
			return Kind(i), true
		}
	}
	return 0, false
}

// Nominal reports whether nodes of this kind carry a QualifiedName.
func (k Kind) Nominal() bool {
	return k == KindRecord || k == KindEnum || k == KindFixed
}

// PrimitiveType names one of the built-in primitive schema types.
type PrimitiveType string

const (
	Null    PrimitiveType = "null"
	Boolean PrimitiveType = "boolean"
	Int     PrimitiveType = "int"
	Long    PrimitiveType = "long"
	Float   PrimitiveType = "float"
	Double  PrimitiveType = "double"
	Bytes   PrimitiveType = "bytes"
	String  PrimitiveType = "string"
)

// Valid reports whether p is one of the built-in primitive types.
func (p PrimitiveType) Valid() bool {
	switch p {
	case Null, Boolean, Int, Long, Float, Double, Bytes, String:
		return true
	}
	return false
}

// PrimitiveID returns the built-in identity of a primitive type. Built-in
// identities are described by the engine itself and never reach a Provider.
func PrimitiveID(p PrimitiveType) TypeID { return TypeID{Name: string(p)} }

// builtinPrimitive reports whether id is a built-in primitive identity.
func builtinPrimitive(id TypeID) (PrimitiveType, bool) {
	if id.Args != "" {
		return "", false
	}
	p := PrimitiveType(id.Name)
	return p, p.Valid()
}

// LogicalType annotates a primitive or fixed type with a higher-level meaning
// ("timestamp-millis", "uuid", "decimal", ...). Precision and Scale apply to
// decimals only.
type LogicalType struct {
	Name      string
	Precision int
	Scale     int
}

// QualifiedName is the namespace-qualified name of a nominal schema node.
type QualifiedName struct {
	Namespace string
	Name      string
}

// FullName returns "namespace.name", or the bare name when the namespace is
// empty.
func (q QualifiedName) FullName() string { return names.Join(q.Namespace, q.Name) }

func (q QualifiedName) String() string { return q.FullName() }

// Compare orders qualified names by namespace, then local name.
func (q QualifiedName) Compare(o QualifiedName) int {
	if c := strings.Compare(q.Namespace, o.Namespace); c != 0 {
		return c
	}
	return strings.Compare(q.Name, o.Name)
}
