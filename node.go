package avroskema

// Node is a schema tree node.
type Node interface {
	Kind() Kind
}

// Named is implemented by the nominal nodes (Record, Enum, Fixed).
type Named interface {
	Node
	QualifiedName() QualifiedName
	TypeID() TypeID
}

// Primitive is a built-in type, optionally annotated with a logical type.
type Primitive struct {
	Type    PrimitiveType
	Logical *LogicalType
}

func (p *Primitive) Kind() Kind { return KindPrimitive }

// Record is a named, ordered list of fields. Field order defines wire order.
type Record struct {
	Name    QualifiedName
	Doc     string
	Aliases []string
	Fields  []Field
	id      TypeID
}

func (r *Record) Kind() Kind                   { return KindRecord }
func (r *Record) QualifiedName() QualifiedName { return r.Name }
func (r *Record) TypeID() TypeID               { return r.id }

// Field is one record field.
type Field struct {
	Name       string
	Type       Node
	Default    any
	HasDefault bool
	Doc        string
	Aliases    []string
}

// Enum is a named, ordered list of symbols.
type Enum struct {
	Name    QualifiedName
	Doc     string
	Aliases []string
	Symbols []string
	Default string
	id      TypeID
}

func (e *Enum) Kind() Kind                   { return KindEnum }
func (e *Enum) QualifiedName() QualifiedName { return e.Name }
func (e *Enum) TypeID() TypeID               { return e.id }

// Union is an ordered list of branches. Unions are structural: they carry no
// name and never contain another union directly.
type Union struct {
	Branches []Node
}

func (u *Union) Kind() Kind { return KindUnion }

// Fixed is a named blob of Size bytes.
type Fixed struct {
	Name    QualifiedName
	Doc     string
	Aliases []string
	Size    int
	Logical *LogicalType
	id      TypeID
}

func (f *Fixed) Kind() Kind                   { return KindFixed }
func (f *Fixed) QualifiedName() QualifiedName { return f.Name }
func (f *Fixed) TypeID() TypeID               { return f.id }

// Array is a structural collection of Items.
type Array struct {
	Items Node
}

func (a *Array) Kind() Kind { return KindArray }

// Map is a structural string-keyed collection of Values.
type Map struct {
	Values Node
}

func (m *Map) Kind() Kind { return KindMap }

// Ref points by name at a nominal node defined elsewhere in the same document.
// It holds the name and the TypeID key only, never the node itself.
type Ref struct {
	Name QualifiedName
	id   TypeID
}

func (r *Ref) Kind() Kind     { return KindReference }
func (r *Ref) TypeID() TypeID { return r.id }
