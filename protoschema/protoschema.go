// Package protoschema describes protobuf messages and enums through
// protoreflect.
//
// Messages become records and enums become enums whose default is the first
// value. The scope of a declaration is its proto package followed by the
// enclosing messages, so google.protobuf.Value lands in namespace
// "google.protobuf" and acme.Order.Status in "acme.Order".
//
// Field mapping:
//   - repeated fields become arrays, map fields (string keys only) maps
//   - singular message fields and proto3 optional scalars become
//     [null, T] unions with a null default
//   - a oneof becomes one field named after it, a [null, members...] union
//     placed at the position of its first member. Members sharing a type
//     (two strings, say) cannot be told apart in such a union, so deriving
//     the message fails with DuplicateUnionBranchError.
//
// Synthetic identities: array[T], map[T], optional[T] and oneof[<full name>].
package protoschema

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/reoring/avroskema"
)

// Resolver finds descriptors by full name; *protoregistry.Files implements it.
type Resolver interface {
	FindDescriptorByName(protoreflect.FullName) (protoreflect.Descriptor, error)
}

// Provider describes the declarations known to a Resolver.
type Provider struct {
	files Resolver
}

// New returns a Provider over files, or over protoregistry.GlobalFiles when
// files is nil.
func New(files Resolver) *Provider {
	if files == nil {
		files = protoregistry.GlobalFiles
	}
	return &Provider{files: files}
}

// LoadDescriptorSet reads a serialized FileDescriptorSet (protoc
// --descriptor_set_out, with --include_imports) and returns a Provider over it.
func LoadDescriptorSet(path string) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var set descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("protoschema: %s: %w", path, err)
	}
	files, err := protodesc.NewFiles(&set)
	if err != nil {
		return nil, fmt.Errorf("protoschema: %s: %w", path, err)
	}
	return New(files), nil
}

// ID returns the identity of a message or enum declaration.
func ID(d protoreflect.Descriptor) avroskema.TypeID {
	return avroskema.TypeID{Name: string(d.FullName())}
}

const (
	arrayName    = "array"
	mapName      = "map"
	optionalName = "optional"
	oneofName    = "oneof"
)

// Describe implements avroskema.Provider.
func (p *Provider) Describe(id avroskema.TypeID) (avroskema.Descriptor, error) {
	if id.Generic() {
		return p.synthetic(id)
	}
	d, err := p.files.FindDescriptorByName(protoreflect.FullName(id.Name))
	if err != nil {
		if errors.Is(err, protoregistry.NotFound) {
			return avroskema.Descriptor{}, avroskema.ErrNotDescribed
		}
		return avroskema.Descriptor{}, err
	}
	switch d := d.(type) {
	case protoreflect.MessageDescriptor:
		if d.IsMapEntry() {
			return avroskema.Descriptor{}, fmt.Errorf("protoschema: %s is a map entry", d.FullName())
		}
		return p.message(d)
	case protoreflect.EnumDescriptor:
		return enum(d), nil
	}
	return avroskema.Descriptor{}, avroskema.ErrNotDescribed
}

func (p *Provider) synthetic(id avroskema.TypeID) (avroskema.Descriptor, error) {
	if len(id.Args) < 2 || id.Args[0] != '[' || id.Args[len(id.Args)-1] != ']' {
		return avroskema.Descriptor{}, avroskema.ErrNotDescribed
	}
	inner := id.Args[1 : len(id.Args)-1]
	switch id.Name {
	case oneofName:
		d, err := p.files.FindDescriptorByName(protoreflect.FullName(inner))
		if err != nil {
			return avroskema.Descriptor{}, avroskema.ErrNotDescribed
		}
		od, ok := d.(protoreflect.OneofDescriptor)
		if !ok {
			return avroskema.Descriptor{}, avroskema.ErrNotDescribed
		}
		return oneof(od)
	case arrayName, mapName, optionalName:
		elem, err := avroskema.ParseTypeID(inner)
		if err != nil {
			return avroskema.Descriptor{}, err
		}
		switch id.Name {
		case arrayName:
			return avroskema.Descriptor{Kind: avroskema.KindArray, Elem: elem}, nil
		case mapName:
			return avroskema.Descriptor{Kind: avroskema.KindMap, Elem: elem}, nil
		}
		return avroskema.Descriptor{
			Kind:     avroskema.KindUnion,
			Branches: []avroskema.TypeID{avroskema.PrimitiveID(avroskema.Null), elem},
		}, nil
	}
	return avroskema.Descriptor{}, avroskema.ErrNotDescribed
}

// Scope returns the package segments followed by the enclosing message names.
func Scope(d protoreflect.Descriptor) []string {
	var outer []string
	for parent := d.Parent(); parent != nil; parent = parent.Parent() {
		if m, ok := parent.(protoreflect.MessageDescriptor); ok {
			outer = append([]string{string(m.Name())}, outer...)
		}
	}
	var scope []string
	if pkg := d.ParentFile().Package(); pkg != "" {
		scope = strings.Split(string(pkg), ".")
	}
	return append(scope, outer...)
}

func (p *Provider) message(md protoreflect.MessageDescriptor) (avroskema.Descriptor, error) {
	d := avroskema.Descriptor{Kind: avroskema.KindRecord, Scope: Scope(md)}
	fields := md.Fields()
	emitted := make(map[protoreflect.FullName]bool)
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		if od := fd.ContainingOneof(); od != nil && !od.IsSynthetic() {
			if emitted[od.FullName()] {
				continue
			}
			emitted[od.FullName()] = true
			d.Fields = append(d.Fields, avroskema.FieldDescriptor{
				Name:       string(od.Name()),
				Type:       avroskema.NewTypeID(oneofName, avroskema.TypeID{Name: string(od.FullName())}),
				HasDefault: true,
			})
			continue
		}
		t, err := fieldType(fd)
		if err != nil {
			return avroskema.Descriptor{}, err
		}
		f := avroskema.FieldDescriptor{Name: string(fd.Name()), Type: t}
		if t.Name == optionalName {
			f.HasDefault = true
		}
		d.Fields = append(d.Fields, f)
	}
	return d, nil
}

func oneof(od protoreflect.OneofDescriptor) (avroskema.Descriptor, error) {
	d := avroskema.Descriptor{
		Kind:     avroskema.KindUnion,
		Branches: []avroskema.TypeID{avroskema.PrimitiveID(avroskema.Null)},
	}
	fields := od.Fields()
	for i := 0; i < fields.Len(); i++ {
		t, err := singular(fields.Get(i))
		if err != nil {
			return avroskema.Descriptor{}, err
		}
		d.Branches = append(d.Branches, t)
	}
	return d, nil
}

func enum(ed protoreflect.EnumDescriptor) avroskema.Descriptor {
	d := avroskema.Descriptor{Kind: avroskema.KindEnum, Scope: Scope(ed)}
	values := ed.Values()
	for i := 0; i < values.Len(); i++ {
		d.Symbols = append(d.Symbols, string(values.Get(i).Name()))
	}
	if len(d.Symbols) > 0 {
		d.DefaultSymbol = d.Symbols[0]
	}
	return d
}

func fieldType(fd protoreflect.FieldDescriptor) (avroskema.TypeID, error) {
	switch {
	case fd.IsMap():
		if fd.MapKey().Kind() != protoreflect.StringKind {
			return avroskema.TypeID{}, fmt.Errorf("protoschema: %s: map keys must be strings", fd.FullName())
		}
		v, err := singular(fd.MapValue())
		if err != nil {
			return avroskema.TypeID{}, err
		}
		return avroskema.NewTypeID(mapName, v), nil
	case fd.IsList():
		v, err := singular(fd)
		if err != nil {
			return avroskema.TypeID{}, err
		}
		return avroskema.NewTypeID(arrayName, v), nil
	}
	t, err := singular(fd)
	if err != nil {
		return avroskema.TypeID{}, err
	}
	if fd.Message() != nil || (fd.ContainingOneof() != nil && fd.ContainingOneof().IsSynthetic()) {
		return avroskema.NewTypeID(optionalName, t), nil
	}
	return t, nil
}

// singular maps the element type of a field, ignoring its cardinality.
func singular(fd protoreflect.FieldDescriptor) (avroskema.TypeID, error) {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return avroskema.PrimitiveID(avroskema.Boolean), nil
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return avroskema.PrimitiveID(avroskema.Int), nil
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return avroskema.PrimitiveID(avroskema.Long), nil
	case protoreflect.FloatKind:
		return avroskema.PrimitiveID(avroskema.Float), nil
	case protoreflect.DoubleKind:
		return avroskema.PrimitiveID(avroskema.Double), nil
	case protoreflect.StringKind:
		return avroskema.PrimitiveID(avroskema.String), nil
	case protoreflect.BytesKind:
		return avroskema.PrimitiveID(avroskema.Bytes), nil
	case protoreflect.EnumKind:
		return ID(fd.Enum()), nil
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return ID(fd.Message()), nil
	}
	return avroskema.TypeID{}, fmt.Errorf("protoschema: %s: unsupported kind %s", fd.FullName(), fd.Kind())
}
