package protoschema_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/reoring/avroskema"
	"github.com/reoring/avroskema/protoschema"
)

func render(t *testing.T, p avroskema.Provider, id avroskema.TypeID) string {
	t.Helper()
	doc, err := avroskema.NewAssembler(p).DeriveDocument(id)
	if err != nil {
		t.Fatalf("derive %s: %v", id, err)
	}
	b, err := doc.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestDescribe_RecursiveValue(t *testing.T) {
	p := protoschema.New(nil)
	id := protoschema.ID((&structpb.Value{}).ProtoReflect().Descriptor())
	got := render(t, p, id)
	want := `{"type":"record","name":"Value","namespace":"google.protobuf","fields":[{"name":"kind","type":["null",` +
		`{"type":"enum","name":"NullValue","namespace":"google.protobuf","symbols":["NULL_VALUE"],"default":"NULL_VALUE"},` +
		`"double","string","boolean",` +
		`{"type":"record","name":"Struct","namespace":"google.protobuf","fields":[{"name":"fields","type":{"type":"map","values":"google.protobuf.Value"}}]},` +
		`{"type":"record","name":"ListValue","namespace":"google.protobuf","fields":[{"name":"values","type":{"type":"array","items":"google.protobuf.Value"}}]}` +
		`],"default":null}]}`
	if got != want {
		t.Fatalf("unexpected document\n got: %s\nwant: %s", got, want)
	}
}

func shopFile() *descriptorpb.FileDescriptorProto {
	optional := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum()
	repeated := descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("acme/shop.proto"),
		Package: proto.String("acme.shop"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("Order"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{Name: proto.String("item"), Number: proto.Int32(1), Label: optional, Type: descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(), TypeName: proto.String(".acme.shop.Item")},
					{Name: proto.String("tags"), Number: proto.Int32(2), Label: repeated, Type: descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum()},
					{Name: proto.String("counts"), Number: proto.Int32(3), Label: repeated, Type: descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(), TypeName: proto.String(".acme.shop.Order.CountsEntry")},
					{Name: proto.String("note"), Number: proto.Int32(4), Label: optional, Type: descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(), OneofIndex: proto.Int32(0), Proto3Optional: proto.Bool(true)},
					{Name: proto.String("status"), Number: proto.Int32(5), Label: optional, Type: descriptorpb.FieldDescriptorProto_TYPE_ENUM.Enum(), TypeName: proto.String(".acme.shop.Order.Status")},
				},
				NestedType: []*descriptorpb.DescriptorProto{{
					Name: proto.String("CountsEntry"),
					Field: []*descriptorpb.FieldDescriptorProto{
						{Name: proto.String("key"), Number: proto.Int32(1), Label: optional, Type: descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum()},
						{Name: proto.String("value"), Number: proto.Int32(2), Label: optional, Type: descriptorpb.FieldDescriptorProto_TYPE_INT64.Enum()},
					},
					Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
				}},
				EnumType: []*descriptorpb.EnumDescriptorProto{{
					Name: proto.String("Status"),
					Value: []*descriptorpb.EnumValueDescriptorProto{
						{Name: proto.String("STATUS_UNSPECIFIED"), Number: proto.Int32(0)},
						{Name: proto.String("STATUS_OPEN"), Number: proto.Int32(1)},
					},
				}},
				OneofDecl: []*descriptorpb.OneofDescriptorProto{{Name: proto.String("_note")}},
			},
			{
				Name: proto.String("Item"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{Name: proto.String("sku"), Number: proto.Int32(1), Label: optional, Type: descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum()},
				},
			},
		},
	}
}

const shopOrder = `{"type":"record","name":"Order","namespace":"acme.shop","fields":[` +
	`{"name":"item","type":["null",{"type":"record","name":"Item","namespace":"acme.shop","fields":[{"name":"sku","type":"string"}]}],"default":null},` +
	`{"name":"tags","type":{"type":"array","items":"string"}},` +
	`{"name":"counts","type":{"type":"map","values":"long"}},` +
	`{"name":"note","type":["null","string"],"default":null},` +
	`{"name":"status","type":{"type":"enum","name":"Status","namespace":"acme.shop.Order","symbols":["STATUS_UNSPECIFIED","STATUS_OPEN"],"default":"STATUS_UNSPECIFIED"}}]}`

func TestDescribe_FileDescriptorSet(t *testing.T) {
	files, err := protodesc.NewFiles(&descriptorpb.FileDescriptorSet{File: []*descriptorpb.FileDescriptorProto{shopFile()}})
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	p := protoschema.New(files)
	if got := render(t, p, avroskema.TypeID{Name: "acme.shop.Order"}); got != shopOrder {
		t.Fatalf("unexpected document\n got: %s\nwant: %s", got, shopOrder)
	}
	d, err := p.Describe(avroskema.TypeID{Name: "acme.shop.Order.Status"})
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if !reflect.DeepEqual(d.Scope, []string{"acme", "shop", "Order"}) {
		t.Fatalf("scope = %v", d.Scope)
	}
	if _, err := p.Describe(avroskema.TypeID{Name: "acme.shop.Missing"}); !errors.Is(err, avroskema.ErrNotDescribed) {
		t.Fatalf("expected ErrNotDescribed, got %v", err)
	}
	if _, err := p.Describe(avroskema.TypeID{Name: "acme.shop.Order.CountsEntry"}); err == nil {
		t.Fatalf("map entries are not schema types")
	}
}

func TestLoadDescriptorSet(t *testing.T) {
	b, err := proto.Marshal(&descriptorpb.FileDescriptorSet{File: []*descriptorpb.FileDescriptorProto{shopFile()}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "shop.binpb")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := protoschema.LoadDescriptorSet(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := render(t, p, avroskema.TypeID{Name: "acme.shop.Order"}); got != shopOrder {
		t.Fatalf("unexpected document\n got: %s", got)
	}
}

func TestDescribe_OneofWithSameTypedMembers(t *testing.T) {
	optional := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum()
	str := descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum()
	files, err := protodesc.NewFiles(&descriptorpb.FileDescriptorSet{File: []*descriptorpb.FileDescriptorProto{{
		Name:    proto.String("acme/contact.proto"),
		Package: proto.String("acme"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{{
			Name: proto.String("Contact"),
			Field: []*descriptorpb.FieldDescriptorProto{
				{Name: proto.String("email"), Number: proto.Int32(1), Label: optional, Type: str, OneofIndex: proto.Int32(0)},
				{Name: proto.String("phone"), Number: proto.Int32(2), Label: optional, Type: str, OneofIndex: proto.Int32(0)},
			},
			OneofDecl: []*descriptorpb.OneofDescriptorProto{{Name: proto.String("via")}},
		}},
	}}})
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	_, err = avroskema.NewAssembler(protoschema.New(files)).Derive(avroskema.TypeID{Name: "acme.Contact"})
	if avroskema.ErrorCode(err) != avroskema.CodeDuplicateUnionBranch {
		t.Fatalf("expected duplicate union branch, got %v", err)
	}
}

func TestDescribe_MalformedSyntheticID(t *testing.T) {
	p := protoschema.New(nil)
	for _, id := range []avroskema.TypeID{
		{Name: "array", Args: "x"},
		{Name: "map", Args: "["},
		{Name: "optional", Args: "[string"},
		{Name: "oneof", Args: "google.protobuf.Value.kind]"},
	} {
		if _, err := p.Describe(id); !errors.Is(err, avroskema.ErrNotDescribed) {
			t.Fatalf("%q: expected ErrNotDescribed, got %v", id, err)
		}
	}
}
