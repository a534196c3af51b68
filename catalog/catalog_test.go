package catalog_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/reoring/avroskema"
	"github.com/reoring/avroskema/catalog"
)

func load(t *testing.T, path string) (*catalog.Catalog, *avroskema.Assembler) {
	t.Helper()
	c := catalog.New()
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("load %s: %v", path, err)
	}
	reg := avroskema.NewRegistry()
	if err := c.Apply(reg); err != nil {
		t.Fatalf("apply: %v", err)
	}
	return c, avroskema.NewAssembler(c, avroskema.WithRegistry(reg))
}

func render(t *testing.T, a *avroskema.Assembler, root string) string {
	t.Helper()
	doc, err := a.DeriveDocument(avroskema.MustParseTypeID(root))
	if err != nil {
		t.Fatalf("derive %s: %v", root, err)
	}
	b, err := doc.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestLoadYAML_MultiDocument(t *testing.T) {
	c, a := load(t, "testdata/shop.yaml")
	if c.Len() != 9 {
		t.Fatalf("Len = %d, want 9", c.Len())
	}
	got := render(t, a, "com.acme.internal.Order")
	want := `{"type":"record","name":"Order","namespace":"com.acme.internal","doc":"A customer order.","fields":[` +
		`{"name":"item","type":{"type":"record","name":"Widget","namespace":"com.acme.v2","fields":[{"name":"sku","type":"string"},{"name":"qty","type":"int","default":1}]}},` +
		`{"name":"note","type":["null","string"],"default":null},` +
		`{"name":"placedAt","type":{"type":"long","logicalType":"timestamp-millis"}}]}`
	if got != want {
		t.Fatalf("unexpected document\n got: %s\nwant: %s", got, want)
	}
}

func TestLoadYAML_OverrideMappingAndTopLevel(t *testing.T) {
	_, a := load(t, "testdata/shop.yaml")
	got := render(t, a, "Envelope")
	want := `{"type":"record","name":"Envelope","fields":[` +
		`{"name":"status","type":{"type":"enum","name":"OrderStatus","namespace":"com.acme.states","symbols":["OPEN","CLOSED"],"default":"OPEN"}},` +
		`{"name":"digest","type":{"type":"fixed","name":"Digest","namespace":"com.acme.internal","size":32}},` +
		`{"name":"labels","type":{"type":"map","values":{"type":"array","items":"string"}}}]}`
	if got != want {
		t.Fatalf("unexpected document\n got: %s\nwant: %s", got, want)
	}
}

func TestLoadJSON(t *testing.T) {
	_, a := load(t, "testdata/shop.json")
	got := render(t, a, "com.acme.internal.Order")
	want := `{"type":"record","name":"Order","namespace":"com.acme.internal","fields":[` +
		`{"name":"item","type":{"type":"record","name":"Widget","namespace":"com.acme.v2","fields":[{"name":"sku","type":"string"}]}},` +
		`{"name":"note","type":["null","string"],"default":null}]}`
	if got != want {
		t.Fatalf("unexpected document\n got: %s\nwant: %s", got, want)
	}
}

func TestDescribe_ScopeAndTypeArgs(t *testing.T) {
	c := catalog.New()
	err := c.LoadYAML([]byte(`
types:
  - id: 'com.x.Box[int,com.x.Pair[string,long]]'
    kind: record
    fields: [{name: v, type: int}]
  - id: com.x.Loose
    kind: record
    scope: []
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	d, err := c.Describe(avroskema.MustParseTypeID("com.x.Box[int,com.x.Pair[string,long]]"))
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if !reflect.DeepEqual(d.Scope, []string{"com", "x"}) {
		t.Fatalf("scope = %v", d.Scope)
	}
	wantArgs := []avroskema.TypeID{
		avroskema.PrimitiveID(avroskema.Int),
		avroskema.MustParseTypeID("com.x.Pair[string,long]"),
	}
	if !reflect.DeepEqual(d.TypeArgs, wantArgs) {
		t.Fatalf("type args = %v", d.TypeArgs)
	}
	loose, _ := c.Describe(avroskema.MustParseTypeID("com.x.Loose"))
	if len(loose.Scope) != 0 {
		t.Fatalf("explicit empty scope must be kept, got %v", loose.Scope)
	}
	if _, err := c.Describe(avroskema.MustParseTypeID("com.x.Nope")); !errors.Is(err, avroskema.ErrNotDescribed) {
		t.Fatalf("expected ErrNotDescribed, got %v", err)
	}
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown type key":  "types: [{id: a.B, kind: record, colour: red}]",
		"unknown field key": "types: [{id: a.B, kind: record, fields: [{name: x, type: int, colour: red}]}]",
		"unknown kind":      "types: [{id: a.B, kind: struct}]",
		"missing items":     "types: [{id: a.B, kind: array}]",
		"bad type id":       "types: [{id: 'a.B[', kind: record}]",
		"duplicate id":      "types: [{id: a.B, kind: record}, {id: a.B, kind: record}]",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if err := catalog.New().LoadYAML([]byte(doc)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
	if err := catalog.New().LoadJSON([]byte(`{"types":[],"extra":1}`)); err == nil {
		t.Fatalf("expected unknown JSON key to be rejected")
	}
}

func TestLoad_DuplicateAcrossDocuments(t *testing.T) {
	c := catalog.New()
	if err := c.LoadYAML([]byte("types: [{id: a.B, kind: record}]")); err != nil {
		t.Fatalf("load: %v", err)
	}
	err := c.LoadYAML([]byte("types: [{id: a.B, kind: record}]"))
	if err == nil || !strings.Contains(err.Error(), "already declared") {
		t.Fatalf("expected duplicate declaration error, got %v", err)
	}
}

func TestApply_InvalidOverride(t *testing.T) {
	c := catalog.New()
	if err := c.LoadYAML([]byte("overrides: {a.B: 'com..bad'}")); err != nil {
		t.Fatalf("load: %v", err)
	}
	err := c.Apply(avroskema.NewRegistry())
	if avroskema.ErrorCode(err) != avroskema.CodeInvalidNamespace {
		t.Fatalf("expected invalid namespace, got %v", err)
	}
}

func TestIDs_Sorted(t *testing.T) {
	c := catalog.New()
	_ = c.LoadYAML([]byte("types: [{id: b.Y, kind: record}, {id: a.X, kind: record}]"))
	got := c.IDs()
	want := []avroskema.TypeID{avroskema.MustParseTypeID("a.X"), avroskema.MustParseTypeID("b.Y")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("IDs = %v", got)
	}
}
