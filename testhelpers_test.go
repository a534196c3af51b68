package avroskema_test

import (
	"strings"
	"testing"

	"github.com/reoring/avroskema"
)

func tid(s string) avroskema.TypeID { return avroskema.MustParseTypeID(s) }

func scope(ns string) []string {
	if ns == "" {
		return nil
	}
	return strings.Split(ns, ".")
}

func fld(name, typ string) avroskema.FieldDescriptor {
	return avroskema.FieldDescriptor{Name: name, Type: tid(typ)}
}

func record(ns string, fields ...avroskema.FieldDescriptor) avroskema.Descriptor {
	return avroskema.Descriptor{Kind: avroskema.KindRecord, Scope: scope(ns), Fields: fields}
}

func enum(ns string, symbols ...string) avroskema.Descriptor {
	return avroskema.Descriptor{Kind: avroskema.KindEnum, Scope: scope(ns), Symbols: symbols}
}

func union(branches ...string) avroskema.Descriptor {
	d := avroskema.Descriptor{Kind: avroskema.KindUnion}
	for _, b := range branches {
		d.Branches = append(d.Branches, tid(b))
	}
	return d
}

func array(elem string) avroskema.Descriptor {
	return avroskema.Descriptor{Kind: avroskema.KindArray, Elem: tid(elem)}
}

func mapOf(elem string) avroskema.Descriptor {
	return avroskema.Descriptor{Kind: avroskema.KindMap, Elem: tid(elem)}
}

func fixed(ns string, size int) avroskema.Descriptor {
	return avroskema.Descriptor{Kind: avroskema.KindFixed, Scope: scope(ns), Size: size}
}

// mustJSON derives root and renders it compactly.
func mustJSON(t *testing.T, a *avroskema.Assembler, root string) string {
	t.Helper()
	doc, err := a.DeriveDocument(tid(root))
	if err != nil {
		t.Fatalf("derive %s: %v", root, err)
	}
	b, err := doc.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal %s: %v", root, err)
	}
	return string(b)
}
