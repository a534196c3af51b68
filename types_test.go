package avroskema_test

import (
	"testing"

	"github.com/reoring/avroskema"
)

func TestParseTypeID_RoundTrip(t *testing.T) {
	cases := []string{
		"com.acme.Order",
		"Order",
		"com.acme.Box[int]",
		"com.acme.Pair[com.acme.Box[string],long]",
	}
	for _, in := range cases {
		id, err := avroskema.ParseTypeID(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got := id.String(); got != in {
			t.Fatalf("round trip %q -> %q", in, got)
		}
	}
}

func TestParseTypeID_Canonicalizes(t *testing.T) {
	id, err := avroskema.ParseTypeID(" com.acme.Pair[ int , com.acme.Box[string] ] ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := avroskema.NewTypeID("com.acme.Pair", avroskema.PrimitiveID(avroskema.Int), avroskema.NewTypeID("com.acme.Box", avroskema.PrimitiveID(avroskema.String)))
	if id != want {
		t.Fatalf("got %#v want %#v", id, want)
	}
	if id.SimpleName() != "Pair" || !id.Generic() {
		t.Fatalf("unexpected simple name %q / generic %v", id.SimpleName(), id.Generic())
	}
}

func TestParseTypeID_Errors(t *testing.T) {
	for _, in := range []string{"", "Box[", "Box[int", "Box[]", "Box[int]x", "Box[int,]"} {
		if _, err := avroskema.ParseTypeID(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestKind_StringAndParse(t *testing.T) {
	for _, k := range []avroskema.Kind{avroskema.KindPrimitive, avroskema.KindRecord, avroskema.KindEnum, avroskema.KindUnion, avroskema.KindFixed, avroskema.KindArray, avroskema.KindMap} {
		got, ok := avroskema.ParseKind(k.String())
		if !ok || got != k {
			t.Fatalf("ParseKind(%q) = %v,%v", k.String(), got, ok)
		}
	}
	if _, ok := avroskema.ParseKind("reference"); ok {
		t.Fatalf("reference is not a descriptor kind")
	}
	if !avroskema.KindRecord.Nominal() || avroskema.KindUnion.Nominal() || avroskema.KindArray.Nominal() {
		t.Fatalf("unexpected Nominal()")
	}
}

func TestQualifiedName_FullName(t *testing.T) {
	if got := (avroskema.QualifiedName{Namespace: "com.acme", Name: "Order"}).FullName(); got != "com.acme.Order" {
		t.Fatalf("FullName = %q", got)
	}
	if got := (avroskema.QualifiedName{Name: "Order"}).FullName(); got != "Order" {
		t.Fatalf("FullName = %q", got)
	}
}
