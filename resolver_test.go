package avroskema_test

import (
	"testing"

	"github.com/reoring/avroskema"
)

func TestResolve_DefaultNamespace(t *testing.T) {
	r := avroskema.NewResolver(nil)
	got := r.Resolve(tid("com.acme.internal.Widget"), record("com.acme.internal"))
	want := avroskema.QualifiedName{Namespace: "com.acme.internal", Name: "Widget"}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestResolve_TopLevelHasEmptyNamespace(t *testing.T) {
	r := avroskema.NewResolver(avroskema.NewRegistry())
	got := r.Resolve(tid("Widget"), record(""))
	if got.Namespace != "" || got.Name != "Widget" {
		t.Fatalf("got %+v", got)
	}
}

func TestResolve_OverridePrecedence(t *testing.T) {
	reg := avroskema.NewRegistry()
	id := tid("com.acme.internal.Widget")
	if err := reg.Register(id, "com.acme.v2"); err != nil {
		t.Fatalf("register: %v", err)
	}
	r := avroskema.NewResolver(reg)
	// the enclosing scope is ignored once an override exists
	got := r.Resolve(id, record("some.other.scope"))
	if got != (avroskema.QualifiedName{Namespace: "com.acme.v2", Name: "Widget"}) {
		t.Fatalf("got %+v", got)
	}
}

func TestResolve_OverrideName(t *testing.T) {
	reg := avroskema.NewRegistry()
	id := tid("com.acme.Box[int]")
	_ = reg.RegisterOverride(id, avroskema.Override{Namespace: "com.acme", Name: "IntBox"})
	got := avroskema.NewResolver(reg).Resolve(id, record("com.acme"))
	if got != (avroskema.QualifiedName{Namespace: "com.acme", Name: "IntBox"}) {
		t.Fatalf("got %+v", got)
	}
}

func TestResolve_GenericArgumentsNotFolded(t *testing.T) {
	r := avroskema.NewResolver(nil)
	a := r.Resolve(tid("com.acme.Box[int]"), record("com.acme"))
	b := r.Resolve(tid("com.acme.Box[string]"), record("com.acme"))
	if a != b || a.Name != "Box" {
		t.Fatalf("instantiations must share the base name: %+v vs %+v", a, b)
	}
}
