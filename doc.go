// Package avroskema derives namespace-qualified Avro-style schema documents
// from abstract type descriptors.
//
// - A Provider describes types (records, enums, unions, fixed, arrays, maps,
//   primitives) by TypeID; host reflection lives outside this package.
// - A Registry carries namespace overrides registered during setup.
// - A Resolver names every nominal type: override first, enclosing scope
//   otherwise.
// - A Cache guarantees one node per TypeID and breaks cycles with by-name Refs.
// - An Assembler walks the type graph and returns a Document.
//
// Design policy:
// - Keep only public APIs in the root package; put helpers under internal/.
// - Providers live in their own packages (catalog, reflectschema,
//   protoschema, memo) and the CLI under cmd/avroskema.
// - Every failure aborts the pass; no partial document is returned.
//
// Typical usage:
//
//	reg := avroskema.NewRegistry()
//	_ = reg.Register(widgetID, "com.acme.v2")
//	a := avroskema.NewAssembler(provider, avroskema.WithRegistry(reg))
//	doc, err := a.DeriveDocument(orderID)
//	out, err := doc.MarshalIndent("", "  ")
package avroskema
