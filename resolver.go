package avroskema

import "strings"

// Resolver computes qualified names. It never fails: collisions are only
// visible to the Assembler, which sees every name of a pass.
type Resolver struct {
	overrides *Registry
}

// NewResolver returns a Resolver consulting overrides first. A nil registry
// means convention-only naming.
func NewResolver(overrides *Registry) *Resolver {
	return &Resolver{overrides: overrides}
}

// Resolve returns the QualifiedName of id.
//
// An override supplies the namespace (and the local name when set). Otherwise
// the namespace is the descriptor's enclosing scope joined with '.', empty for
// top-level types. The local name is always the base simple name: generic
// arguments are never folded in, so two instantiations of one generic type
// share a name unless each gets its own override.
func (r *Resolver) Resolve(id TypeID, d Descriptor) QualifiedName {
	local := id.SimpleName()
	if r != nil {
		if o, ok := r.overrides.Lookup(id); ok {
			if o.Name != "" {
				local = o.Name
			}
			return QualifiedName{Namespace: o.Namespace, Name: local}
		}
	}
	return QualifiedName{Namespace: strings.Join(d.Scope, "."), Name: local}
}
