package avroskema

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/reoring/avroskema/internal/names"
)

// Override pins the namespace (and optionally the local name) of one TypeID.
type Override struct {
	Namespace string
	Name      string // optional; the TypeID's simple name is used when empty
}

func (o Override) String() string {
	if o.Name == "" {
		return o.Namespace
	}
	return o.Namespace + " (name " + o.Name + ")"
}

// Entry is a single (TypeID, Override) association in a Registry snapshot.
type Entry struct {
	ID       TypeID
	Override Override
}

// Registry holds namespace overrides. It is populated during setup and frozen
// before derivation; after Freeze, lookups read an immutable snapshot without
// locking.
type Registry struct {
	mu        sync.RWMutex
	overrides map[TypeID]Override
	frozen    atomic.Pointer[map[TypeID]Override]
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{overrides: make(map[TypeID]Override)}
}

// Register overrides the namespace of id.
func (r *Registry) Register(id TypeID, namespace string) error {
	return r.RegisterOverride(id, Override{Namespace: namespace})
}

// RegisterOverride records o for id. Registering an identical override twice
// is a no-op, also after Freeze; a different one fails with
// ConflictingOverrideError, or ErrRegistryFrozen once frozen.
func (r *Registry) RegisterOverride(id TypeID, o Override) error {
	if seg, ok := names.InvalidSegment(o.Namespace); !ok {
		return &InvalidNamespaceError{ID: id, Namespace: o.Namespace, Segment: seg}
	}
	if o.Name != "" && !names.IsIdentifier(o.Name) {
		return &InvalidNameError{ID: id, Name: o.Name}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.overrides[id]
	if ok && prev == o {
		return nil
	}
	if r.frozen.Load() != nil {
		return ErrRegistryFrozen
	}
	if ok {
		return &ConflictingOverrideError{ID: id, Existing: prev, Requested: o}
	}
	r.overrides[id] = o
	return nil
}

// Lookup returns the override registered for id.
func (r *Registry) Lookup(id TypeID) (Override, bool) {
	if r == nil {
		return Override{}, false
	}
	if m := r.frozen.Load(); m != nil {
		o, ok := (*m)[id]
		return o, ok
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.overrides[id]
	return o, ok
}

// Namespace returns only the namespace registered for id.
func (r *Registry) Namespace(id TypeID) (string, bool) {
	o, ok := r.Lookup(id)
	return o.Namespace, ok
}

// Freeze publishes the current overrides as an immutable snapshot. Further
// registrations fail with ErrRegistryFrozen. Freeze is idempotent.
func (r *Registry) Freeze() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() != nil {
		return
	}
	snap := make(map[TypeID]Override, len(r.overrides))
	for k, v := range r.overrides {
		snap[k] = v
	}
	r.frozen.Store(&snap)
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool { return r != nil && r.frozen.Load() != nil }

// Len returns the number of registered overrides.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.overrides)
}

// Entries returns a snapshot sorted by TypeID for diagnostics and docs.
func (r *Registry) Entries() []Entry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	out := make([]Entry, 0, len(r.overrides))
	for id, o := range r.overrides {
		out = append(out, Entry{ID: id, Override: o})
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b Entry) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out
}
