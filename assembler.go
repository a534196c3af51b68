package avroskema

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/reoring/avroskema/internal/names"
)

// Assembler derives schema documents from root TypeIDs.
//
// Each call to Derive, DeriveDocument or DeriveAll runs one pass per root.
// Without WithCache every call gets a fresh cache (DeriveAll shares one across
// its roots); with WithCache all calls share the given cache.
type Assembler struct {
	provider    Provider
	registry    *Registry
	resolver    *Resolver
	cache       *Cache
	concurrency int
	logf        func(format string, args ...any)
	freeze      sync.Once
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithRegistry sets the override registry. The registry is frozen on the first
// derivation.
func WithRegistry(r *Registry) Option { return func(a *Assembler) { a.registry = r } }

// WithCache shares c across every derivation of the Assembler.
func WithCache(c *Cache) Option { return func(a *Assembler) { a.cache = c } }

// WithConcurrency bounds the number of roots DeriveAll derives at once.
// n <= 0 means unbounded.
func WithConcurrency(n int) Option { return func(a *Assembler) { a.concurrency = n } }

// WithLogf receives derivation traces (cache reuse, cycle references, waits on
// concurrent passes, retries).
func WithLogf(logf func(format string, args ...any)) Option {
	return func(a *Assembler) {
		if logf != nil {
			a.logf = logf
		}
	}
}

// NewAssembler returns an Assembler reading descriptors from p.
func NewAssembler(p Provider, opts ...Option) *Assembler {
	a := &Assembler{provider: p, logf: func(string, ...any) {}}
	for _, o := range opts {
		o(a)
	}
	a.resolver = NewResolver(a.registry)
	return a
}

// Resolver returns the resolver used for naming.
func (a *Assembler) Resolver() *Resolver { return a.resolver }

// Derive returns the schema tree of root.
func (a *Assembler) Derive(root TypeID) (Node, error) {
	doc, err := a.DeriveDocument(root)
	if err != nil {
		return nil, err
	}
	return doc.Root, nil
}

// DeriveDocument returns the schema document of root: the tree plus every
// named definition it references.
func (a *Assembler) DeriveDocument(root TypeID) (*Document, error) {
	a.freeze.Do(a.registry.Freeze)
	c := a.cache
	if c == nil {
		c = NewCache()
	}
	return a.derive(root, c)
}

// DeriveAll derives every root concurrently against one cache. Documents are
// returned in the order of roots. The first failure is returned.
func (a *Assembler) DeriveAll(roots ...TypeID) ([]*Document, error) {
	a.freeze.Do(a.registry.Freeze)
	c := a.cache
	if c == nil {
		c = NewCache()
	}
	docs := make([]*Document, len(roots))
	var g errgroup.Group
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}
	for i, root := range roots {
		i, root := i, root
		g.Go(func() error {
			doc, err := a.derive(root, c)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (a *Assembler) derive(root TypeID, c *Cache) (*Document, error) {
	for attempt := 1; ; attempt++ {
		p := &pass{
			a:     a,
			cache: c,
			root:  root,
			seen:  make(map[QualifiedName]TypeID),
			descs: make(map[TypeID]Descriptor),
		}
		doc, err := p.run()
		c.release(p)
		if errors.Is(err, errYield) {
			a.logf("avroskema: derive %s yields to a concurrent derivation (attempt %d)", root, attempt)
			continue
		}
		return doc, err
	}
}

// pass is one depth-first derivation of a root.
type pass struct {
	a        *Assembler
	cache    *Cache
	root     TypeID
	seen     map[QualifiedName]TypeID
	descs    map[TypeID]Descriptor
	stack    []TypeID
	owned    []TypeID
	failPath []TypeID
}

func (p *pass) logf(format string, args ...any) { p.a.logf(format, args...) }

func (p *pass) run() (*Document, error) {
	root, err := p.resolve(p.root)
	if err == nil {
		var doc *Document
		if doc, err = p.close(root); err == nil {
			return doc, nil
		}
	}
	if errors.Is(err, errYield) {
		return nil, errYield
	}
	return nil, &DeriveError{Root: p.root, Path: p.failPath, Err: err}
}

// fail remembers where the first error surfaced.
func (p *pass) fail(err error) error {
	if p.failPath == nil && !errors.Is(err, errYield) {
		p.failPath = slices.Clone(p.stack)
	}
	return err
}

// cyclePath returns the stack suffix from the earlier occurrence of id up to
// the current one.
func (p *pass) cyclePath(id TypeID) []TypeID {
	top := len(p.stack) - 1
	for i := top - 1; i >= 0; i-- {
		if p.stack[i] == id {
			return slices.Clone(p.stack[i:])
		}
	}
	return []TypeID{id}
}

func (p *pass) resolve(id TypeID) (Node, error) {
	if t, ok := builtinPrimitive(id); ok {
		return &Primitive{Type: t}, nil
	}
	if n, ok := p.cache.Lookup(id); ok {
		return n, nil
	}
	p.stack = append(p.stack, id)
	defer func() { p.stack = p.stack[:len(p.stack)-1] }()

	d, err := p.describe(id)
	if err != nil {
		return nil, p.fail(err)
	}
	var n Node
	switch d.Kind {
	case KindPrimitive:
		n, err = p.primitive(id, d)
	case KindUnion:
		n, err = p.union(id, d)
	default:
		n, err = p.cache.getOrBuild(p, id, func(s *slot) (Node, error) { return p.build(s, id, d) })
	}
	if err != nil {
		return nil, p.fail(err)
	}
	return n, nil
}

func (p *pass) describe(id TypeID) (Descriptor, error) {
	if d, ok := p.descs[id]; ok {
		return d, nil
	}
	if p.a.provider == nil {
		return Descriptor{}, &UnknownTypeError{ID: id, Err: ErrNotDescribed}
	}
	d, err := p.a.provider.Describe(id)
	if err != nil {
		return Descriptor{}, &UnknownTypeError{ID: id, Err: err}
	}
	if d.Kind < KindPrimitive || d.Kind > KindMap {
		return Descriptor{}, &InvalidDescriptorError{ID: id, Reason: "unsupported kind " + d.Kind.String()}
	}
	p.descs[id] = d
	return d, nil
}

func (p *pass) build(s *slot, id TypeID, d Descriptor) (Node, error) {
	switch d.Kind {
	case KindRecord, KindEnum, KindFixed:
		qn, err := p.name(id, d)
		if err != nil {
			return nil, err
		}
		s.setName(qn)
		switch d.Kind {
		case KindRecord:
			return p.record(id, qn, d)
		case KindEnum:
			return p.enum(id, qn, d)
		default:
			return p.fixed(id, qn, d)
		}
	case KindArray:
		items, err := p.elem(id, d)
		if err != nil {
			return nil, err
		}
		return &Array{Items: items}, nil
	case KindMap:
		values, err := p.elem(id, d)
		if err != nil {
			return nil, err
		}
		return &Map{Values: values}, nil
	}
	return nil, &InvalidDescriptorError{ID: id, Reason: "unsupported kind " + d.Kind.String()}
}

// name resolves and claims the qualified name of a nominal type.
func (p *pass) name(id TypeID, d Descriptor) (QualifiedName, error) {
	qn := p.a.resolver.Resolve(id, d)
	if !names.IsIdentifier(qn.Name) {
		return QualifiedName{}, &InvalidNameError{ID: id, Name: qn.Name}
	}
	if qn.Namespace != "" && !names.IsNamespace(qn.Namespace) {
		return QualifiedName{}, &InvalidNameError{ID: id, Name: qn.FullName()}
	}
	if prev, ok := p.seen[qn]; ok && prev != id {
		return QualifiedName{}, &NameCollisionError{Name: qn, First: prev, Second: id}
	}
	p.seen[qn] = id
	return qn, nil
}

func (p *pass) primitive(id TypeID, d Descriptor) (Node, error) {
	if !d.Primitive.Valid() {
		return nil, &InvalidDescriptorError{ID: id, Reason: fmt.Sprintf("unknown primitive %q", d.Primitive)}
	}
	return &Primitive{Type: d.Primitive, Logical: cloneLogical(d.Logical)}, nil
}

func (p *pass) record(id TypeID, qn QualifiedName, d Descriptor) (Node, error) {
	rec := &Record{
		Name:    qn,
		Doc:     d.Doc,
		Aliases: slices.Clone(d.Aliases),
		Fields:  make([]Field, 0, len(d.Fields)),
		id:      id,
	}
	declared := make(map[string]struct{}, len(d.Fields))
	for _, f := range d.Fields {
		if !names.IsIdentifier(f.Name) {
			return nil, &InvalidNameError{ID: id, Name: f.Name}
		}
		if _, dup := declared[f.Name]; dup {
			return nil, &DuplicateFieldError{ID: id, Field: f.Name}
		}
		declared[f.Name] = struct{}{}
		if f.Type.IsZero() {
			return nil, &InvalidDescriptorError{ID: id, Reason: fmt.Sprintf("field %q has no type", f.Name)}
		}
		t, err := p.resolve(f.Type)
		if err != nil {
			return nil, err
		}
		rec.Fields = append(rec.Fields, Field{
			Name:       f.Name,
			Type:       t,
			Default:    f.Default,
			HasDefault: f.HasDefault,
			Doc:        f.Doc,
			Aliases:    slices.Clone(f.Aliases),
		})
	}
	return rec, nil
}

func (p *pass) enum(id TypeID, qn QualifiedName, d Descriptor) (Node, error) {
	if len(d.Symbols) == 0 {
		return nil, &InvalidEnumError{ID: id, Reason: "no symbols"}
	}
	declared := make(map[string]struct{}, len(d.Symbols))
	for _, s := range d.Symbols {
		if !names.IsIdentifier(s) {
			return nil, &InvalidEnumError{ID: id, Reason: fmt.Sprintf("symbol %q is not an identifier", s)}
		}
		if _, dup := declared[s]; dup {
			return nil, &InvalidEnumError{ID: id, Reason: fmt.Sprintf("symbol %q declared more than once", s)}
		}
		declared[s] = struct{}{}
	}
	if d.DefaultSymbol != "" {
		if _, ok := declared[d.DefaultSymbol]; !ok {
			return nil, &InvalidEnumError{ID: id, Reason: fmt.Sprintf("default %q is not a symbol", d.DefaultSymbol)}
		}
	}
	return &Enum{
		Name:    qn,
		Doc:     d.Doc,
		Aliases: slices.Clone(d.Aliases),
		Symbols: slices.Clone(d.Symbols),
		Default: d.DefaultSymbol,
		id:      id,
	}, nil
}

func (p *pass) fixed(id TypeID, qn QualifiedName, d Descriptor) (Node, error) {
	if d.Size <= 0 {
		return nil, &InvalidFixedSizeError{ID: id, Size: d.Size}
	}
	return &Fixed{
		Name:    qn,
		Doc:     d.Doc,
		Aliases: slices.Clone(d.Aliases),
		Size:    d.Size,
		Logical: cloneLogical(d.Logical),
		id:      id,
	}, nil
}

func (p *pass) elem(id TypeID, d Descriptor) (Node, error) {
	if d.Elem.IsZero() {
		return nil, &InvalidDescriptorError{ID: id, Reason: d.Kind.String() + " has no element type"}
	}
	return p.resolve(d.Elem)
}

// union is never cached: it carries no name, and re-entering it through one of
// its records terminates because the record is already in progress.
func (p *pass) union(id TypeID, d Descriptor) (Node, error) {
	u := &Union{Branches: make([]Node, 0, len(d.Branches))}
	keys := make(map[string]struct{}, len(d.Branches))
	for _, b := range d.Branches {
		if b.IsZero() {
			return nil, &InvalidDescriptorError{ID: id, Reason: "union branch has no type"}
		}
		if _, ok := builtinPrimitive(b); !ok {
			bd, err := p.describe(b)
			if err != nil {
				return nil, err
			}
			if bd.Kind == KindUnion {
				return nil, &InvalidUnionNestingError{ID: id, Branch: b}
			}
		}
		n, err := p.resolve(b)
		if err != nil {
			return nil, err
		}
		key := branchKey(n)
		if _, dup := keys[key]; dup {
			return nil, &DuplicateUnionBranchError{ID: id, Branch: key}
		}
		keys[key] = struct{}{}
		u.Branches = append(u.Branches, n)
	}
	return u, nil
}

// branchKey identifies a union branch: named types by full name, everything
// else by its underlying type.
func branchKey(n Node) string {
	switch n := n.(type) {
	case Named:
		return n.QualifiedName().FullName()
	case *Ref:
		return n.Name.FullName()
	case *Primitive:
		return string(n.Type)
	default:
		return n.Kind().String()
	}
}

// close collects every named definition reachable from root, resolving Refs
// whose definitions are not inlined (nodes reused from a shared cache), and
// rejects two TypeIDs sharing a name anywhere in the document.
func (p *pass) close(root Node) (*Document, error) {
	doc := newDocument(root)
	var pending []*Ref
	var walk func(n Node) error
	walk = func(n Node) error {
		switch n := n.(type) {
		case Named:
			qn := n.QualifiedName()
			if prev, ok := doc.named[qn]; ok {
				if prev.TypeID() != n.TypeID() {
					return &NameCollisionError{Name: qn, First: prev.TypeID(), Second: n.TypeID()}
				}
				return nil
			}
			doc.named[qn] = n
			if rec, ok := n.(*Record); ok {
				for _, f := range rec.Fields {
					if err := walk(f.Type); err != nil {
						return err
					}
				}
			}
		case *Ref:
			pending = append(pending, n)
		case *Union:
			for _, b := range n.Branches {
				if err := walk(b); err != nil {
					return err
				}
			}
		case *Array:
			return walk(n.Items)
		case *Map:
			return walk(n.Values)
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	for len(pending) > 0 {
		r := pending[0]
		pending = pending[1:]
		if prev, ok := doc.named[r.Name]; ok {
			if prev.TypeID() != r.id {
				return nil, &NameCollisionError{Name: r.Name, First: prev.TypeID(), Second: r.id}
			}
			continue
		}
		n, err := p.resolve(r.id)
		if err != nil {
			return nil, err
		}
		named, ok := n.(Named)
		if !ok || named.QualifiedName() != r.Name {
			return nil, fmt.Errorf("avroskema: reference %s does not resolve to its definition", r.Name)
		}
		p.logf("avroskema: %s pulls definition %s from the cache", p.root, r.Name)
		if err := walk(n); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func cloneLogical(l *LogicalType) *LogicalType {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}
