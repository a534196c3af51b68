package avroskema

import (
	"errors"
	"sync"

	"github.com/reoring/avroskema/internal/waitgraph"
)

// EntryState is the lifecycle stage of one cache entry.
type EntryState int

const (
	StateUnseen EntryState = iota
	StateInProgress
	StateDone
)

func (s EntryState) String() string {
	switch s {
	case StateInProgress:
		return "in-progress"
	case StateDone:
		return "done"
	default:
		return "unseen"
	}
}

// errYield makes a pass give up its in-progress entries because blocking on
// another pass would deadlock. The Assembler restarts the pass.
var errYield = errors.New("avroskema: yield to concurrent derivation")

type entry struct {
	state EntryState
	node  Node
	name  QualifiedName
	named bool
	owner *pass
	done  chan struct{} // closed on Done or release
}

// Cache maps TypeIDs to schema nodes and guarantees exactly one node per
// TypeID for as long as the cache lives. A Cache may be scoped to a single
// derivation or shared by many, including concurrent ones.
//
// Entries move Unseen -> InProgress -> Done. Done is permanent. An InProgress
// entry whose pass fails is dropped back to Unseen so that waiters on other
// passes can build it themselves.
type Cache struct {
	mu      sync.Mutex
	entries map[TypeID]*entry
	waits   *waitgraph.Graph[*pass]
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[TypeID]*entry),
		waits:   waitgraph.New[*pass](),
	}
}

// Len returns the number of Done entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.state == StateDone {
			n++
		}
	}
	return n
}

// Lookup returns the node of a Done entry.
func (c *Cache) Lookup(id TypeID) (Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok && e.state == StateDone {
		return e.node, true
	}
	return nil, false
}

// State reports the lifecycle stage of id.
func (c *Cache) State(id TypeID) EntryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok {
		return e.state
	}
	return StateUnseen
}

// slot lets a builder record the name of the entry it is building before it
// recurses, so that cycles back to the entry can be answered with a Ref.
type slot struct {
	c *Cache
	e *entry
}

func (s *slot) setName(qn QualifiedName) {
	s.c.mu.Lock()
	s.e.name = qn
	s.e.named = true
	s.c.mu.Unlock()
}

// getOrBuild returns the node for id, building it with build when no pass has
// claimed id yet.
//
// A Done entry is returned as is. An entry in progress on the same pass is a
// cycle: named entries answer with a Ref, unnamed ones (arrays, maps) fail
// with UnsupportedRecursionError. An entry in progress on another pass is
// waited for, unless waiting would deadlock, in which case errYield is
// returned.
func (c *Cache) getOrBuild(p *pass, id TypeID, build func(s *slot) (Node, error)) (Node, error) {
	c.mu.Lock()
	for {
		e, ok := c.entries[id]
		if !ok {
			break
		}
		if e.state == StateDone {
			c.mu.Unlock()
			return e.node, nil
		}
		if e.owner == p {
			named, name := e.named, e.name
			c.mu.Unlock()
			if named {
				p.logf("avroskema: cycle through %s answered with reference %s", id, name)
				return &Ref{Name: name, id: id}, nil
			}
			return nil, &UnsupportedRecursionError{ID: id, Path: p.cyclePath(id)}
		}
		if !c.waits.Wait(p, e.owner) {
			c.mu.Unlock()
			return nil, errYield
		}
		ch := e.done
		c.mu.Unlock()
		p.logf("avroskema: waiting for %s built by a concurrent derivation", id)
		<-ch
		c.mu.Lock()
		c.waits.Done(p)
	}
	e := &entry{state: StateInProgress, owner: p, done: make(chan struct{})}
	c.entries[id] = e
	c.mu.Unlock()
	p.owned = append(p.owned, id)

	node, err := build(&slot{c: c, e: e})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	e.state = StateDone
	e.node = node
	e.owner = nil
	close(e.done)
	c.mu.Unlock()
	return node, nil
}

// release drops the entries p left in progress and wakes their waiters.
func (c *Cache) release(p *pass) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range p.owned {
		e, ok := c.entries[id]
		if !ok || e.owner != p || e.state != StateInProgress {
			continue
		}
		delete(c.entries, id)
		close(e.done)
	}
	c.waits.Done(p)
	p.owned = nil
}
