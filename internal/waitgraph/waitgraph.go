package waitgraph

// Graph records which waiter is blocked on which holder. Each waiter blocks on
// at most one holder at a time. Graph is not safe for concurrent use; callers
// guard it with the same lock that protects the resources being waited on.
type Graph[K comparable] struct {
	edges map[K]K
}

// New returns an empty wait-for graph.
func New[K comparable]() *Graph[K] {
	return &Graph[K]{edges: make(map[K]K)}
}

// Wait records that from blocks on to. It returns false, without recording the
// edge, when the edge would close a cycle (to already waits, transitively, on
// from).
func (g *Graph[K]) Wait(from, to K) bool {
	if g.reaches(to, from) {
		return false
	}
	g.edges[from] = to
	return true
}

// Done removes the outgoing edge of from.
func (g *Graph[K]) Done(from K) {
	delete(g.edges, from)
}

// Waiting reports whether from currently blocks on some holder.
func (g *Graph[K]) Waiting(from K) (K, bool) {
	to, ok := g.edges[from]
	return to, ok
}

// Len returns the number of blocked waiters.
func (g *Graph[K]) Len() int { return len(g.edges) }

func (g *Graph[K]) reaches(start, target K) bool {
	cur := start
	// Every node has at most one outgoing edge, so the walk is a path; the
	// step bound guards against a malformed graph.
	for steps := 0; steps <= len(g.edges); steps++ {
		if cur == target {
			return true
		}
		next, ok := g.edges[cur]
		if !ok {
			return false
		}
		cur = next
	}
	return false
}
