package waitgraph

import "testing"

func TestWait_DetectsCycle(t *testing.T) {
	g := New[int]()
	if !g.Wait(1, 2) {
		t.Fatalf("1->2 must be accepted")
	}
	if !g.Wait(2, 3) {
		t.Fatalf("2->3 must be accepted")
	}
	if g.Wait(3, 1) {
		t.Fatalf("3->1 closes a cycle and must be rejected")
	}
	if _, ok := g.Waiting(3); ok {
		t.Fatalf("rejected edge must not be recorded")
	}
	if g.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", g.Len())
	}
}

func TestWait_SelfEdge(t *testing.T) {
	g := New[string]()
	if g.Wait("a", "a") {
		t.Fatalf("self wait must be rejected")
	}
}

func TestDone_ReleasesEdge(t *testing.T) {
	g := New[int]()
	g.Wait(1, 2)
	g.Done(1)
	if !g.Wait(2, 1) {
		t.Fatalf("2->1 must be accepted once 1 stopped waiting")
	}
	if to, ok := g.Waiting(2); !ok || to != 1 {
		t.Fatalf("Waiting(2) = %v,%v", to, ok)
	}
}
