package memo_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/reoring/avroskema"
	"github.com/reoring/avroskema/memo"
)

type counting struct {
	calls atomic.Int32
	descs avroskema.MapProvider
}

func (c *counting) Describe(id avroskema.TypeID) (avroskema.Descriptor, error) {
	c.calls.Add(1)
	return c.descs.Describe(id)
}

func TestProvider_MemoizesSuccess(t *testing.T) {
	a := avroskema.MustParseTypeID("com.x.A")
	next := &counting{descs: avroskema.MapProvider{a: {Kind: avroskema.KindRecord, Scope: []string{"com", "x"}}}}
	p, err := memo.New(next, 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := p.Describe(a); err != nil {
			t.Fatalf("describe: %v", err)
		}
	}
	if n := next.calls.Load(); n != 1 {
		t.Fatalf("wrapped provider called %d times, want 1", n)
	}
	p.Purge()
	if _, err := p.Describe(a); err != nil || next.calls.Load() != 2 {
		t.Fatalf("purge must drop memoized descriptors")
	}
}

func TestProvider_DoesNotMemoizeFailures(t *testing.T) {
	next := &counting{descs: avroskema.MapProvider{}}
	p, _ := memo.New(next, 8)
	missing := avroskema.MustParseTypeID("com.x.Missing")
	for i := 0; i < 2; i++ {
		if _, err := p.Describe(missing); !errors.Is(err, avroskema.ErrNotDescribed) {
			t.Fatalf("expected ErrNotDescribed, got %v", err)
		}
	}
	if n := next.calls.Load(); n != 2 || p.Len() != 0 {
		t.Fatalf("failures must reach the wrapped provider every time (calls=%d len=%d)", n, p.Len())
	}
}

func TestProvider_Evicts(t *testing.T) {
	descs := avroskema.MapProvider{}
	ids := []avroskema.TypeID{
		avroskema.MustParseTypeID("com.x.A"),
		avroskema.MustParseTypeID("com.x.B"),
		avroskema.MustParseTypeID("com.x.C"),
	}
	for _, id := range ids {
		descs[id] = avroskema.Descriptor{Kind: avroskema.KindRecord}
	}
	next := &counting{descs: descs}
	p, _ := memo.New(next, 2)
	for _, id := range ids {
		_, _ = p.Describe(id)
	}
	if p.Len() != 2 {
		t.Fatalf("Len = %d, want 2", p.Len())
	}
	_, _ = p.Describe(ids[0])
	if n := next.calls.Load(); n != 4 {
		t.Fatalf("evicted entry must be described again, calls = %d", n)
	}
}
