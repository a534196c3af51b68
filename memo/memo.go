// Package memo wraps a Provider with an LRU of its descriptors. Useful in
// front of providers that do real work per Describe (descriptor-set lookups,
// remote registries) when many derivations run against the same types.
package memo

import (
	"github.com/hashicorp/golang-lru/v2"

	"github.com/reoring/avroskema"
)

// DefaultSize is the number of descriptors kept when New is given size <= 0.
const DefaultSize = 1024

// Provider memoizes successful Describe results of the wrapped provider.
// Failures are never cached.
type Provider struct {
	next  avroskema.Provider
	cache *lru.Cache[avroskema.TypeID, avroskema.Descriptor]
}

// New wraps next with an LRU holding up to size descriptors.
func New(next avroskema.Provider, size int) (*Provider, error) {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[avroskema.TypeID, avroskema.Descriptor](size)
	if err != nil {
		return nil, err
	}
	return &Provider{next: next, cache: cache}, nil
}

// Describe implements avroskema.Provider.
func (p *Provider) Describe(id avroskema.TypeID) (avroskema.Descriptor, error) {
	if d, ok := p.cache.Get(id); ok {
		return d, nil
	}
	d, err := p.next.Describe(id)
	if err != nil {
		return avroskema.Descriptor{}, err
	}
	p.cache.Add(id, d)
	return d, nil
}

// Len returns the number of memoized descriptors.
func (p *Provider) Len() int { return p.cache.Len() }

// Purge drops every memoized descriptor.
func (p *Provider) Purge() { p.cache.Purge() }
