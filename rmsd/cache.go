package rmsd

import (
	"fmt"
	"sync"

	md "github.com/gomd/gomd"
	v3 "github.com/gomd/gomd/v3"
)

type cacheKey struct {
	conf *v3.Matrix
	sub  *md.Subset
}

type cacheEntry struct {
	once   sync.Once
	coords *v3.Matrix
	norm   float64
	err    error
}

// Cache memoizes the centroid-removed form and squared norm of
// conformations, so that a reference compared against thousands of
// frames is centered once instead of once per comparison. Entries are
// keyed by the identity of the conformation and of the subset, not by
// their contents.
//
// The cache cannot see mutations: a caller that changes a cached
// conformation's coordinates and does not call Invalidate will silently
// get stale results. That contract is the caller's to uphold.
type Cache struct {
	mu sync.Mutex
	m  map[cacheKey]*cacheEntry
}

// NewCache returns an empty Cache, safe for concurrent use.
func NewCache() *Cache {
	return &Cache{m: make(map[cacheKey]*cacheEntry)}
}

// GetOrCompute returns the centered form and squared norm of conf
// restricted to sub (nil for all atoms), computing and storing them on
// the first request. Concurrent misses on one key converge to a single
// computed value; each key is filled exactly once.
func (c *Cache) GetOrCompute(conf *v3.Matrix, sub *md.Subset) (*v3.Matrix, float64, error) {
	k := cacheKey{conf: conf, sub: sub}
	c.mu.Lock()
	e, ok := c.m[k]
	if !ok {
		e = new(cacheEntry)
		c.m[k] = e
	}
	c.mu.Unlock()
	e.once.Do(func() {
		e.coords, e.norm, e.err = gatherCenter(conf, sub)
	})
	return e.coords, e.norm, e.err
}

// Invalidate drops every entry derived from conf. Any mutator of a
// conformation's coordinates must call this before the next comparison;
// nothing in this package calls it automatically.
func (c *Cache) Invalidate(conf *v3.Matrix) {
	c.mu.Lock()
	for k := range c.m {
		if k.conf == conf {
			delete(c.m, k)
		}
	}
	c.mu.Unlock()
}

// gatherCenter builds a centered working copy of conf, restricted to sub
// if one is given, plus its squared norm. The input is never mutated.
func gatherCenter(conf *v3.Matrix, sub *md.Subset) (*v3.Matrix, float64, error) {
	if conf == nil || conf.NVecs() == 0 {
		return nil, 0, md.NewError(md.KindEmptyStructure, "conformation with zero atoms")
	}
	var w *v3.Matrix
	if sub == nil {
		w = conf.Clone()
	} else {
		if sub.NAtoms() != conf.NVecs() {
			return nil, 0, md.NewError(md.KindInvalidSubset, fmt.Sprintf("subset validated against %d atoms, conformation has %d", sub.NAtoms(), conf.NVecs()))
		}
		w = v3.Zeros(sub.Len())
		w.SomeVecs(conf, sub.Indexes())
	}
	if _, err := w.Center(nil); err != nil {
		return nil, 0, err
	}
	g, err := w.SquaredNorm(nil)
	if err != nil {
		return nil, 0, err
	}
	return w, g, nil
}
