package tsinfer

import lru "github.com/hashicorp/golang-lru/v2"

// PathCache memoizes results of repeated `parent` walks within a single
// site's update_site / compress_likelihoods pass, per spec.md §9: "Both
// update_site and compress_likelihoods walk from nodes to the root...
// implementing a per-traversal scratch array... avoids an O(N) reset." We
// use a bounded LRU instead of a hand-rolled scratch array, reset once per
// site by the caller.
type PathCache struct {
	cache *lru.Cache[int, int]
}

// NewPathCache creates a cache bounded to size entries.
func NewPathCache(size int) *PathCache {
	c, err := lru.New[int, int](size)
	if err != nil {
		panic(err) // only fails for size <= 0, a construction-time bug
	}
	return &PathCache{cache: c}
}

// Get returns a cached value for node, if present.
func (p *PathCache) Get(node int) (int, bool) {
	return p.cache.Get(node)
}

// Put caches value for node.
func (p *PathCache) Put(node, value int) {
	p.cache.Add(node, value)
}

// Reset clears the cache, called once per site before reuse.
func (p *PathCache) Reset() {
	p.cache.Purge()
}
