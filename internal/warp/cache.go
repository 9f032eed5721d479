package warp

// FrustumCache keeps recently solved frustums ordered from least to most
// recently used. It is not safe for concurrent use; Region guards it.
type FrustumCache struct {
	depth   int
	entries []cacheEntry
}

type cacheEntry struct {
	request FrustumRequest
	result  FrustumResult
}

// NewFrustumCache returns a cache holding at most depth entries.
func NewFrustumCache(depth int) *FrustumCache {
	return &FrustumCache{depth: max(depth, 0)}
}

// Depth returns the configured capacity.
func (c *FrustumCache) Depth() int { return c.depth }

// Len returns the number of cached frustums.
func (c *FrustumCache) Len() int { return len(c.entries) }

// SetDepth changes the capacity, evicting the oldest entries that no longer
// fit. A depth of zero empties the cache.
func (c *FrustumCache) SetDepth(depth int) {
	c.depth = max(depth, 0)
	c.trim()
}

// TryGet returns the first cached frustum whose eye location lies within
// tolerance of req's and whose clipping planes and world scale match. A hit
// becomes the most recently used entry.
func (c *FrustumCache) TryGet(req FrustumRequest, tolerance float64) (FrustumResult, bool) {
	eye := req.EyeLocation()
	for i, e := range c.entries {
		if e.request.ZNear != req.ZNear || e.request.ZFar != req.ZFar || e.request.scale() != req.scale() {
			continue
		}
		if e.request.EyeLocation().Distance(eye) > tolerance {
			continue
		}
		if i != len(c.entries)-1 {
			copy(c.entries[i:], c.entries[i+1:])
			c.entries[len(c.entries)-1] = e
		}
		return e.result, true
	}
	return FrustumResult{}, false
}

// Insert appends a solved frustum as the most recently used entry and evicts
// from the front until the cache fits its depth.
func (c *FrustumCache) Insert(req FrustumRequest, result FrustumResult) {
	c.entries = append(c.entries, cacheEntry{request: req, result: result})
	c.trim()
}

// Clear drops every entry.
func (c *FrustumCache) Clear() {
	c.entries = nil
}

func (c *FrustumCache) trim() {
	if over := len(c.entries) - c.depth; over > 0 {
		kept := make([]cacheEntry, c.depth)
		copy(kept, c.entries[over:])
		c.entries = kept
	}
}
