package cache

import "sync"

// PriceCache is the in-memory, externally-populated price cache named
// first in spec §4.6's price lookup priority ("(a) in-memory price cache
// if populated"). Grounded on OrcaPoolMap's mutex-protected map shape;
// no teacher analogue exists since a CEX bot reads live order books
// instead of maintaining its own price store.
type PriceCache struct {
	mu     sync.RWMutex
	prices map[string]float64 // mint -> price in SOL
}

// NewPriceCache returns an empty cache.
func NewPriceCache() *PriceCache {
	return &PriceCache{prices: make(map[string]float64)}
}

// Set records the latest known SOL-denominated price for mint.
func (c *PriceCache) Set(mint string, priceSOL float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[mint] = priceSOL
}

// Get returns the cached price for mint, if populated.
func (c *PriceCache) Get(mint string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.prices[mint]
	return p, ok
}
