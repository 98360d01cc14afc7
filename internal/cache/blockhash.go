// Package cache holds the in-memory-only read caches: the two hot-path
// caches named by spec §4.2/§4.4 (the blockhash cache and the tip-floor
// cache), plus the Orca pool map (orcamap.go) and the price cache
// (price.go). The two hot-path caches are grounded on the same "atomic.Value snapshot, no locks on the read
// path" technique the teacher uses for its hot config reads
// (bot/engine.go), generalized from a single float64 to whole-struct
// snapshots (SPEC_FULL §14).
package cache

import (
	"sync/atomic"

	"solexec/internal/metrics"
	"solexec/internal/models"
	"solexec/internal/xerr"
)

// BlockhashCache holds the most recent (blockhash, last_valid_block_height)
// pair plus the current slot. Populated by the streaming fabric; read by
// transaction builders without any I/O (spec §4.2).
type BlockhashCache struct {
	v atomic.Value // models.BlockhashEntry
}

// NewBlockhashCache returns a cache reporting "unavailable" until the
// first Update call.
func NewBlockhashCache() *BlockhashCache {
	c := &BlockhashCache{}
	c.v.Store(models.BlockhashEntry{Available: false})
	return c
}

// Update installs a new blockhash snapshot.
func (c *BlockhashCache) Update(entry models.BlockhashEntry) {
	entry.Available = true
	c.v.Store(entry)
	metrics.BlockhashAge.Set(0)
}

// UpdateSlot records the current slot for the age metric without
// touching the cached blockhash, used when a slot update arrives between
// blockhash refreshes.
func (c *BlockhashCache) UpdateSlot(slot uint64) {
	cur := c.v.Load().(models.BlockhashEntry)
	if !cur.Available {
		return
	}
	age := int64(slot) - int64(cur.ObservedSlot)
	if age < 0 {
		age = 0
	}
	metrics.BlockhashAge.Set(float64(age))
}

// Get returns the current entry and whether it is available. Callers
// must themselves enforce the blocks_remaining ≥ 20 invariant (spec
// §4.2 "this is policy, not cache responsibility").
func (c *BlockhashCache) Get() (models.BlockhashEntry, bool) {
	entry := c.v.Load().(models.BlockhashEntry)
	return entry, entry.Available
}

// GetFresh returns the current entry only if it is available and has at
// least minBlocksRemaining blocks left before expiry, else a Stale
// xerr.Error.
func (c *BlockhashCache) GetFresh(currentSlot uint64, minBlocksRemaining int64) (models.BlockhashEntry, error) {
	entry, ok := c.Get()
	if !ok {
		return entry, xerr.New(xerr.Stale, "cache", "blockhash unavailable: no update received yet", nil)
	}
	if entry.BlocksRemaining(currentSlot) < minBlocksRemaining {
		return entry, xerr.New(xerr.Stale, "cache", "blockhash too close to expiry", nil)
	}
	return entry, nil
}
