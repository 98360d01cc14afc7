package cache

import (
	"sync/atomic"
	"time"

	"solexec/internal/metrics"
	"solexec/internal/models"
)

// minTipLamports is the relay's own floor; get_optimal_tip never returns
// below it regardless of percentile feed or user setting (spec §4.4).
const minTipLamports = 1000

// TipFloorCache holds the most recent tip-floor percentile snapshot,
// refreshed by a ~10s poller (spec §4.4). Pure in-memory reads on the
// hot path.
type TipFloorCache struct {
	v atomic.Value // models.TipFloorSnapshot
}

// NewTipFloorCache returns an empty cache; GetOptimalTip falls back to
// minTipLamports / userMinLamports until the first Update.
func NewTipFloorCache() *TipFloorCache {
	c := &TipFloorCache{}
	c.v.Store(models.TipFloorSnapshot{})
	return c
}

// Update installs a new percentile snapshot.
func (c *TipFloorCache) Update(snap models.TipFloorSnapshot) {
	c.v.Store(snap)
	metrics.TipFloor.WithLabelValues("p50").Set(snap.P50)
	metrics.TipFloor.WithLabelValues("p75").Set(snap.P75)
	metrics.TipFloor.WithLabelValues("p95").Set(snap.P95)
	metrics.TipFloor.WithLabelValues("p99").Set(snap.P99)
}

// Snapshot returns the current percentile snapshot.
func (c *TipFloorCache) Snapshot() models.TipFloorSnapshot {
	return c.v.Load().(models.TipFloorSnapshot)
}

// GetOptimalTip returns max(percentile_value, userMinLamports,
// minTipLamports), per spec §4.4.
func (c *TipFloorCache) GetOptimalTip(percentile float64, userMinLamports uint64) uint64 {
	snap := c.Snapshot()
	tip := snap.Percentile(percentile)

	result := uint64(tip)
	if userMinLamports > result {
		result = userMinLamports
	}
	if minTipLamports > result {
		result = minTipLamports
	}
	return result
}

// Age returns the time elapsed since the last Update, or a very large
// duration if no snapshot has ever been installed.
func (c *TipFloorCache) Age() time.Duration {
	snap := c.Snapshot()
	if snap.UpdatedAt.IsZero() {
		return time.Duration(1<<63 - 1)
	}
	return time.Since(snap.UpdatedAt)
}
