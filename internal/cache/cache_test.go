package cache

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"solexec/internal/models"
	"solexec/internal/xerr"
)

func TestBlockhashCache_UnavailableUntilFirstUpdate(t *testing.T) {
	c := NewBlockhashCache()

	if _, ok := c.Get(); ok {
		t.Fatal("expected cache to report unavailable before any Update")
	}

	_, err := c.GetFresh(100, 20)
	if !xerr.Is(err, xerr.Stale) {
		t.Fatalf("expected a Stale error, got %v", err)
	}
}

func TestBlockhashCache_GetFresh(t *testing.T) {
	c := NewBlockhashCache()
	c.Update(models.BlockhashEntry{
		Blockhash:            solana.Hash{1, 2, 3},
		LastValidBlockHeight: 1000,
		ObservedSlot:         950,
	})

	entry, err := c.GetFresh(980, 20)
	if err != nil {
		t.Fatalf("GetFresh() error = %v", err)
	}
	if entry.LastValidBlockHeight != 1000 {
		t.Errorf("LastValidBlockHeight = %d, want 1000", entry.LastValidBlockHeight)
	}

	if _, err := c.GetFresh(985, 20); !xerr.Is(err, xerr.Stale) {
		t.Errorf("expected Stale when blocks_remaining < 20, got %v", err)
	}
}

func TestTipFloorCache_GetOptimalTip_FallsBackToFloor(t *testing.T) {
	c := NewTipFloorCache()

	if got := c.GetOptimalTip(50, 0); got != minTipLamports {
		t.Errorf("GetOptimalTip() = %d, want %d (floor)", got, minTipLamports)
	}
}

func TestTipFloorCache_GetOptimalTip_UsesMax(t *testing.T) {
	c := NewTipFloorCache()
	c.Update(models.TipFloorSnapshot{P50: 5000, P95: 20000, UpdatedAt: time.Now()})

	if got := c.GetOptimalTip(50, 100); got != 5000 {
		t.Errorf("GetOptimalTip(50, 100) = %d, want 5000", got)
	}
	if got := c.GetOptimalTip(50, 8000); got != 8000 {
		t.Errorf("GetOptimalTip(50, 8000) = %d, want 8000 (user min wins)", got)
	}
	if got := c.GetOptimalTip(95, 0); got != 20000 {
		t.Errorf("GetOptimalTip(95, 0) = %d, want 20000", got)
	}
}

func TestTipFloorCache_Age(t *testing.T) {
	c := NewTipFloorCache()
	if c.Age() < time.Hour {
		t.Error("expected a very large age before any Update")
	}

	c.Update(models.TipFloorSnapshot{P50: 1000, UpdatedAt: time.Now()})
	if c.Age() > time.Second {
		t.Errorf("Age() = %v, want near zero right after Update", c.Age())
	}
}
