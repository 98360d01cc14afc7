package utils

// math.go - numeric helpers shared across quote computation, spread
// detection, and position PNL tracking. Pure functions, no I/O.

import "math"

// RoundToLotSize truncates value down to the nearest multiple of lotSize.
// lotSize <= 0 is treated as "no rounding".
func RoundToLotSize(value, lotSize float64) float64 {
	if lotSize <= 0 {
		return value
	}
	return math.Floor(value/lotSize) * lotSize
}

// RoundToLotSizeUp rounds value up to the nearest multiple of lotSize.
func RoundToLotSizeUp(value, lotSize float64) float64 {
	if lotSize <= 0 {
		return value
	}
	return math.Ceil(value/lotSize) * lotSize
}

// RoundToLotSizeNearest rounds value to the nearest multiple of lotSize.
func RoundToLotSizeNearest(value, lotSize float64) float64 {
	if lotSize <= 0 {
		return value
	}
	return math.Round(value/lotSize) * lotSize
}

// CalculateSpread returns the percentage spread of priceHigh over priceLow.
// Returns 0 when priceLow is non-positive.
func CalculateSpread(priceHigh, priceLow float64) float64 {
	if priceLow <= 0 {
		return 0
	}
	return (priceHigh - priceLow) / priceLow * 100
}

// CalculateSpreadFromPrices returns the spread between two prices regardless
// of which one is larger; this is the shape used by the arb scanner to
// compare best/worst venue output (spec §4.5).
func CalculateSpreadFromPrices(priceA, priceB float64) float64 {
	if priceA <= 0 || priceB <= 0 {
		return 0
	}
	if priceA >= priceB {
		return CalculateSpread(priceA, priceB)
	}
	return CalculateSpread(priceB, priceA)
}

// CalculateNetSpread subtracts the round-trip taker fees (paid on both legs,
// both directions) from a gross spread percentage. feeA/feeB are fractional
// (0.0004 == 4 bps).
func CalculateNetSpread(spreadPct, feeA, feeB float64) float64 {
	totalFeePct := (feeA + feeB) * 100
	return spreadPct - 2*totalFeePct
}

// CalculateNetSpreadDirect combines CalculateSpread and CalculateNetSpread.
func CalculateNetSpreadDirect(priceHigh, priceLow, feeA, feeB float64) float64 {
	return CalculateNetSpread(CalculateSpread(priceHigh, priceLow), feeA, feeB)
}

// CalculateWeightedAverage computes a volume-weighted average price,
// ignoring negative weights and mismatched-length inputs.
func CalculateWeightedAverage(values, weights []float64) float64 {
	if len(values) == 0 || len(values) != len(weights) {
		return 0
	}
	var sumWeighted, sumWeights float64
	for i, v := range values {
		w := weights[i]
		if w <= 0 {
			continue
		}
		sumWeighted += v * w
		sumWeights += w
	}
	if sumWeights == 0 {
		return 0
	}
	return sumWeighted / sumWeights
}

// OrderBookLevel is one price/volume rung of a venue quote ladder, used by
// the simulated-fill helpers below (aggregator/sidecar quotes arrive as a
// single number, but a direct-AMM or order-book-backed venue can expose
// levels for a more accurate fill estimate).
type OrderBookLevel struct {
	Price  float64
	Volume float64
}

// SimulateMarketBuy walks asks from the top of book, filling up to
// targetVolume, and returns the volume-weighted fill price, the filled
// volume (may be less than requested if the book is thin), and the
// resulting slippage percentage versus the best ask.
func SimulateMarketBuy(asks []OrderBookLevel, targetVolume float64) (avgPrice, filled, slippagePct float64) {
	return simulateMarketFill(asks, targetVolume)
}

// SimulateMarketSell walks bids from the top of book; slippage is negative
// when the realized price is below the best bid.
func SimulateMarketSell(bids []OrderBookLevel, targetVolume float64) (avgPrice, filled, slippagePct float64) {
	return simulateMarketFill(bids, targetVolume)
}

func simulateMarketFill(levels []OrderBookLevel, targetVolume float64) (avgPrice, filled, slippagePct float64) {
	if len(levels) == 0 || targetVolume <= 0 {
		return 0, 0, 0
	}
	var notional, remaining float64
	remaining = targetVolume
	for _, lvl := range levels {
		if remaining <= 0 {
			break
		}
		take := math.Min(lvl.Volume, remaining)
		notional += take * lvl.Price
		filled += take
		remaining -= take
	}
	if filled == 0 {
		return 0, 0, 0
	}
	avgPrice = notional / filled
	best := levels[0].Price
	if avgPrice >= best {
		slippagePct = CalculateSpread(avgPrice, best)
	} else {
		slippagePct = (avgPrice - best) / best * 100
	}
	return avgPrice, filled, slippagePct
}

// CalculatePNL returns the PNL for a single-leg position; side is "long" or
// "short", any other value returns 0.
func CalculatePNL(side string, entryPrice, currentPrice, quantity float64) float64 {
	switch side {
	case "long":
		return (currentPrice - entryPrice) * quantity
	case "short":
		return (entryPrice - currentPrice) * quantity
	default:
		return 0
	}
}

// CalculateTotalPNL sums the long and short legs of a two-leg arbitrage
// position (spec §4.5's leg1/leg2 bundle).
func CalculateTotalPNL(longEntry, longCurrent, shortEntry, shortCurrent, quantity float64) float64 {
	return CalculatePNL("long", longEntry, longCurrent, quantity) + CalculatePNL("short", shortEntry, shortCurrent, quantity)
}

// SplitVolume divides totalVolume into nParts equal, lot-size-rounded
// chunks; used by staged entries. Returns nil for degenerate inputs.
func SplitVolume(totalVolume float64, nParts int, lotSize float64) []float64 {
	if nParts <= 0 || totalVolume <= 0 {
		return nil
	}
	part := RoundToLotSizeNearest(totalVolume/float64(nParts), lotSize)
	parts := make([]float64, nParts)
	for i := range parts {
		parts[i] = part
	}
	return parts
}

// IsSpreadSufficient reports whether spreadPct clears minProfitPct.
func IsSpreadSufficient(spreadPct, minProfitPct float64) bool {
	return spreadPct >= minProfitPct
}

// ShouldExit reports whether spreadPct has collapsed to the exit threshold.
func ShouldExit(spreadPct, exitSpreadPct float64) bool {
	return spreadPct <= exitSpreadPct
}

// IsStopLossHit reports whether pnl has breached -stopLoss. stopLoss <= 0
// means stop-loss is disabled.
func IsStopLossHit(pnl, stopLoss float64) bool {
	if stopLoss <= 0 {
		return false
	}
	return pnl <= -stopLoss
}

// Clamp restricts value to [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
