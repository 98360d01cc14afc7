package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
)

// ============ MonitoredPair Tests ============

func TestMonitoredPair_StatusConstants(t *testing.T) {
	tests := []struct {
		name     string
		constant string
		expected string
	}{
		{"PairStatusPaused", PairStatusPaused, "paused"},
		{"PairStatusActive", PairStatusActive, "active"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.constant != tt.expected {
				t.Errorf("constant %s: want %q, got %q", tt.name, tt.expected, tt.constant)
			}
		})
	}
}

func TestMonitoredPair_JSONSerialization(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	pair := MonitoredPair{
		ID:           1,
		InputMint:    "So11111111111111111111111111111111111111112",
		OutputMint:   "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		InputSymbol:  "SOL",
		OutputSymbol: "USDC",
		Amount:       1_000_000_000,
		Status:       PairStatusActive,
		TradesCount:  10,
		TotalPnl:     250.50,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	data, err := json.Marshal(pair)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded MonitoredPair
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.InputSymbol != pair.InputSymbol {
		t.Errorf("InputSymbol: want %q, got %q", pair.InputSymbol, decoded.InputSymbol)
	}
	if decoded.Status != pair.Status {
		t.Errorf("Status: want %q, got %q", pair.Status, decoded.Status)
	}
}

func TestMonitoredPair_Key_OrderIndependent(t *testing.T) {
	p1 := MonitoredPair{InputMint: "AAA", OutputMint: "BBB"}
	p2 := MonitoredPair{InputMint: "BBB", OutputMint: "AAA"}

	if p1.Key() != p2.Key() {
		t.Error("Key() must be order-independent over the mint pair")
	}
}

func TestNewPairKey_MatchesStringVariant(t *testing.T) {
	a := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	b := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

	k1 := NewPairKey(a, b)
	k2 := NewPairKeyFromStrings(a.String(), b.String())
	if k1 != k2 {
		t.Error("NewPairKey and NewPairKeyFromStrings must agree")
	}
}

// ============ Opportunity / Leg Tests ============

func TestOpportunity_ClearsThreshold(t *testing.T) {
	tests := []struct {
		name         string
		spreadPct    float64
		netProfitUSD float64
		minProfitPct float64
		want         bool
	}{
		{"clears", 1.0, 5.0, 0.5, true},
		{"spread too small", 0.2, 5.0, 0.5, false},
		{"no net profit", 1.0, -1.0, 0.5, false},
		{"zero net profit", 1.0, 0, 0.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Opportunity{SpreadPct: tt.spreadPct, NetProfitUSD: tt.netProfitUSD}
			if got := o.ClearsThreshold(tt.minProfitPct); got != tt.want {
				t.Errorf("ClearsThreshold() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOpportunity_JSONSerialization(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	opp := Opportunity{
		PairID:     1,
		BestVenue:  "raydium",
		WorstVenue: "orca",
		BestOut:    151_000_000,
		WorstOut:   149_000_000,
		SpreadPct:  1.3,
		Legs: []Leg{
			{Venue: "orca", InputMint: "USDC", OutputMint: "SOL", AmountIn: 150_000_000, AmountOut: 1_000_000_000, Method: "orca_sidecar"},
			{Venue: "raydium", InputMint: "SOL", OutputMint: "USDC", AmountIn: 1_000_000_000, AmountOut: 151_000_000, Method: "raydium_direct"},
		},
		State:     OppSucceeded,
		Timestamp: now,
	}

	data, err := json.Marshal(opp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Opportunity
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded.Legs) != 2 {
		t.Fatalf("Legs: want 2, got %d", len(decoded.Legs))
	}
	if decoded.Legs[0].Venue != "orca" {
		t.Errorf("Legs[0].Venue: want orca, got %s", decoded.Legs[0].Venue)
	}
	if decoded.State != OppSucceeded {
		t.Errorf("State: want %s, got %s", OppSucceeded, decoded.State)
	}
}

func TestStrikeResult_JSONSerialization(t *testing.T) {
	res := StrikeResult{
		PairID:     1,
		Success:    true,
		Leg1Method: "aggregator_fallback",
		Leg2Method: "raydium_direct",
		ProfitRaw:  2_000_000,
		Timestamp:  time.Now().Truncate(time.Second),
	}

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded StrikeResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Leg2Method != "raydium_direct" {
		t.Errorf("Leg2Method: want raydium_direct, got %s", decoded.Leg2Method)
	}
	if !decoded.Success {
		t.Error("Success should be true")
	}
}

// ============ HFTPosition / CircuitBreakerState Tests ============

func TestHFTPosition_StatusConstants(t *testing.T) {
	tests := []struct {
		name     string
		constant string
		expected string
	}{
		{"HFTStatusMonitoring", HFTStatusMonitoring, "monitoring"},
		{"HFTStatusSelling", HFTStatusSelling, "selling"},
		{"HFTStatusSold", HFTStatusSold, "sold"},
		{"HFTStatusError", HFTStatusError, "error"},
	}
	for _, tt := range tests {
		if tt.constant != tt.expected {
			t.Errorf("%s: want %q, got %q", tt.name, tt.expected, tt.constant)
		}
	}
}

func TestHFTPosition_IsExpired(t *testing.T) {
	now := time.Now()
	pos := HFTPosition{Deadline: now.Add(-time.Second)}
	if !pos.IsExpired(now) {
		t.Error("expected position to be expired")
	}
	pos.Deadline = now.Add(time.Minute)
	if pos.IsExpired(now) {
		t.Error("expected position to not be expired")
	}
}

func TestHFTPosition_JSONSerialization(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	pos := HFTPosition{
		Mint:           "XYZmint111111111111111111111111111111111",
		Symbol:         "XYZ",
		SolSpent:       0.1,
		TokensReceived: 1_000_000,
		EntryPriceSOL:  0.0000001,
		EntryTime:      now,
		Deadline:       now.Add(time.Minute),
		Status:         HFTStatusMonitoring,
	}

	data, err := json.Marshal(pos)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded HFTPosition
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Status != HFTStatusMonitoring {
		t.Errorf("Status: want %s, got %s", HFTStatusMonitoring, decoded.Status)
	}
}

func TestCircuitBreakerState_RecordStrike(t *testing.T) {
	cb := CircuitBreakerState{Limit: 2, Armed: true}

	if tripped := cb.RecordStrike(); tripped {
		t.Error("first strike should not trip the breaker")
	}
	if tripped := cb.RecordStrike(); !tripped {
		t.Error("second strike should trip the breaker (limit=2)")
	}
	if cb.Armed {
		t.Error("breaker should be disarmed after tripping")
	}
	if tripped := cb.RecordStrike(); !tripped {
		t.Error("a strike attempt while disarmed must report tripped=true and not submit")
	}
}

func TestCircuitBreakerState_Rearm(t *testing.T) {
	cb := CircuitBreakerState{Count: 3, Limit: 3, Armed: false, DisarmNotified: true}
	cb.Rearm(5)

	if !cb.Armed {
		t.Error("expected Armed=true after Rearm")
	}
	if cb.Count != 0 {
		t.Error("expected Count reset to 0 after Rearm")
	}
	if cb.Limit != 5 {
		t.Error("expected Limit updated to new value after Rearm")
	}
	if cb.DisarmNotified {
		t.Error("expected DisarmNotified reset to false after Rearm")
	}
}

// ============ Notification Tests ============

func TestNotification_SeverityConstants(t *testing.T) {
	tests := []struct {
		name     string
		constant string
		expected string
	}{
		{"SeverityInfo", SeverityInfo, "info"},
		{"SeveritySuccess", SeveritySuccess, "success"},
		{"SeverityWarning", SeverityWarning, "warning"},
		{"SeverityError", SeverityError, "error"},
	}
	for _, tt := range tests {
		if tt.constant != tt.expected {
			t.Errorf("%s: want %q, got %q", tt.name, tt.expected, tt.constant)
		}
	}
}

func TestNotification_JSONSerialization(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	pairID := 5
	notif := Notification{
		ID:        1,
		Timestamp: now,
		Type:      NotificationTypeStrikeSuccess,
		Severity:  SeveritySuccess,
		PairID:    &pairID,
		Message:   "strike succeeded on SOL/USDC",
		Meta: map[string]interface{}{
			"leg1_method": "aggregator_fallback",
			"leg2_method": "raydium_direct",
			"spread_pct":  1.2,
		},
	}

	data, err := json.Marshal(notif)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Notification
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Type != notif.Type {
		t.Errorf("Type: want %q, got %q", notif.Type, decoded.Type)
	}
	if decoded.Meta["leg2_method"] != "raydium_direct" {
		t.Errorf("Meta[leg2_method]: want raydium_direct, got %v", decoded.Meta["leg2_method"])
	}
}

func TestNotification_NilPairID(t *testing.T) {
	notif := Notification{ID: 1, Type: NotificationTypeFatalConfig, Severity: SeverityError, Message: "missing signer key"}

	data, err := json.Marshal(notif)
	if err != nil {
		t.Fatalf("marshal with nil PairID: %v", err)
	}
	var decoded Notification
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.PairID != nil {
		t.Error("expected PairID to remain nil")
	}
}

// ============ RuntimeSettings Tests ============

func TestRuntimeSettings_JSONSerialization(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	settings := RuntimeSettings{
		ID:                1,
		ScanIntervalSeconds: 1.5,
		AutoStrike:        true,
		MinProfitPct:      0.5,
		SniperMode:        SniperModeBoth,
		AutoSnipe:         true,
		CircuitBreakerMax: 3,
		NotificationPrefs: NotificationPreferences{StrikeSuccess: true, NewToken: true},
		UpdatedAt:         now,
	}

	data, err := json.Marshal(settings)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded RuntimeSettings
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.SniperMode != SniperModeBoth {
		t.Errorf("SniperMode: want %q, got %q", SniperModeBoth, decoded.SniperMode)
	}
	if !decoded.NotificationPrefs.NewToken {
		t.Error("NotificationPrefs.NewToken should be true")
	}
}

func TestRuntimeSettings_Clone(t *testing.T) {
	s := RuntimeSettings{MinProfitPct: 1.0}
	clone := s.Clone()
	clone.MinProfitPct = 2.0

	if s.MinProfitPct == clone.MinProfitPct {
		t.Error("Clone should return an independent value copy")
	}
}

// ============ BlocklistEntry Tests ============

func TestBlocklistEntry_JSONSerialization(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	entry := BlocklistEntry{ID: 1, Mint: "ScamMint1111111111111111111111111111111", Reason: "rug pull reported", CreatedAt: now}

	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded BlocklistEntry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Mint != entry.Mint {
		t.Errorf("Mint: want %q, got %q", entry.Mint, decoded.Mint)
	}
}

// ============ Stats Tests ============

func TestStats_JSONSerialization(t *testing.T) {
	stats := Stats{
		TotalStrikes: 100,
		TotalPnlUSD:  500.50,
		CircuitBreakerTrips: []CircuitBreakerEvent{
			{Timestamp: time.Now().Truncate(time.Second), Count: 3, Limit: 3},
		},
		SafetyRejections: []SafetyRejectionStat{
			{Reason: "mint_authority_not_renounced", Count: 12},
		},
		TopPairsByStrikes: []PairStat{{Symbol: "SOL/USDC", Value: 50}},
	}

	data, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Stats
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.TotalStrikes != stats.TotalStrikes {
		t.Errorf("TotalStrikes: want %d, got %d", stats.TotalStrikes, decoded.TotalStrikes)
	}
	if len(decoded.CircuitBreakerTrips) != 1 {
		t.Errorf("CircuitBreakerTrips: want 1, got %d", len(decoded.CircuitBreakerTrips))
	}
}

// ============ PoolState / TipFloorSnapshot / BlockhashEntry Tests ============

func TestPoolState_IsStale(t *testing.T) {
	tests := []struct {
		name           string
		lastUpdateSlot uint64
		currentSlot    uint64
		want           bool
	}{
		{"never updated", 0, 100, true},
		{"fresh", 100, 120, false},
		{"exactly at boundary", 100, 150, false},
		{"stale", 100, 151, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PoolState{LastUpdateSlot: tt.lastUpdateSlot}
			if got := p.IsStale(tt.currentSlot); got != tt.want {
				t.Errorf("IsStale() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTipFloorSnapshot_Percentile(t *testing.T) {
	snap := TipFloorSnapshot{P25: 1000, P50: 2000, P75: 5000, P95: 10000, P99: 20000}

	tests := []struct {
		p    float64
		want float64
	}{
		{25, 1000}, {50, 2000}, {75, 5000}, {95, 10000}, {99, 20000}, {60, 0},
	}
	for _, tt := range tests {
		if got := snap.Percentile(tt.p); got != tt.want {
			t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestBlockhashEntry_BlocksRemaining(t *testing.T) {
	b := BlockhashEntry{LastValidBlockHeight: 1000, ObservedSlot: 980}
	if got := b.BlocksRemaining(990); got != 10 {
		t.Errorf("BlocksRemaining = %d, want 10", got)
	}
}
