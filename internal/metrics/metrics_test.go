package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordStreamUpdate(t *testing.T) {
	StreamUpdates.Reset()
	RecordStreamUpdate("geyser", "account")
	if got := testutil.ToFloat64(StreamUpdates.WithLabelValues("geyser", "account")); got != 1 {
		t.Errorf("StreamUpdates = %v, want 1", got)
	}
}

func TestSetStreamConnected(t *testing.T) {
	SetStreamConnected("shred", true)
	if got := testutil.ToFloat64(StreamConnected.WithLabelValues("shred")); got != 1 {
		t.Errorf("StreamConnected(true) = %v, want 1", got)
	}
	SetStreamConnected("shred", false)
	if got := testutil.ToFloat64(StreamConnected.WithLabelValues("shred")); got != 0 {
		t.Errorf("StreamConnected(false) = %v, want 0", got)
	}
}

func TestRecordOpportunity(t *testing.T) {
	OpportunitiesDetected.Reset()
	RecordOpportunity("arb", true)
	RecordOpportunity("arb", false)
	if got := testutil.ToFloat64(OpportunitiesDetected.WithLabelValues("arb", "yes")); got != 1 {
		t.Errorf("triggered count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(OpportunitiesDetected.WithLabelValues("arb", "no")); got != 1 {
		t.Errorf("non-triggered count = %v, want 1", got)
	}
}

func TestRecordStrike(t *testing.T) {
	StrikeResult.Reset()
	RecordStrike(true)
	RecordStrike(false)
	RecordStrike(false)
	if got := testutil.ToFloat64(StrikeResult.WithLabelValues("success")); got != 1 {
		t.Errorf("success count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(StrikeResult.WithLabelValues("failure")); got != 2 {
		t.Errorf("failure count = %v, want 2", got)
	}
}
