package streaming

import (
	"testing"

	"go.uber.org/zap"
)

func TestBuildSubscribeRequest(t *testing.T) {
	req := buildSubscribeRequest([]string{"pool1", "pool2"})

	filter, ok := req.Accounts["pools"]
	if !ok {
		t.Fatal("expected a \"pools\" account filter")
	}
	if len(filter.Account) != 2 {
		t.Fatalf("Account filter len = %d, want 2", len(filter.Account))
	}
	if _, ok := req.Slots["slots"]; !ok {
		t.Error("expected a \"slots\" filter")
	}
	if req.Commitment == nil {
		t.Fatal("expected a commitment level to be set")
	}
}

func TestGeyserStream_CloseIsIdempotent(t *testing.T) {
	g := NewGeyserStream(GeyserConfig{Reconnect: DefaultReconnectConfig()}, NewDispatcher(), zap.NewNop(), nil, nil, nil, nil)

	g.Close()
	g.Close() // must not panic on double-close

	if g.State() != StateClosed {
		t.Errorf("State() = %v, want StateClosed", g.State())
	}
}
