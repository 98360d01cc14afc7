// Package streaming is the ingest fabric: two long-lived gRPC
// subscriptions (Geyser account/slot updates, Jito shred-stream
// pre-execution transactions) fanned out to a small worker pool of
// callback dispatchers. Grounded on
// internal/exchange/ws_reconnect.go's WSReconnectManager — same
// atomic int32 connection-state machine and exponential-backoff
// reconnect loop, generalized from a single WebSocket dial to a gRPC
// stream Recv() loop, per the request→recv-loop→typed-callback
// dispatch shape shown in the MetaRPC-GoMT5 streaming examples.
package streaming

import (
	"sync/atomic"
	"time"
)

// ConnState mirrors the teacher's WSConnectionState.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ReconnectConfig mirrors the teacher's WSReconnectConfig.
type ReconnectConfig struct {
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	MaxRetries     int // 0 = unlimited
	ConnectTimeout time.Duration
	PingInterval   time.Duration
}

// DefaultReconnectConfig matches spec §4.1's "reconnect with exponential
// backoff starting at 1s, capped at 60s, uncapped retry count" guidance.
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		InitialDelay:   1 * time.Second,
		MaxDelay:       60 * time.Second,
		MaxRetries:     0,
		ConnectTimeout: 10 * time.Second,
		PingInterval:   30 * time.Second,
	}
}

// connState is an atomic ConnState, shared by geyserStream and
// shredStream.
type connState struct {
	v int32
}

func (c *connState) Load() ConnState      { return ConnState(atomic.LoadInt32(&c.v)) }
func (c *connState) Store(s ConnState)    { atomic.StoreInt32(&c.v, int32(s)) }
func (c *connState) CAS(old, new ConnState) bool {
	return atomic.CompareAndSwapInt32(&c.v, int32(old), int32(new))
}

// nextDelay applies exponential backoff, mirroring the teacher's
// reconnectLoop doubling.
func nextDelay(current time.Duration, cfg ReconnectConfig) time.Duration {
	d := current * 2
	if d > cfg.MaxDelay {
		d = cfg.MaxDelay
	}
	return d
}
