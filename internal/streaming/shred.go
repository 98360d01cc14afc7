package streaming

import (
	"context"
	"io"
	"time"

	pb "github.com/jito-labs/shredstream-proxy/proto"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"solexec/internal/metrics"
	"solexec/internal/xerr"
)

// ShredConfig configures a ShredStream.
type ShredConfig struct {
	Endpoint  string
	Reconnect ReconnectConfig
}

// ShredStream subscribes to the shred-stream proxy's pre-execution
// transaction feed (spec §4.1), surfacing transactions before they land
// so the sniper's fast path can react to a pending mint/LP-init before
// the slower Geyser account-update confirms it. Same reconnect shape as
// GeyserStream.
type ShredStream struct {
	cfg        ShredConfig
	dispatcher *Dispatcher
	log        *zap.Logger

	state connState
	onEntry ShredHandler

	stop chan struct{}
}

// NewShredStream constructs a ShredStream. Call Run in its own goroutine.
func NewShredStream(cfg ShredConfig, dispatcher *Dispatcher, log *zap.Logger, onEntry ShredHandler) *ShredStream {
	return &ShredStream{
		cfg:        cfg,
		dispatcher: dispatcher,
		log:        log,
		onEntry:    onEntry,
		stop:       make(chan struct{}),
	}
}

// Run connects and reconnects the shred stream until Close is called.
func (s *ShredStream) Run(ctx context.Context) {
	delay := s.cfg.Reconnect.InitialDelay
	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		s.state.Store(StateConnecting)
		metrics.SetStreamConnected("shred", false)

		resetDelay := func() { delay = s.cfg.Reconnect.InitialDelay }
		if err := s.connectAndStream(ctx, resetDelay); err != nil {
			metrics.RecordStreamError("shred", xerr.KindString(err))
			s.log.Warn("shred stream ended", zap.Error(err), zap.Duration("retry_in", delay))
			metrics.StreamReconnects.WithLabelValues("shred").Inc()
		}

		s.state.Store(StateReconnecting)
		metrics.SetStreamConnected("shred", false)

		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = nextDelay(delay, s.cfg.Reconnect)
	}
}

func (s *ShredStream) connectAndStream(ctx context.Context, onFirstUpdate func()) error {
	pingInterval := s.cfg.Reconnect.PingInterval
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}

	conn, err := grpc.NewClient(s.cfg.Endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                pingInterval,
			Timeout:             10 * time.Second,
			PermitWithoutStream: true,
		}),
	)
	if err != nil {
		return xerr.Transientf("shred", err, "dial %s", s.cfg.Endpoint)
	}
	defer conn.Close()

	client := pb.NewShredstreamProxyClient(conn)

	stream, err := client.SubscribeEntries(ctx, &pb.SubscribeEntriesRequest{})
	if err != nil {
		return xerr.Transientf("shred", err, "subscribe entries")
	}

	s.state.Store(StateConnected)
	metrics.SetStreamConnected("shred", true)
	s.log.Info("shred stream connected")

	firstUpdate := true
	for {
		entry, err := stream.Recv()
		if err == io.EOF {
			return xerr.New(xerr.Transient, "shred", "stream closed by server", err)
		}
		if err != nil {
			return xerr.Transientf("shred", err, "recv")
		}

		if firstUpdate {
			firstUpdate = false
			onFirstUpdate()
		}

		if s.onEntry == nil {
			continue
		}
		se := ShredEntry{
			Slot:         entry.GetSlot(),
			Transactions: entry.GetEntries(),
			ObservedAt:   time.Now(),
		}
		handler := s.onEntry
		s.dispatcher.Submit(func() {
			metrics.RecordStreamUpdate("shred", "entry")
			handler(se)
		})
	}
}

// Close stops Run.
func (s *ShredStream) Close() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	s.state.Store(StateClosed)
}

// State reports the current connection state.
func (s *ShredStream) State() ConnState { return s.state.Load() }
