package streaming

import (
	"context"
	"io"
	"time"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"

	"solexec/internal/metrics"
	"solexec/internal/xerr"
)

// GeyserConfig configures a GeyserStream.
type GeyserConfig struct {
	Endpoint    string
	BearerToken string
	MaxMsgBytes int
	Reconnect   ReconnectConfig
}

// GeyserStream owns a single Geyser subscription: one dedicated
// goroutine runs the blocking Recv() loop, mirroring the teacher's
// one-goroutine-per-exchange-WS readPump. Reconnects transparently with
// exponential backoff; decoded updates are handed to the Dispatcher.
type GeyserStream struct {
	cfg        GeyserConfig
	dispatcher *Dispatcher
	log        *zap.Logger

	state connState
	conn  *grpc.ClientConn

	accountFilter []string // program IDs / account keys to subscribe to

	onAccount   AccountHandler
	onSlot      SlotHandler
	onBlockMeta BlockMetaHandler

	stop chan struct{}
}

// NewGeyserStream constructs a GeyserStream. Call Run in its own
// goroutine. onBlockMeta may be nil for callers that don't need
// blockhash updates (e.g. a pool-discovery-only subscription).
func NewGeyserStream(cfg GeyserConfig, dispatcher *Dispatcher, log *zap.Logger, accountFilter []string, onAccount AccountHandler, onSlot SlotHandler, onBlockMeta BlockMetaHandler) *GeyserStream {
	return &GeyserStream{
		cfg:           cfg,
		dispatcher:    dispatcher,
		log:           log,
		accountFilter: accountFilter,
		onAccount:     onAccount,
		onSlot:        onSlot,
		onBlockMeta:   onBlockMeta,
		stop:          make(chan struct{}),
	}
}

// Run connects and reconnects the Geyser stream until Close is called.
func (g *GeyserStream) Run(ctx context.Context) {
	delay := g.cfg.Reconnect.InitialDelay
	for {
		select {
		case <-g.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		g.state.Store(StateConnecting)
		metrics.SetStreamConnected("geyser", false)

		resetDelay := func() { delay = g.cfg.Reconnect.InitialDelay }
		if err := g.connectAndStream(ctx, resetDelay); err != nil {
			metrics.RecordStreamError("geyser", xerr.KindString(err))
			g.log.Warn("geyser stream ended", zap.Error(err), zap.Duration("retry_in", delay))
			metrics.StreamReconnects.WithLabelValues("geyser").Inc()
		}

		g.state.Store(StateReconnecting)
		metrics.SetStreamConnected("geyser", false)

		select {
		case <-g.stop:
			return
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = nextDelay(delay, g.cfg.Reconnect)
	}
}

func (g *GeyserStream) connectAndStream(ctx context.Context, onFirstUpdate func()) error {
	creds := credentials.NewTLS(nil)
	if g.cfg.Endpoint == "" {
		creds = insecure.NewCredentials()
	}

	pingInterval := g.cfg.Reconnect.PingInterval
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}

	conn, err := grpc.NewClient(g.cfg.Endpoint,
		grpc.WithTransportCredentials(creds),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                pingInterval,
			Timeout:             10 * time.Second,
			PermitWithoutStream: true,
		}),
	)
	if err != nil {
		return xerr.Transientf("geyser", err, "dial %s", g.cfg.Endpoint)
	}
	defer conn.Close()
	g.conn = conn

	client := pb.NewGeyserClient(conn)

	streamCtx := ctx
	if g.cfg.BearerToken != "" {
		streamCtx = metadata.AppendToOutgoingContext(ctx, "x-token", g.cfg.BearerToken)
	}

	stream, err := client.Subscribe(streamCtx)
	if err != nil {
		return xerr.Transientf("geyser", err, "open subscribe stream")
	}

	req := buildSubscribeRequest(g.accountFilter)
	if err := stream.Send(req); err != nil {
		return xerr.Transientf("geyser", err, "send subscribe request")
	}

	g.state.Store(StateConnected)
	metrics.SetStreamConnected("geyser", true)
	g.log.Info("geyser stream connected", zap.Int("accounts", len(g.accountFilter)))

	firstUpdate := true
	for {
		update, err := stream.Recv()
		if err == io.EOF {
			return xerr.New(xerr.Transient, "geyser", "stream closed by server", err)
		}
		if err != nil {
			return xerr.Transientf("geyser", err, "recv")
		}

		if firstUpdate {
			firstUpdate = false
			onFirstUpdate()
		}

		g.handleUpdate(update)
	}
}

func (g *GeyserStream) handleUpdate(update *pb.SubscribeUpdate) {
	if acc := update.GetAccount(); acc != nil && g.onAccount != nil {
		info := acc.GetAccount()
		au := AccountUpdate{
			Pubkey:   string(info.GetPubkey()),
			Owner:    string(info.GetOwner()),
			Data:     info.GetData(),
			Slot:     acc.GetSlot(),
			Lamports: info.GetLamports(),
			WriteVer: info.GetWriteVersion(),
			TxSig:    string(info.GetTxnSignature()),
		}
		handler := g.onAccount
		g.dispatcher.Submit(func() {
			metrics.RecordStreamUpdate("geyser", "account")
			handler(au)
		})
		return
	}

	if slot := update.GetSlot(); slot != nil && g.onSlot != nil {
		su := SlotUpdate{
			Slot:   slot.GetSlot(),
			Parent: slot.GetParent(),
			Status: slot.GetStatus().String(),
		}
		handler := g.onSlot
		g.dispatcher.Submit(func() {
			metrics.RecordStreamUpdate("geyser", "slot")
			handler(su)
		})
		return
	}

	if bm := update.GetBlockMeta(); bm != nil && g.onBlockMeta != nil {
		bmu := BlockMetaUpdate{
			Slot:        bm.GetSlot(),
			Blockhash:   bm.GetBlockhash(),
			BlockHeight: bm.GetBlockHeight().GetBlockHeight(),
			ParentSlot:  bm.GetParentSlot(),
		}
		handler := g.onBlockMeta
		g.dispatcher.Submit(func() {
			metrics.RecordStreamUpdate("geyser", "block_meta")
			handler(bmu)
		})
	}
}

// Close stops Run.
func (g *GeyserStream) Close() {
	select {
	case <-g.stop:
	default:
		close(g.stop)
	}
	g.state.Store(StateClosed)
}

// State reports the current connection state.
func (g *GeyserStream) State() ConnState { return g.state.Load() }

func buildSubscribeRequest(accounts []string) *pb.SubscribeRequest {
	filter := &pb.SubscribeRequestFilterAccounts{
		Account: accounts,
	}
	return &pb.SubscribeRequest{
		Accounts:   map[string]*pb.SubscribeRequestFilterAccounts{"pools": filter},
		Slots:      map[string]*pb.SubscribeRequestFilterSlots{"slots": {}},
		BlocksMeta: map[string]*pb.SubscribeRequestFilterBlocksMeta{"blocks": {}},
		Commitment: func() *pb.CommitmentLevel {
			c := pb.CommitmentLevel_PROCESSED
			return &c
		}(),
	}
}
