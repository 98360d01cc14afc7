package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	_ "github.com/lib/pq"

	"solexec/internal/aggregator"
	"solexec/internal/arb"
	"solexec/internal/bundle"
	"solexec/internal/cache"
	"solexec/internal/config"
	"solexec/internal/events"
	"solexec/internal/jito"
	"solexec/internal/models"
	"solexec/internal/orca"
	"solexec/internal/raydium"
	"solexec/internal/router"
	"solexec/internal/signer"
	"solexec/internal/sniper"
	"solexec/internal/store"
	"solexec/internal/streaming"
	"solexec/internal/whale"
	"solexec/pkg/utils"
)

// pairsRefreshInterval is how often the in-memory pair snapshot is
// re-read from the database, since pair CRUD happens out-of-process
// (spec §1 Non-goals: no trading API lives in this server).
const pairsRefreshInterval = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := utils.InitGlobalLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	defer log.Sync()
	zlog := log.Logger

	db, err := initDatabase(cfg)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	zlog.Info("connected to database")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pairStore := store.NewPairStore(db)
	settingsStore := store.NewSettingsStore(db)
	tokenStore := store.NewTokenStore(db)
	positionStore := store.NewPositionStore(db)
	blocklistStore := store.NewBlocklistStore(db)

	initialSettings, err := settingsStore.Get(ctx)
	if err != nil {
		zlog.Fatal("failed to load initial settings", zap.Error(err))
	}

	sgn, err := signer.Load(cfg.Signer.KeyPath, []byte(cfg.Security.EncryptionKey))
	if err != nil {
		zlog.Fatal("failed to load signer key", zap.Error(err))
	}
	feePayer := sgn.PublicKey()

	settingsHolder := newSettingsHolder(initialSettings)
	go settingsHolder.run(ctx, settingsStore, zlog)

	pairsHolder := newPairsHolder()
	go pairsHolder.run(ctx, pairStore, zlog)

	// Caches (spec §3/§4.2/§4.4).
	blockhashCache := cache.NewBlockhashCache()
	tipFloorCache := cache.NewTipFloorCache()
	priceCache := cache.NewPriceCache()
	orcaMap := cache.NewOrcaPoolMap()

	var currentSlot atomic.Uint64
	slotProvider := func() uint64 { return currentSlot.Load() }

	// RPC clients (spec §5 "RPC fallbacks"; staked URL preferred for
	// reserve polls, falling back to the public endpoint).
	pollRPCURL := cfg.RPC.StakedURL
	if pollRPCURL == "" {
		pollRPCURL = cfg.RPC.FallbackURL
	}
	pollClient := rpc.New(pollRPCURL)
	fallbackClient := rpc.New(cfg.RPC.FallbackURL)

	// Venue clients.
	orcaClient := orca.New(cfg.Orca.SidecarURL)
	defer orcaClient.Close()
	aggClient := aggregator.New(cfg.Aggregator.URL, cfg.Aggregator.APIKey)
	defer aggClient.Close()
	tipFloorClient := jito.NewTipFloorClient(cfg.Relay.TipFloorURL)
	defer tipFloorClient.Close()

	// Raydium pool registry (spec §4.3).
	// pairsHolder loads in the background and may still be empty here, so
	// the pairs to discover are read from the store directly.
	activePairs, err := pairStore.GetActive(ctx)
	if err != nil {
		zlog.Warn("loading active pairs for pool discovery failed", zap.Error(err))
	}
	registry := raydium.NewRegistry(
		raydium.NewRPCAccountFetcher(pollClient),
		raydium.NewHTTPPoolsAPIClient(cfg.Raydium.PoolsAPIURL),
		zlog,
		activePairs,
	)
	for _, pair := range activePairs {
		if err := registry.Discover(ctx, pair.InputMint, pair.OutputMint); err != nil {
			zlog.Warn("initial pool discovery failed", zap.String("pair", pair.InputSymbol+"/"+pair.OutputSymbol), zap.Error(err))
		}
	}
	go registry.Run(ctx)

	hub := events.NewHub(zlog)
	go hub.Run()

	venueRouter := router.New(registry, orcaMap, orcaClient, aggClient, zlog)
	bundleExecutor := bundle.New(cfg.Relay.URL, sgn)

	// Streaming fabric (spec §4.1).
	dispatcher := streaming.NewDispatcher()
	onSlot := func(u streaming.SlotUpdate) {
		currentSlot.Store(u.Slot)
		blockhashCache.UpdateSlot(u.Slot)
	}
	onBlockMeta := func(u streaming.BlockMetaUpdate) {
		hash, err := solana.HashFromBase58(u.Blockhash)
		if err != nil {
			zlog.Warn("decoding block_meta blockhash", zap.Error(err))
			return
		}
		blockhashCache.Update(models.BlockhashEntry{
			Blockhash:            hash,
			LastValidBlockHeight: u.BlockHeight + 150,
			ObservedSlot:         u.Slot,
		})
	}
	geyser := streaming.NewGeyserStream(
		streaming.GeyserConfig{
			Endpoint:            cfg.Streaming.GeyserEndpoint,
			BearerToken:         cfg.Streaming.BearerToken,
			MaxMsgBytes:         cfg.Streaming.MaxMessageSizeBytes,
			Reconnect:           streaming.DefaultReconnectConfig(),
		},
		dispatcher, zlog, registry.VaultAddresses(),
		registry.AttachStreaming(), onSlot, onBlockMeta,
	)
	go geyser.Run(ctx)

	if cfg.Streaming.ShredEndpoint != "" {
		shred := streaming.NewShredStream(
			streaming.ShredConfig{Endpoint: cfg.Streaming.ShredEndpoint, Reconnect: streaming.DefaultReconnectConfig()},
			dispatcher, zlog, nil,
		)
		go shred.Run(ctx)
	}

	go pollTipFloor(ctx, tipFloorClient, tipFloorCache, zlog)

	// Arbitrage scanner/executor (spec §4.5).
	solOracle := arb.NewSOLPriceOracle(aggClient, zlog)
	go solOracle.Run(ctx)

	arbExecutor := arb.NewExecutor(venueRouter, blockhashCache, tipFloorCache, bundleExecutor, sgn, hub, zlog, slotProvider)
	scanner := arb.NewScanner(
		registry, orcaMap, orcaClient, solOracle, arbExecutor, hub, zlog,
		pairsHolder.get, settingsHolder.get, slotProvider, feePayer,
	)
	go scanner.Run(ctx)

	// Sniper/HFT pipeline (spec §4.6).
	validator := sniper.NewValidator(blocklistStore.IsBlocklisted, nil)
	monitor := sniper.NewMonitor(
		positionStore, priceCache,
		sniper.NewRPCBondingCurveSource(pollClient),
		sniper.NewExternalPriceClient(cfg.Sniper.PriceAPIURL),
		venueRouter, bundleExecutor, blockhashCache, tipFloorCache, sgn,
		hub, zlog, settingsHolder.get, slotProvider,
	)
	go monitor.Run(ctx)

	sniperDetector := sniper.NewDetector(
		sniper.NewRPCSignatureSource(fallbackClient),
		sniper.NewDASAssetFetcher(cfg.RPC.FallbackURL),
		validator, tokenStore,
		venueRouter, bundleExecutor, blockhashCache, tipFloorCache, sgn,
		monitor, hub, zlog, settingsHolder.get, slotProvider, feePayer,
		initialSettings.CircuitBreakerMax,
	)
	go sniperDetector.Run(ctx)

	// Whale-swap notifier (spec §3/§12; read-only, never executes).
	whaleDetector := whale.NewDetector(
		whale.NewRPCSignatureSource(fallbackClient), registry,
		initialSettings.MinLiquiditySOL*10, hub, zlog,
	)
	go whaleDetector.Run(ctx)

	// Minimal operational HTTP surface (SPEC_FULL §11): health, metrics,
	// and the event-stream WebSocket upgrade. No trading REST API.
	httpRouter := mux.NewRouter()
	httpRouter.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	httpRouter.Handle("/metrics", promhttp.Handler())
	httpRouter.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		events.ServeWS(hub, zlog, w, r)
	})

	server := &http.Server{
		Addr:         ":8090",
		Handler:      httpRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info("starting HTTP server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down")

	cancel()
	registry.Stop()
	scanner.Stop()
	solOracle.Stop()
	monitor.Stop()
	sniperDetector.Stop()
	whaleDetector.Stop()
	hub.Stop()
	dispatcher.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	zlog.Info("server exited")
}

func initDatabase(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User,
		cfg.Database.Password, cfg.Database.Name, cfg.Database.SSLMode,
	)

	db, err := sql.Open(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

// settingsHolder caches the latest hot-reloadable settings snapshot read
// off store.SettingsStore.Watch, so every detector's SettingsProvider is
// a lock-free read (SPEC_FULL §14).
type settingsHolder struct {
	v atomic.Value // models.RuntimeSettings
}

func newSettingsHolder(initial models.RuntimeSettings) *settingsHolder {
	h := &settingsHolder{}
	h.v.Store(initial)
	return h
}

func (h *settingsHolder) get() models.RuntimeSettings { return h.v.Load().(models.RuntimeSettings) }

func (h *settingsHolder) run(ctx context.Context, ss *store.SettingsStore, log *zap.Logger) {
	for settings := range ss.Watch(ctx) {
		log.Info("settings reloaded", zap.Float64("scan_interval_seconds", settings.ScanIntervalSeconds))
		h.v.Store(settings)
	}
}

// pairsHolder caches the active monitored-pair list, refreshed on a
// timer since pair CRUD lives outside this process (spec §1 Non-goals).
type pairsHolder struct {
	v atomic.Value // []models.MonitoredPair
}

func newPairsHolder() *pairsHolder {
	h := &pairsHolder{}
	h.v.Store([]models.MonitoredPair{})
	return h
}

func (h *pairsHolder) get() []models.MonitoredPair { return h.v.Load().([]models.MonitoredPair) }

func (h *pairsHolder) run(ctx context.Context, ps *store.PairStore, log *zap.Logger) {
	refresh := func() {
		pairs, err := ps.GetActive(ctx)
		if err != nil {
			log.Warn("refreshing active pairs failed, keeping last snapshot", zap.Error(err))
			return
		}
		h.v.Store(pairs)
	}

	refresh()
	ticker := time.NewTicker(pairsRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}

func pollTipFloor(ctx context.Context, client *jito.TipFloorClient, tipFloor *cache.TipFloorCache, log *zap.Logger) {
	const interval = 10 * time.Second
	poll := func() {
		snap, err := client.Fetch(ctx)
		if err != nil {
			log.Warn("tip floor poll failed, keeping last snapshot", zap.Error(err))
			return
		}
		tipFloor.Update(snap)
	}

	poll()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll()
		}
	}
}
