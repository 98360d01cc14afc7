package raydium

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solexec/internal/models"
	"solexec/internal/streaming"
	"solexec/internal/xerr"
)

const (
	maintenanceInterval   = 10 * time.Second
	rediscoveryInterval   = 5 * time.Minute
	staleRefreshThreshold = 30 * time.Second
)

// AccountFetcher is the minimal RPC surface the registry needs: raw
// account bytes for a pubkey. RPCAccountFetcher (rpcclient.go) is the
// production implementation over *rpc.Client; tests substitute a fake.
type AccountFetcher interface {
	GetAccountData(ctx context.Context, account solana.PublicKey) ([]byte, error)
}

// entry wraps one pool's state behind its own lock, mirroring the
// teacher's per-PositionKey locking in bot/engine.go (SPEC_FULL §14:
// "one sync.RWMutex per pool entry stored in a sync.Map").
type entry struct {
	mu    sync.RWMutex
	state models.PoolState
}

// Registry is the Raydium V4 pool registry (spec §4.3): discovery,
// periodic maintenance, and a streaming reserve-update path, all backed by
// a sync.Map of per-pool locked entries.
type Registry struct {
	pools      sync.Map // pool address string -> *entry
	byVault    sync.Map // vault address string -> poolVaultRef
	byPairKey  sync.Map // models.PairKey -> pool address string

	fetcher AccountFetcher
	vendor  PoolsAPIClient
	log     *zap.Logger

	pairs []models.MonitoredPair

	stop chan struct{}
}

type poolVaultRef struct {
	poolAddress string
	isCoin      bool
}

// NewRegistry builds a registry; call Discover once at startup for each
// configured pair, then Run to start the maintenance loops.
func NewRegistry(fetcher AccountFetcher, vendor PoolsAPIClient, log *zap.Logger, pairs []models.MonitoredPair) *Registry {
	return &Registry{
		fetcher: fetcher,
		vendor:  vendor,
		log:     log,
		pairs:   pairs,
		stop:    make(chan struct{}),
	}
}

// Discover runs spec §4.3's discovery sequence for one mint pair: query
// the vendor, fetch + parse the pool and market accounts, derive the
// vault-signer PDA, fetch initial vault balances, install and index the
// assembled pool both directions.
func (r *Registry) Discover(ctx context.Context, mintA, mintB string) error {
	hit, err := r.vendor.TopPool(ctx, mintA, mintB)
	if err != nil {
		return err
	}

	poolAddr, err := solana.PublicKeyFromBase58(hit.PoolAddress)
	if err != nil {
		return xerr.New(xerr.ParseMismatch, "raydium_registry", "vendor returned an invalid pool address", err)
	}

	poolAccountData, err := r.fetchAccountData(ctx, poolAddr)
	if err != nil {
		return err
	}
	pool, err := ParsePoolAccount(poolAddr, poolAccountData)
	if err != nil {
		return err
	}

	marketAccountData, err := r.fetchAccountData(ctx, pool.Market)
	if err != nil {
		return err
	}
	market, err := ParseMarketAccount(marketAccountData)
	if err != nil {
		return err
	}
	pool.MarketBaseVault = market.BaseVault
	pool.MarketQuoteVault = market.QuoteVault
	pool.MarketEventQueue = market.EventQueue
	pool.MarketBids = market.Bids
	pool.MarketAsks = market.Asks

	vaultSigner, err := DeriveVaultSigner(pool.Market, market.VaultSignerNonce, r.log)
	if err != nil {
		return err
	}
	pool.MarketVaultSigner = vaultSigner

	coinBalance, err := r.fetchVaultBalance(ctx, pool.PoolCoinTokenAccount)
	if err != nil {
		return err
	}
	pcBalance, err := r.fetchVaultBalance(ctx, pool.PoolPcTokenAccount)
	if err != nil {
		return err
	}
	pool.CoinReserve = coinBalance
	pool.PcReserve = pcBalance
	pool.LastUpdateTime = time.Now()

	r.install(pool)
	return nil
}

// install places pool into the registry and indexes it by pair key (both
// directions) and by vault address.
func (r *Registry) install(pool *models.PoolState) {
	e := &entry{state: *pool}
	addr := pool.PoolAddress.String()
	r.pools.Store(addr, e)

	r.byVault.Store(pool.PoolCoinTokenAccount.String(), poolVaultRef{poolAddress: addr, isCoin: true})
	r.byVault.Store(pool.PoolPcTokenAccount.String(), poolVaultRef{poolAddress: addr, isCoin: false})

	key := models.NewPairKey(pool.CoinMint, pool.PcMint)
	r.byPairKey.Store(key, addr)
}

// KnownPools returns a snapshot of every pool currently installed, for
// consumers that watch the registered set rather than one pair (the
// whale-swap detector's "already-registered Raydium pools" scope).
func (r *Registry) KnownPools() []models.PoolState {
	var out []models.PoolState
	r.pools.Range(func(_, v interface{}) bool {
		e := v.(*entry)
		e.mu.RLock()
		out = append(out, e.state)
		e.mu.RUnlock()
		return true
	})
	return out
}

// Get returns a copy of the current state for the pool known by the
// unordered mint pair, or ok=false if not yet discovered.
func (r *Registry) Get(mintA, mintB solana.PublicKey) (models.PoolState, bool) {
	addrVal, ok := r.byPairKey.Load(models.NewPairKey(mintA, mintB))
	if !ok {
		return models.PoolState{}, false
	}
	e, ok := r.pools.Load(addrVal)
	if !ok {
		return models.PoolState{}, false
	}
	ent := e.(*entry)
	ent.mu.RLock()
	defer ent.mu.RUnlock()
	return ent.state, true
}

// IsFresh reports whether the pool's reserves are within the staleness
// guard (spec §4.3 "current_slot - last_update_slot <= 50").
func IsFresh(pool models.PoolState, currentSlot uint64) bool {
	return !pool.IsStale(currentSlot)
}

// VaultAddresses returns every vault address currently tracked, for
// building the Geyser account-filter subscription list (spec §4.1
// "account-update subscriptions... for Raydium pool vaults").
func (r *Registry) VaultAddresses() []string {
	var out []string
	r.byVault.Range(func(k, _ interface{}) bool {
		out = append(out, k.(string))
		return true
	})
	return out
}

// AttachStreaming wires vault-address subscriptions into a dispatcher's
// handler set (spec §4.3 "streaming path"). Called once all pools of
// interest are installed.
func (r *Registry) AttachStreaming() streaming.AccountHandler {
	return func(update streaming.AccountUpdate) {
		refVal, ok := r.byVault.Load(update.Pubkey)
		if !ok {
			return
		}
		ref := refVal.(poolVaultRef)

		balance, err := ParseTokenAccountBalance(update.Data)
		if err != nil {
			r.log.Debug("skipping malformed vault update", zap.String("vault", update.Pubkey), zap.Error(err))
			return
		}

		eVal, ok := r.pools.Load(ref.poolAddress)
		if !ok {
			return
		}
		e := eVal.(*entry)
		e.mu.Lock()
		if ref.isCoin {
			e.state.CoinReserve = balance
		} else {
			e.state.PcReserve = balance
		}
		e.state.LastUpdateSlot = update.Slot
		e.state.LastUpdateTime = time.Now()
		e.mu.Unlock()
	}
}

// Run starts the 10s poll-refresh loop and the 5min re-discovery loop
// (spec §4.3 "Maintenance loop"). Blocks until ctx is done or Stop is
// called.
func (r *Registry) Run(ctx context.Context) {
	maintTicker := time.NewTicker(maintenanceInterval)
	rediscoverTicker := time.NewTicker(rediscoveryInterval)
	defer maintTicker.Stop()
	defer rediscoverTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-maintTicker.C:
			r.refreshStalePools(ctx)
		case <-rediscoverTicker.C:
			r.rediscoverAll(ctx)
		}
	}
}

// Stop terminates Run.
func (r *Registry) Stop() {
	close(r.stop)
}

func (r *Registry) refreshStalePools(ctx context.Context) {
	r.pools.Range(func(_, v interface{}) bool {
		e := v.(*entry)
		e.mu.RLock()
		stale := time.Since(e.state.LastUpdateTime) > staleRefreshThreshold
		coinVault := e.state.PoolCoinTokenAccount
		pcVault := e.state.PoolPcTokenAccount
		e.mu.RUnlock()
		if !stale {
			return true
		}

		coinBalance, err := r.fetchVaultBalance(ctx, coinVault)
		if err != nil {
			r.log.Warn("poll-refresh failed for coin vault", zap.String("vault", coinVault.String()), zap.Error(err))
			return true
		}
		pcBalance, err := r.fetchVaultBalance(ctx, pcVault)
		if err != nil {
			r.log.Warn("poll-refresh failed for pc vault", zap.String("vault", pcVault.String()), zap.Error(err))
			return true
		}

		e.mu.Lock()
		e.state.CoinReserve = coinBalance
		e.state.PcReserve = pcBalance
		e.state.LastUpdateTime = time.Now()
		e.mu.Unlock()
		return true
	})
}

func (r *Registry) rediscoverAll(ctx context.Context) {
	for _, pair := range r.pairs {
		if err := r.Discover(ctx, pair.InputMint, pair.OutputMint); err != nil {
			r.log.Warn("re-discovery failed", zap.String("input_mint", pair.InputMint), zap.String("output_mint", pair.OutputMint), zap.Error(err))
		}
	}
}

func (r *Registry) fetchAccountData(ctx context.Context, addr solana.PublicKey) ([]byte, error) {
	data, err := r.fetcher.GetAccountData(ctx, addr)
	if err != nil {
		return nil, xerr.Transientf("raydium_registry", err, "fetching account %s", addr)
	}
	if data == nil {
		return nil, xerr.New(xerr.ParseMismatch, "raydium_registry", "account not found: "+addr.String(), nil)
	}
	return data, nil
}

func (r *Registry) fetchVaultBalance(ctx context.Context, vault solana.PublicKey) (uint64, error) {
	data, err := r.fetchAccountData(ctx, vault)
	if err != nil {
		return 0, err
	}
	return ParseTokenAccountBalance(data)
}
