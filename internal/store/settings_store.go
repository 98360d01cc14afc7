package store

// settings_store.go - persistence for the single models.RuntimeSettings
// row (spec §6 "Runtime settings... stored in the external database and
// reloaded on change"). Query shape grounded on order_repository.go;
// the single-row id=1 convention and the notification-prefs sub-update
// are named directly in the teacher's internal/repository/
// settings_repository.go TODO comment. Watch implements SPEC_FULL §12's
// resolution of "reloaded on change": poll every 5s and diff, the
// teacher's StatsUpdateFreq-style periodic task generalized from a
// ticker-driven stats rollup to a ticker-driven settings reload.

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"solexec/internal/models"
)

const watchInterval = 5 * time.Second

// SettingsStore is the Data Access Layer for the settings table.
type SettingsStore struct {
	db *sql.DB
}

// NewSettingsStore wraps a *sql.DB.
func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the singleton settings row (id = 1).
func (s *SettingsStore) Get(ctx context.Context) (models.RuntimeSettings, error) {
	query := `
		SELECT id, scan_interval_seconds, auto_strike, min_profit_pct,
			sniper_mode, auto_snipe, circuit_breaker_max, min_liquidity_sol, graduated_buy_sol, require_socials,
			fast_buy_sol, max_concurrent_hft, max_hold_seconds, take_profit_pct, stop_loss_pct, auto_sell_slippage_bps,
			graduated_tip_percentile, fast_tip_percentile, user_tip_floor_lamports, default_slippage_bps,
			notification_prefs, updated_at
		FROM settings
		WHERE id = 1`

	var settings models.RuntimeSettings
	var prefsJSON []byte
	err := s.db.QueryRowContext(ctx, query).Scan(
		&settings.ID, &settings.ScanIntervalSeconds, &settings.AutoStrike, &settings.MinProfitPct,
		&settings.SniperMode, &settings.AutoSnipe, &settings.CircuitBreakerMax, &settings.MinLiquiditySOL, &settings.GraduatedBuySOL, &settings.RequireSocials,
		&settings.FastBuySOL, &settings.MaxConcurrentHFT, &settings.MaxHoldSeconds, &settings.TakeProfitPct, &settings.StopLossPct, &settings.AutoSellSlippageBps,
		&settings.GraduatedTipPercentile, &settings.FastTipPercentile, &settings.UserTipFloorLamports, &settings.DefaultSlippageBps,
		&prefsJSON, &settings.UpdatedAt,
	)
	if err != nil {
		return models.RuntimeSettings{}, err
	}
	if len(prefsJSON) > 0 {
		if err := json.Unmarshal(prefsJSON, &settings.NotificationPrefs); err != nil {
			return models.RuntimeSettings{}, err
		}
	}
	return settings, nil
}

// Update rewrites the singleton settings row.
func (s *SettingsStore) Update(ctx context.Context, settings *models.RuntimeSettings) error {
	prefsJSON, err := json.Marshal(settings.NotificationPrefs)
	if err != nil {
		return err
	}
	settings.UpdatedAt = time.Now()

	query := `
		UPDATE settings SET
			scan_interval_seconds = $1, auto_strike = $2, min_profit_pct = $3,
			sniper_mode = $4, auto_snipe = $5, circuit_breaker_max = $6, min_liquidity_sol = $7, graduated_buy_sol = $8, require_socials = $9,
			fast_buy_sol = $10, max_concurrent_hft = $11, max_hold_seconds = $12, take_profit_pct = $13, stop_loss_pct = $14, auto_sell_slippage_bps = $15,
			graduated_tip_percentile = $16, fast_tip_percentile = $17, user_tip_floor_lamports = $18, default_slippage_bps = $19,
			notification_prefs = $20, updated_at = $21
		WHERE id = 1`

	_, err = s.db.ExecContext(ctx, query,
		settings.ScanIntervalSeconds, settings.AutoStrike, settings.MinProfitPct,
		settings.SniperMode, settings.AutoSnipe, settings.CircuitBreakerMax, settings.MinLiquiditySOL, settings.GraduatedBuySOL, settings.RequireSocials,
		settings.FastBuySOL, settings.MaxConcurrentHFT, settings.MaxHoldSeconds, settings.TakeProfitPct, settings.StopLossPct, settings.AutoSellSlippageBps,
		settings.GraduatedTipPercentile, settings.FastTipPercentile, settings.UserTipFloorLamports, settings.DefaultSlippageBps,
		prefsJSON, settings.UpdatedAt,
	)
	return err
}

// UpdateNotificationPrefs rewrites only the notification_prefs column.
func (s *SettingsStore) UpdateNotificationPrefs(ctx context.Context, prefs models.NotificationPreferences) error {
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE settings SET notification_prefs = $1, updated_at = $2 WHERE id = 1`, prefsJSON, time.Now())
	return err
}

// Watch polls Get every five seconds and pushes a copy onto the returned
// channel whenever UpdatedAt advances, so callers get hot-reload without
// this store inventing a pub/sub layer (SPEC_FULL §12). The channel is
// closed when ctx is done.
func (s *SettingsStore) Watch(ctx context.Context) <-chan models.RuntimeSettings {
	out := make(chan models.RuntimeSettings)

	go func() {
		defer close(out)

		var lastSeen time.Time
		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				settings, err := s.Get(ctx)
				if err != nil {
					continue
				}
				if settings.UpdatedAt.After(lastSeen) {
					lastSeen = settings.UpdatedAt
					select {
					case out <- settings.Clone():
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out
}
