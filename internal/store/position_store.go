package store

// position_store.go - persistence for models.HFTPosition (spec §4.6
// "register a HFT Position"... "removes the position"). Satisfies
// internal/sniper.PositionStore. Query/Scan shape grounded on
// order_repository.go's Create/UpdateStatus/Delete trio.

import (
	"context"
	"database/sql"

	"solexec/internal/models"
)

// PositionStore is the Data Access Layer for the hft_positions table.
type PositionStore struct {
	db *sql.DB
}

// NewPositionStore wraps a *sql.DB.
func NewPositionStore(db *sql.DB) *PositionStore {
	return &PositionStore{db: db}
}

// SavePosition inserts a freshly-confirmed position.
func (s *PositionStore) SavePosition(ctx context.Context, pos *models.HFTPosition) error {
	query := `
		INSERT INTO hft_positions (mint, symbol, sol_spent, tokens_received, entry_price_sol, entry_time, deadline, signature, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (mint) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query,
		pos.Mint, pos.Symbol, pos.SolSpent, pos.TokensReceived, pos.EntryPriceSOL, pos.EntryTime, pos.Deadline, pos.Signature, pos.Status,
	)
	return err
}

// UpdatePosition rewrites the monitor-loop-mutable fields of a position.
func (s *PositionStore) UpdatePosition(ctx context.Context, pos *models.HFTPosition) error {
	query := `
		UPDATE hft_positions
		SET peak_pnl_pct = $1, current_pnl_pct = $2, status = $3, sold_at = $4, sell_reason = $5
		WHERE mint = $6`

	_, err := s.db.ExecContext(ctx, query, pos.PeakPnlPct, pos.CurrentPnlPct, pos.Status, pos.SoldAt, pos.SellReason, pos.Mint)
	return err
}

// DeletePosition removes a closed position.
func (s *PositionStore) DeletePosition(ctx context.Context, mint string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM hft_positions WHERE mint = $1`, mint)
	return err
}

// GetOpen returns every position not yet sold, used to repopulate the
// monitor's in-memory set after a process restart.
func (s *PositionStore) GetOpen(ctx context.Context) ([]models.HFTPosition, error) {
	query := `
		SELECT mint, symbol, sol_spent, tokens_received, entry_price_sol, entry_time, deadline, peak_pnl_pct, current_pnl_pct, signature, status
		FROM hft_positions
		WHERE status = $1 OR status = $2`

	rows, err := s.db.QueryContext(ctx, query, models.HFTStatusMonitoring, models.HFTStatusSelling)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []models.HFTPosition
	for rows.Next() {
		var p models.HFTPosition
		if err := rows.Scan(&p.Mint, &p.Symbol, &p.SolSpent, &p.TokensReceived, &p.EntryPriceSOL, &p.EntryTime, &p.Deadline,
			&p.PeakPnlPct, &p.CurrentPnlPct, &p.Signature, &p.Status); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}
