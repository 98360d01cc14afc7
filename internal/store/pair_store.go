package store

// pair_store.go - persistence for models.MonitoredPair (spec §3
// "Arbitrage Monitored Pair"), the relational layer the pipeline core
// reads and reloads from (SPEC_FULL §11) even though owning it is out of
// scope (spec §1). Query/Scan shape grounded verbatim on the teacher's
// internal/repository/order_repository.go; CRUD surface grounded on the
// intended shape described in internal/repository/pair_repository.go's
// TODO comment, which the teacher itself never filled in.

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"solexec/internal/models"
)

// ErrPairNotFound is returned when a lookup by ID finds no row.
var ErrPairNotFound = errors.New("monitored pair not found")

// PairStore is the Data Access Layer for the monitored_pairs table.
type PairStore struct {
	db *sql.DB
}

// NewPairStore wraps a *sql.DB.
func NewPairStore(db *sql.DB) *PairStore {
	return &PairStore{db: db}
}

// Create inserts a new monitored pair, defaulting Status to paused.
func (s *PairStore) Create(ctx context.Context, pair *models.MonitoredPair) error {
	query := `
		INSERT INTO monitored_pairs (input_mint, output_mint, input_symbol, output_symbol, amount, status, trades_count, total_pnl, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	now := time.Now()
	pair.CreatedAt = now
	pair.UpdatedAt = now
	if pair.Status == "" {
		pair.Status = models.PairStatusPaused
	}

	return s.db.QueryRowContext(ctx, query,
		pair.InputMint, pair.OutputMint, pair.InputSymbol, pair.OutputSymbol,
		pair.Amount, pair.Status, pair.TradesCount, pair.TotalPnl, pair.CreatedAt, pair.UpdatedAt,
	).Scan(&pair.ID)
}

// GetByID returns one pair by ID.
func (s *PairStore) GetByID(ctx context.Context, id int) (*models.MonitoredPair, error) {
	query := `
		SELECT id, input_mint, output_mint, input_symbol, output_symbol, amount, status, trades_count, total_pnl, created_at, updated_at
		FROM monitored_pairs
		WHERE id = $1`

	pair := &models.MonitoredPair{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&pair.ID, &pair.InputMint, &pair.OutputMint, &pair.InputSymbol, &pair.OutputSymbol,
		&pair.Amount, &pair.Status, &pair.TradesCount, &pair.TotalPnl, &pair.CreatedAt, &pair.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPairNotFound
		}
		return nil, err
	}
	return pair, nil
}

// GetAll returns every monitored pair.
func (s *PairStore) GetAll(ctx context.Context) ([]models.MonitoredPair, error) {
	return s.query(ctx, `
		SELECT id, input_mint, output_mint, input_symbol, output_symbol, amount, status, trades_count, total_pnl, created_at, updated_at
		FROM monitored_pairs
		ORDER BY id`)
}

// GetActive returns only pairs with Status == active, the set the scan
// loop actually iterates (spec §4.5 "PairProvider").
func (s *PairStore) GetActive(ctx context.Context) ([]models.MonitoredPair, error) {
	return s.query(ctx, `
		SELECT id, input_mint, output_mint, input_symbol, output_symbol, amount, status, trades_count, total_pnl, created_at, updated_at
		FROM monitored_pairs
		WHERE status = 'active'
		ORDER BY id`)
}

func (s *PairStore) query(ctx context.Context, query string, args ...interface{}) ([]models.MonitoredPair, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []models.MonitoredPair
	for rows.Next() {
		var pair models.MonitoredPair
		if err := rows.Scan(
			&pair.ID, &pair.InputMint, &pair.OutputMint, &pair.InputSymbol, &pair.OutputSymbol,
			&pair.Amount, &pair.Status, &pair.TradesCount, &pair.TotalPnl, &pair.CreatedAt, &pair.UpdatedAt,
		); err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, rows.Err()
}

// Update rewrites a pair's mutable config fields (amount, symbols);
// status/trades_count/total_pnl have their own dedicated setters.
func (s *PairStore) Update(ctx context.Context, pair *models.MonitoredPair) error {
	query := `
		UPDATE monitored_pairs
		SET input_mint = $1, output_mint = $2, input_symbol = $3, output_symbol = $4, amount = $5, updated_at = $6
		WHERE id = $7`

	pair.UpdatedAt = time.Now()
	result, err := s.db.ExecContext(ctx, query, pair.InputMint, pair.OutputMint, pair.InputSymbol, pair.OutputSymbol, pair.Amount, pair.UpdatedAt, pair.ID)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, ErrPairNotFound)
}

// UpdateStatus flips a pair between paused/active.
func (s *PairStore) UpdateStatus(ctx context.Context, id int, status string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE monitored_pairs SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now(), id)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, ErrPairNotFound)
}

// IncrementTrades bumps the local trade counter after a strike completes.
func (s *PairStore) IncrementTrades(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, `UPDATE monitored_pairs SET trades_count = trades_count + 1, updated_at = $1 WHERE id = $2`, time.Now(), id)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, ErrPairNotFound)
}

// UpdatePnl adds delta to the pair's running PNL total.
func (s *PairStore) UpdatePnl(ctx context.Context, id int, delta float64) error {
	result, err := s.db.ExecContext(ctx, `UPDATE monitored_pairs SET total_pnl = total_pnl + $1, updated_at = $2 WHERE id = $3`, delta, time.Now(), id)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, ErrPairNotFound)
}

// Delete removes a pair.
func (s *PairStore) Delete(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM monitored_pairs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, ErrPairNotFound)
}

func checkRowsAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
