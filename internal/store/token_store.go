package store

// token_store.go - persistence for models.DetectedToken (spec §4.6
// "Persist the detected token"). Satisfies internal/sniper.TokenStore.
// Query/Scan shape grounded on order_repository.go; socials persisted as
// JSON the same way settings_store.go persists NotificationPreferences.

import (
	"context"
	"database/sql"
	"encoding/json"

	"solexec/internal/models"
)

// TokenStore is the Data Access Layer for the detected_tokens table.
type TokenStore struct {
	db *sql.DB
}

// NewTokenStore wraps a *sql.DB.
func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db}
}

// SaveDetectedToken upserts by mint (a detector restart should not
// duplicate a token it already saw and persisted).
func (s *TokenStore) SaveDetectedToken(ctx context.Context, token *models.DetectedToken) error {
	socialsJSON, err := json.Marshal(token.Socials)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO detected_tokens (mint, symbol, name, dex, pool_address, initial_liquidity_sol, is_rug, mint_authority, freeze_authority, socials, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (mint) DO UPDATE SET
			pool_address = EXCLUDED.pool_address,
			initial_liquidity_sol = EXCLUDED.initial_liquidity_sol`

	_, err = s.db.ExecContext(ctx, query,
		token.Mint, token.Symbol, token.Name, token.Dex, token.PoolAddress, token.InitialLiquiditySOL,
		token.IsRug, token.MintAuthority, token.FreezeAuthority, socialsJSON, token.DetectedAt,
	)
	return err
}

// GetRecent returns the last limit detected tokens, most recent first.
func (s *TokenStore) GetRecent(ctx context.Context, limit int) ([]models.DetectedToken, error) {
	query := `
		SELECT mint, symbol, name, dex, pool_address, initial_liquidity_sol, is_rug, mint_authority, freeze_authority, socials, detected_at
		FROM detected_tokens
		ORDER BY detected_at DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []models.DetectedToken
	for rows.Next() {
		var t models.DetectedToken
		var socialsJSON []byte
		if err := rows.Scan(&t.Mint, &t.Symbol, &t.Name, &t.Dex, &t.PoolAddress, &t.InitialLiquiditySOL,
			&t.IsRug, &t.MintAuthority, &t.FreezeAuthority, &socialsJSON, &t.DetectedAt); err != nil {
			return nil, err
		}
		if len(socialsJSON) > 0 {
			if err := json.Unmarshal(socialsJSON, &t.Socials); err != nil {
				return nil, err
			}
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
