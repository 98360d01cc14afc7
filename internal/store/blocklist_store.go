package store

// blocklist_store.go - persistence for models.BlocklistEntry (spec §4.6
// safety validator "token blocklist" check). Adapted near-verbatim from
// the teacher's internal/repository/blacklist_repository.go: same CRUD
// surface, same unique-violation detection, keyed on mint instead of an
// uppercased CEX symbol (a mint address has no case-folding convention).

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"solexec/internal/models"
)

var (
	ErrBlocklistEntryNotFound = errors.New("blocklist entry not found")
	ErrBlocklistEntryExists   = errors.New("mint already blocklisted")
)

// BlocklistStore is the Data Access Layer for the blocklist table.
type BlocklistStore struct {
	db *sql.DB
}

// NewBlocklistStore wraps a *sql.DB.
func NewBlocklistStore(db *sql.DB) *BlocklistStore {
	return &BlocklistStore{db: db}
}

// Create adds a mint to the blocklist.
func (s *BlocklistStore) Create(ctx context.Context, entry *models.BlocklistEntry) error {
	query := `
		INSERT INTO blocklist (mint, reason, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`

	entry.CreatedAt = time.Now()
	err := s.db.QueryRowContext(ctx, query, entry.Mint, entry.Reason, entry.CreatedAt).Scan(&entry.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrBlocklistEntryExists
		}
		return err
	}
	return nil
}

// GetAll returns the entire blocklist.
func (s *BlocklistStore) GetAll(ctx context.Context) ([]models.BlocklistEntry, error) {
	query := `SELECT id, mint, reason, created_at FROM blocklist ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.BlocklistEntry
	for rows.Next() {
		var e models.BlocklistEntry
		if err := rows.Scan(&e.ID, &e.Mint, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Exists reports whether mint is blocklisted.
func (s *BlocklistStore) Exists(ctx context.Context, mint string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM blocklist WHERE mint = $1)`, mint).Scan(&exists)
	return exists, err
}

// Delete removes a mint from the blocklist.
func (s *BlocklistStore) Delete(ctx context.Context, mint string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM blocklist WHERE mint = $1`, mint)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBlocklistEntryNotFound
	}
	return nil
}

// IsBlocklisted adapts Exists to internal/sniper.BlocklistChecker's
// synchronous function shape; callers should keep a background refresh
// (e.g. polling GetAll into an in-memory set) rather than hit the
// database on every detection — left to the caller wiring this up, since
// the cache policy isn't named anywhere in the corpus.
func (s *BlocklistStore) IsBlocklisted(mint string) bool {
	exists, err := s.Exists(context.Background(), mint)
	return err == nil && exists
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "23505")
}
