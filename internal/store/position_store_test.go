package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"solexec/internal/models"
)

func samplePosition() *models.HFTPosition {
	return &models.HFTPosition{
		Mint: "mint1", Symbol: "FOO", SolSpent: 0.5, TokensReceived: 1000,
		EntryPriceSOL: 0.0005, EntryTime: time.Now(), Deadline: time.Now().Add(time.Hour),
		Signature: "sig1", Status: models.HFTStatusMonitoring,
	}
}

func TestPositionStore_SavePosition(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	pos := samplePosition()
	mock.ExpectExec(`INSERT INTO hft_positions`).
		WithArgs(pos.Mint, pos.Symbol, pos.SolSpent, pos.TokensReceived, pos.EntryPriceSOL, pos.EntryTime, pos.Deadline, pos.Signature, pos.Status).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := NewPositionStore(db).SavePosition(context.Background(), pos); err != nil {
		t.Fatalf("SavePosition() error = %v", err)
	}
}

func TestPositionStore_UpdatePosition(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	pos := samplePosition()
	pos.Status = models.HFTStatusSold
	now := time.Now()
	pos.SoldAt = &now
	pos.SellReason = "take_profit"

	mock.ExpectExec(`UPDATE hft_positions SET`).
		WithArgs(pos.PeakPnlPct, pos.CurrentPnlPct, pos.Status, pos.SoldAt, pos.SellReason, pos.Mint).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewPositionStore(db).UpdatePosition(context.Background(), pos); err != nil {
		t.Fatalf("UpdatePosition() error = %v", err)
	}
}

func TestPositionStore_DeletePosition(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM hft_positions WHERE mint = \$1`).
		WithArgs("mint1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewPositionStore(db).DeletePosition(context.Background(), "mint1"); err != nil {
		t.Fatalf("DeletePosition() error = %v", err)
	}
}

func TestPositionStore_GetOpen(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"mint", "symbol", "sol_spent", "tokens_received", "entry_price_sol", "entry_time", "deadline", "peak_pnl_pct", "current_pnl_pct", "signature", "status"}).
		AddRow("mint1", "FOO", 0.5, uint64(1000), 0.0005, now, now.Add(time.Hour), 10.0, 5.0, "sig1", models.HFTStatusMonitoring)
	mock.ExpectQuery(`SELECT .+ FROM hft_positions WHERE status`).
		WithArgs(models.HFTStatusMonitoring, models.HFTStatusSelling).
		WillReturnRows(rows)

	positions, err := NewPositionStore(db).GetOpen(context.Background())
	if err != nil {
		t.Fatalf("GetOpen() error = %v", err)
	}
	if len(positions) != 1 || positions[0].Mint != "mint1" {
		t.Errorf("GetOpen() = %+v, want one open position", positions)
	}
}
