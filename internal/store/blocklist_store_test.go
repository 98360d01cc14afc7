package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"solexec/internal/models"
)

func TestBlocklistStore_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	entry := &models.BlocklistEntry{Mint: "mint1", Reason: "rug"}
	mock.ExpectQuery(`INSERT INTO blocklist`).
		WithArgs("mint1", "rug", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	if err := NewBlocklistStore(db).Create(context.Background(), entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if entry.ID != 3 {
		t.Errorf("entry.ID = %d, want 3", entry.ID)
	}
}

func TestBlocklistStore_Create_DuplicateMint(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO blocklist`).
		WithArgs("mint1", "rug", sqlmock.AnyArg()).
		WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "blocklist_mint_key" (SQLSTATE 23505)`))

	err = NewBlocklistStore(db).Create(context.Background(), &models.BlocklistEntry{Mint: "mint1", Reason: "rug"})
	if err != ErrBlocklistEntryExists {
		t.Errorf("Create() error = %v, want ErrBlocklistEntryExists", err)
	}
}

func TestBlocklistStore_IsBlocklisted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("mint1").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	if !NewBlocklistStore(db).IsBlocklisted("mint1") {
		t.Error("IsBlocklisted() = false, want true")
	}
}

func TestBlocklistStore_Delete_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM blocklist WHERE mint = \$1`).
		WithArgs("mint1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewBlocklistStore(db).Delete(context.Background(), "mint1")
	if err != ErrBlocklistEntryNotFound {
		t.Errorf("Delete() error = %v, want ErrBlocklistEntryNotFound", err)
	}
}
