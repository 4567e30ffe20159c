package repo

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/inventory-dashboard/internal/domain"
)

// Нужен живой Postgres: TEST_DATABASE_URL=postgres://... go test ./internal/adapter/repo
func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dsn, 4, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("Failed to connect to test DB: %v", err)
	}
	for _, table := range []string{"order_logs", "transactions", "restocks", "inventory", "sync_checkpoints"} {
		if _, err := s.Pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("clean %s: %v", table, err)
		}
	}
	t.Cleanup(s.Close)
	return s
}

func TestPostgresApplyOrderLog(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	if _, err := s.AddRestock(ctx, domain.Restock{ID: "r1", ItemName: "widget", QuantityAdded: 10, Timestamp: time.Now(), Source: "test"}); err != nil {
		t.Fatalf("AddRestock: %v", err)
	}
	ok, err := s.AppendOrderLog(ctx, domain.OrderLog{OrderID: "A-1", ItemName: "widget", Quantity: 3,
		UnitPrice: decimal.RequireFromString("2.50"), OrderType: "sale", CreatedAt: time.Now()})
	if err != nil || !ok {
		t.Fatalf("AppendOrderLog = %v, %v", ok, err)
	}
	logs, err := s.OrderLogsAfter(ctx, 0, 10)
	if err != nil || len(logs) != 1 {
		t.Fatalf("OrderLogsAfter = %v, %v", logs, err)
	}
	if !logs[0].UnitPrice.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("unit price = %s", logs[0].UnitPrice)
	}

	tx := domain.Transaction{
		ID: "6f1f7a52-31a4-5d0b-9a55-9d8d3c0e2b11", OrderRef: "A-1", ItemName: "widget", Quantity: 3,
		UnitPrice: decimal.RequireFromString("2.50"), TotalRevenue: decimal.RequireFromString("7.50"),
		TransactionType: domain.TxSale, Source: "test", Timestamp: logs[0].CreatedAt,
	}
	for i, want := range []bool{true, false} {
		got, err := s.ApplyOrderLog(ctx, "test", logs[0].ID, tx)
		if err != nil || got != want {
			t.Fatalf("apply #%d = %v, %v; want %v", i+1, got, err, want)
		}
	}

	cp, err := s.Checkpoint(ctx, "test")
	if err != nil || cp != logs[0].ID {
		t.Errorf("Checkpoint = %d, %v; want %d", cp, err, logs[0].ID)
	}
	inv, err := s.Inventory(ctx)
	if err != nil || len(inv) != 1 || inv[0].OnHand != 7 {
		t.Errorf("Inventory = %+v, %v; want widget=7", inv, err)
	}
	txs, err := s.Transactions(ctx)
	if err != nil || len(txs) != 1 || !txs[0].TotalRevenue.Equal(decimal.RequireFromString("7.5")) {
		t.Errorf("Transactions = %+v, %v", txs, err)
	}
}

func TestPostgresUnappliedOrderLogs(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"L-1", "L-2", "L-3"} {
		if _, err := s.AppendOrderLog(ctx, domain.OrderLog{OrderID: id, ItemName: "widget", Quantity: 1,
			UnitPrice: decimal.RequireFromString("1.25"), OrderType: "sale", CreatedAt: time.Now()}); err != nil {
			t.Fatalf("AppendOrderLog: %v", err)
		}
	}
	logs, err := s.OrderLogsAfter(ctx, 0, 10)
	if err != nil || len(logs) != 3 {
		t.Fatalf("OrderLogsAfter = %v, %v", logs, err)
	}
	// применены первая и третья, вторая «опоздала»
	for i, l := range []domain.OrderLog{logs[0], logs[2]} {
		tx := domain.Transaction{
			ID: fmt.Sprintf("00000000-0000-5000-8000-00000000000%d", i+1), OrderRef: l.OrderID, ItemName: l.ItemName,
			Quantity: 1, UnitPrice: l.UnitPrice, TotalRevenue: l.UnitPrice, TransactionType: domain.TxSale,
			Source: "test", Timestamp: l.CreatedAt,
		}
		if _, err := s.ApplyOrderLog(ctx, "test", l.ID, tx); err != nil {
			t.Fatalf("ApplyOrderLog: %v", err)
		}
	}

	got, err := s.UnappliedOrderLogs(ctx, logs[0].ID-1, logs[2].ID)
	if err != nil {
		t.Fatalf("UnappliedOrderLogs: %v", err)
	}
	if len(got) != 1 || got[0].OrderID != "L-2" || !got[0].UnitPrice.Equal(decimal.RequireFromString("1.25")) {
		t.Errorf("unapplied = %+v, want L-2", got)
	}
}
