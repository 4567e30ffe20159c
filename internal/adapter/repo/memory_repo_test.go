package repo

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/inventory-dashboard/internal/domain"
)

func TestMemoryStoreAppendOrderLogDedup(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	l := domain.OrderLog{OrderID: "A-1", ItemName: "widget", Quantity: 2, UnitPrice: decimal.NewFromInt(5)}

	ok, err := s.AppendOrderLog(ctx, l)
	if err != nil || !ok {
		t.Fatalf("first append = %v, %v", ok, err)
	}
	ok, err = s.AppendOrderLog(ctx, l)
	if err != nil || ok {
		t.Fatalf("duplicate append = %v, %v; want false, nil", ok, err)
	}

	logs, _ := s.OrderLogsAfter(ctx, 0, 10)
	if len(logs) != 1 || logs[0].ID != 1 {
		t.Fatalf("logs = %+v", logs)
	}
}

func TestMemoryStoreOrderLogsAfterCursorAndLimit(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		if _, err := s.AppendOrderLog(ctx, domain.OrderLog{OrderID: id, ItemName: "x", Quantity: 1}); err != nil {
			t.Fatal(err)
		}
	}
	logs, _ := s.OrderLogsAfter(ctx, 1, 2)
	if len(logs) != 2 || logs[0].OrderID != "b" || logs[1].OrderID != "c" {
		t.Fatalf("logs = %+v, want b,c", logs)
	}
}

func TestMemoryStoreApplyOrderLogIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if _, err := s.AddRestock(ctx, domain.Restock{ID: "r1", ItemName: "widget", QuantityAdded: 10}); err != nil {
		t.Fatal(err)
	}
	tx := domain.Transaction{ID: "t1", OrderRef: "A-1", ItemName: "widget", Quantity: 3, TransactionType: domain.TxSale}

	ins, _ := s.ApplyOrderLog(ctx, "orders", 1, tx)
	if !ins {
		t.Fatal("first apply must insert")
	}
	ins, _ = s.ApplyOrderLog(ctx, "orders", 1, tx)
	if ins {
		t.Fatal("second apply must be a no-op")
	}

	inv, _ := s.Inventory(ctx)
	if len(inv) != 1 || inv[0].OnHand != 7 {
		t.Errorf("inventory = %+v, want widget=7", inv)
	}
	cp, _ := s.Checkpoint(ctx, "orders")
	if cp != 1 {
		t.Errorf("checkpoint = %d, want 1", cp)
	}
	txs, _ := s.Transactions(ctx)
	if len(txs) != 1 {
		t.Errorf("transactions = %d, want 1", len(txs))
	}
}

func TestMemoryStoreRestockDedup(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	r := domain.Restock{ID: "r1", ItemName: "widget", QuantityAdded: 4, Timestamp: time.Now()}
	for i := 0; i < 2; i++ {
		if _, err := s.AddRestock(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	inv, _ := s.Inventory(ctx)
	if inv[0].OnHand != 4 {
		t.Errorf("on hand = %d, want 4", inv[0].OnHand)
	}
	rs, _ := s.Restocks(ctx)
	if len(rs) != 1 {
		t.Errorf("restocks = %d, want 1", len(rs))
	}
}

func TestMemoryStoreUnappliedOrderLogs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		if _, err := s.AppendOrderLog(ctx, domain.OrderLog{OrderID: id, ItemName: "w", Quantity: 1}); err != nil {
			t.Fatal(err)
		}
	}
	_, _ = s.ApplyOrderLog(ctx, "orders", 1, domain.Transaction{OrderRef: "a", ItemName: "w", Quantity: 1})
	_, _ = s.ApplyOrderLog(ctx, "orders", 3, domain.Transaction{OrderRef: "c", ItemName: "w", Quantity: 1})

	logs, _ := s.UnappliedOrderLogs(ctx, 0, 3)
	if len(logs) != 1 || logs[0].OrderID != "b" {
		t.Errorf("unapplied = %+v, want b", logs)
	}
	// d вне окна
	if logs, _ := s.UnappliedOrderLogs(ctx, 2, 3); len(logs) != 0 {
		t.Errorf("unapplied (2,3] = %+v, want none", logs)
	}
}
