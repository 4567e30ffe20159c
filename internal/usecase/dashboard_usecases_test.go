package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/inventory-dashboard/internal/adapter/cache"
	"github.com/example/inventory-dashboard/internal/adapter/repo"
	"github.com/example/inventory-dashboard/internal/domain"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func mkTx(ref string, typ domain.TransactionType, qty int, total string, ts time.Time) domain.Transaction {
	return domain.Transaction{
		OrderRef:        ref,
		ItemName:        "widget",
		Quantity:        qty,
		TotalRevenue:    decimal.RequireFromString(total),
		TransactionType: typ,
		Timestamp:       ts,
	}
}

func TestFilterInternalUsage(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	in := []domain.Transaction{
		mkTx("s1", domain.TxSale, 1, "1", base),
		mkTx("d1", domain.TxDemo, 1, "1", base.Add(1*time.Hour)),
		mkTx("i1", domain.TxInternal, 1, "1", base.Add(3*time.Hour)),
		mkTx("s2", domain.TxSale, 1, "1", base.Add(4*time.Hour)),
		mkTx("t1", domain.TxTransfer, 1, "1", base.Add(2*time.Hour)),
	}

	got := FilterInternalUsage(in)
	want := []string{"i1", "t1", "d1"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, ref := range want {
		if got[i].OrderRef != ref {
			t.Errorf("got[%d] = %s, want %s", i, got[i].OrderRef, ref)
		}
	}
	if in[0].OrderRef != "s1" || in[1].OrderRef != "d1" {
		t.Error("input slice must not be reordered")
	}
}

func TestSummarizeRevenue(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		mkTx("a", domain.TxSale, 2, "10.00", now.Add(-1*time.Hour)),
		mkTx("b", domain.TxSale, 1, "5.00", now.AddDate(0, 0, -2)),
		mkTx("c", domain.TxSale, 1, "3.33", now.AddDate(0, 0, -2)),
		mkTx("d", domain.TxDemo, 5, "50.00", now.Add(-1*time.Hour)),
		mkTx("old", domain.TxSale, 1, "100", now.AddDate(0, 0, -7)),
	}

	sum := SummarizeRevenue(txs, now, 7)
	if len(sum.Daily) != 7 || sum.Daily[0].Day != "2024-05-04" || sum.Daily[6].Day != "2024-05-10" {
		t.Fatalf("daily = %+v", sum.Daily)
	}
	if !sum.TotalRevenue.Equal(decimal.RequireFromString("18.33")) {
		t.Errorf("total = %s, want 18.33", sum.TotalRevenue)
	}
	if sum.SalesQuantity != 4 {
		t.Errorf("quantity = %d, want 4", sum.SalesQuantity)
	}
	if !sum.AverageTicket.Equal(decimal.RequireFromString("6.11")) {
		t.Errorf("average = %s, want 6.11", sum.AverageTicket)
	}
	if !sum.Daily[4].TotalRevenue.Equal(decimal.RequireFromString("8.33")) {
		t.Errorf("2024-05-08 = %s, want 8.33", sum.Daily[4].TotalRevenue)
	}
}

func TestGetRevenueBadDays(t *testing.T) {
	uc := GetRevenue{Transactions: GetTransactions{Repo: repo.NewMemoryStore(), Cache: cache.NewMemoryCache(nil), TTL: time.Second}}
	for _, days := range []int{0, -1, 367} {
		if _, err := uc.Execute(context.Background(), days); !errors.Is(err, domain.ErrBadParams) {
			t.Errorf("days=%d: err = %v, want ErrBadParams", days, err)
		}
	}
}

// countingReader считает обращения к хранилищу.
type countingReader struct {
	calls int
	txs   []domain.Transaction
}

func (r *countingReader) Transactions(context.Context) ([]domain.Transaction, error) {
	r.calls++
	return append([]domain.Transaction(nil), r.txs...), nil
}

func TestGetTransactionsCached(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	r := &countingReader{txs: []domain.Transaction{
		mkTx("old", domain.TxSale, 1, "1", base),
		mkTx("new", domain.TxSale, 1, "1", base.Add(time.Hour)),
	}}
	uc := GetTransactions{Repo: r, Cache: cache.NewMemoryCache(nil), TTL: time.Minute}

	for i := 0; i < 3; i++ {
		got, err := uc.Execute(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if got[0].OrderRef != "new" {
			t.Fatalf("order = %s first, want new", got[0].OrderRef)
		}
	}
	if r.calls != 1 {
		t.Errorf("repo calls = %d, want 1", r.calls)
	}

	internal, err := GetInternalUsage{Transactions: uc}.Execute(context.Background())
	if err != nil || len(internal) != 0 {
		t.Errorf("internal usage = %v, %v", internal, err)
	}
}

func TestRecordRestock(t *testing.T) {
	s := repo.NewMemoryStore()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	uc := RecordRestock{Repo: s, Clock: fixedClock{now}}
	ctx := context.Background()

	r, inserted, err := uc.Execute(ctx, domain.Restock{ItemName: " widget ", QuantityAdded: 10})
	if err != nil || !inserted {
		t.Fatalf("Execute() = %v, %v", inserted, err)
	}
	if r.ID == "" || r.Source != "manual" || !r.Timestamp.Equal(now) || r.ItemName != "widget" {
		t.Errorf("restock = %+v", r)
	}

	// повтор с тем же ID остаток не меняет
	if _, inserted, _ := uc.Execute(ctx, r); inserted {
		t.Error("duplicate restock inserted")
	}
	inv, _ := s.Inventory(ctx)
	if len(inv) != 1 || inv[0].OnHand != 10 {
		t.Errorf("inventory = %+v, want widget=10", inv)
	}

	if _, _, err := uc.Execute(ctx, domain.Restock{ItemName: "widget"}); !errors.Is(err, domain.ErrBadParams) {
		t.Errorf("zero quantity: err = %v, want ErrBadParams", err)
	}
}
