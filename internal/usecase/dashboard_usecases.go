package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/inventory-dashboard/internal/adapter/cache"
	"github.com/example/inventory-dashboard/internal/domain"
)

// Ключи кэша — единое место.
const (
	CacheKeyTransactions = "transactions"
	CacheKeyRestocks     = "restocks"
	CacheKeyInventory    = "inventory"
)

// GetTransactions — все транзакции, новые сверху, через кэш.
type GetTransactions struct {
	Repo  domain.TransactionReader
	Cache *cache.MemoryCache
	TTL   time.Duration
}

func (uc GetTransactions) Execute(ctx context.Context) ([]domain.Transaction, error) {
	return cache.GetCached(ctx, uc.Cache, CacheKeyTransactions, uc.TTL, func(ctx context.Context) ([]domain.Transaction, error) {
		txs, err := uc.Repo.Transactions(ctx)
		if err != nil {
			return nil, err
		}
		sortTransactionsDesc(txs)
		return txs, nil
	})
}

// GetInternalUsage — только demo/internal/transfer, новые сверху.
type GetInternalUsage struct {
	Transactions GetTransactions
}

func (uc GetInternalUsage) Execute(ctx context.Context) ([]domain.Transaction, error) {
	txs, err := uc.Transactions.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return FilterInternalUsage(txs), nil
}

// FilterInternalUsage не меняет входной срез (он может лежать в кэше).
func FilterInternalUsage(txs []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.TransactionType.InternalUsage() {
			out = append(out, t)
		}
	}
	sortTransactionsDesc(out)
	return out
}

// GetRevenue — выручка по дням за последние Days дней (только продажи).
type GetRevenue struct {
	Transactions GetTransactions
	Clock        domain.Clock
}

func (uc GetRevenue) Execute(ctx context.Context, days int) (domain.RevenueSummary, error) {
	if days <= 0 || days > 366 {
		return domain.RevenueSummary{}, domain.ErrBadParams
	}
	txs, err := uc.Transactions.Execute(ctx)
	if err != nil {
		return domain.RevenueSummary{}, err
	}
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return SummarizeRevenue(txs, now, days), nil
}

// SummarizeRevenue раскладывает продажи по дням [now-days+1 .. now] включительно.
func SummarizeRevenue(txs []domain.Transaction, now time.Time, days int) domain.RevenueSummary {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	from := today.AddDate(0, 0, -(days - 1))

	daily := make([]domain.RevenuePoint, days)
	for i := range daily {
		daily[i] = domain.RevenuePoint{Day: from.AddDate(0, 0, i).Format("2006-01-02"), TotalRevenue: decimal.Zero}
	}

	sum := domain.RevenueSummary{TotalRevenue: decimal.Zero, AverageTicket: decimal.Zero}
	var tickets int64
	for _, t := range txs {
		if !t.TransactionType.RevenueBearing() {
			continue
		}
		ts := t.Timestamp.UTC()
		if ts.Before(from) || !ts.Before(today.AddDate(0, 0, 1)) {
			continue
		}
		idx := int(ts.Sub(from) / (24 * time.Hour))
		daily[idx].TotalRevenue = daily[idx].TotalRevenue.Add(t.TotalRevenue)
		daily[idx].Quantity += t.Quantity
		sum.TotalRevenue = sum.TotalRevenue.Add(t.TotalRevenue)
		sum.SalesQuantity += t.Quantity
		tickets++
	}
	if tickets > 0 {
		sum.AverageTicket = sum.TotalRevenue.Div(decimal.NewFromInt(tickets)).Round(2)
	}
	sum.Daily = daily
	return sum
}

// GetRestocks — поступления, новые сверху, через кэш.
type GetRestocks struct {
	Repo  domain.RestockRepository
	Cache *cache.MemoryCache
	TTL   time.Duration
}

func (uc GetRestocks) Execute(ctx context.Context) ([]domain.Restock, error) {
	return cache.GetCached(ctx, uc.Cache, CacheKeyRestocks, uc.TTL, func(ctx context.Context) ([]domain.Restock, error) {
		rs, err := uc.Repo.Restocks(ctx)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Timestamp.After(rs[j].Timestamp) })
		return rs, nil
	})
}

// GetInventory — остатки по товарам через кэш.
type GetInventory struct {
	Repo  domain.InventoryReader
	Cache *cache.MemoryCache
	TTL   time.Duration
}

func (uc GetInventory) Execute(ctx context.Context) ([]domain.InventoryItem, error) {
	return cache.GetCached(ctx, uc.Cache, CacheKeyInventory, uc.TTL, func(ctx context.Context) ([]domain.InventoryItem, error) {
		items, err := uc.Repo.Inventory(ctx)
		if err != nil {
			return nil, err
		}
		sort.Slice(items, func(i, j int) bool { return items[i].ItemName < items[j].ItemName })
		return items, nil
	})
}

// RecordRestock — зарегистрировать поступление. Пустой ID генерируется;
// повтор с тем же ID не увеличивает остаток второй раз.
type RecordRestock struct {
	Repo  domain.RestockRepository
	Clock domain.Clock
}

func (uc RecordRestock) Execute(ctx context.Context, r domain.Restock) (domain.Restock, bool, error) {
	r.ItemName = strings.TrimSpace(r.ItemName)
	if r.ItemName == "" || r.QuantityAdded <= 0 {
		return domain.Restock{}, false, fmt.Errorf("%w: item name and positive quantity required", domain.ErrBadParams)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		if uc.Clock != nil {
			r.Timestamp = uc.Clock.Now()
		} else {
			r.Timestamp = time.Now().UTC()
		}
	}
	if r.Source == "" {
		r.Source = "manual"
	}
	inserted, err := uc.Repo.AddRestock(ctx, r)
	if err != nil {
		return domain.Restock{}, false, err
	}
	return r, inserted, nil
}

func sortTransactionsDesc(txs []domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Timestamp.After(txs[j].Timestamp) })
}
