package repo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/example/inventory-dashboard/internal/domain"
)

// MemoryStore — хранилище в памяти процесса. Используется при STORE_DRIVER=memory и в тестах.
// Все операции под одним мьютексом, поэтому ApplyOrderLog атомарен.
type MemoryStore struct {
	mu sync.Mutex

	logs        []domain.OrderLog
	logOrderIDs map[string]struct{}
	nextLogID   int64

	txs        []domain.Transaction
	txOrderRef map[string]struct{}

	restocks   []domain.Restock
	restockIDs map[string]struct{}

	inventory   map[string]domain.InventoryItem
	checkpoints map[string]int64

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		logOrderIDs: make(map[string]struct{}),
		txOrderRef:  make(map[string]struct{}),
		restockIDs:  make(map[string]struct{}),
		inventory:   make(map[string]domain.InventoryItem),
		checkpoints: make(map[string]int64),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
func (s *MemoryStore) Close()                     {}

func (s *MemoryStore) Transactions(context.Context) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Transaction(nil), s.txs...), nil
}

func (s *MemoryStore) Restocks(context.Context) ([]domain.Restock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Restock(nil), s.restocks...), nil
}

func (s *MemoryStore) AddRestock(_ context.Context, r domain.Restock) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.restockIDs[r.ID]; ok {
		return false, nil
	}
	s.restockIDs[r.ID] = struct{}{}
	s.restocks = append(s.restocks, r)
	s.adjustLocked(r.ItemName, r.QuantityAdded)
	return true, nil
}

func (s *MemoryStore) Inventory(context.Context) ([]domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.InventoryItem, 0, len(s.inventory))
	for _, it := range s.inventory {
		out = append(out, it)
	}
	return out, nil
}

func (s *MemoryStore) AppendOrderLog(_ context.Context, l domain.OrderLog) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.logOrderIDs[l.OrderID]; ok {
		return false, nil
	}
	s.nextLogID++
	l.ID = s.nextLogID
	s.logOrderIDs[l.OrderID] = struct{}{}
	s.logs = append(s.logs, l)
	return true, nil
}

func (s *MemoryStore) OrderLogsAfter(_ context.Context, cursor int64, limit int) ([]domain.OrderLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.OrderLog
	// logs упорядочены по ID: добавляются только в конец
	for _, l := range s.logs {
		if l.ID <= cursor {
			continue
		}
		out = append(out, l)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) Checkpoint(_ context.Context, source string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkpoints[source], nil
}

func (s *MemoryStore) UnappliedOrderLogs(_ context.Context, fromID, toID int64) ([]domain.OrderLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.OrderLog
	for _, l := range s.logs {
		if l.ID <= fromID || l.ID > toID {
			continue
		}
		if _, ok := s.txOrderRef[strings.TrimSpace(l.OrderID)]; !ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *MemoryStore) ApplyOrderLog(_ context.Context, source string, logID int64, tx domain.Transaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := false
	if _, ok := s.txOrderRef[tx.OrderRef]; !ok {
		s.txOrderRef[tx.OrderRef] = struct{}{}
		s.txs = append(s.txs, tx)
		s.adjustLocked(tx.ItemName, -tx.Quantity)
		inserted = true
	}
	if logID > s.checkpoints[source] {
		s.checkpoints[source] = logID
	}
	return inserted, nil
}

func (s *MemoryStore) adjustLocked(item string, delta int) {
	it := s.inventory[item]
	it.ItemName = item
	it.OnHand += delta
	it.UpdatedAt = s.now()
	s.inventory[item] = it
}

var _ domain.Store = (*MemoryStore)(nil)
