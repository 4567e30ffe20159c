package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/inventory-dashboard/internal/domain"
)

const (
	defaultSyncBatch    = 500
	defaultSyncLookback = 1000
	defaultSyncLockTTL  = 5 * time.Minute
	syncLockName        = "sync:order-logs"
)

// SyncResult — итог одного запуска синхронизации.
type SyncResult struct {
	Processed int           `json:"processed"`
	Recovered int           `json:"recovered"`
	Inserted  int           `json:"inserted"`
	Skipped   int           `json:"skipped"`
	Cursor    int64         `json:"cursor"`
	Duration  time.Duration `json:"duration_ns"`
}

// SyncOrderLogs — перенести новые строки журнала заказов в транзакции и остатки.
//
// Курсор — ID последней применённой строки журнала для Source. Каждая строка
// применяется одной транзакцией хранилища (запись + остаток + курсор), а вставка
// идемпотентна по OrderRef, поэтому повторный запуск ничего не дублирует,
// даже если курсор потерян.
//
// ID журнала выдаются до коммита, поэтому строка с меньшим ID может появиться
// после того, как курсор её прошёл. Перед основным проходом окно из Lookback
// ID под курсором перепроверяется на строки без транзакции.
type SyncOrderLogs struct {
	Logs   domain.OrderLogRepository
	Store  domain.SyncStore
	Locker domain.SyncLocker
	Clock  domain.Clock
	Log    *log.Logger

	Source    string
	BatchSize int
	LockTTL   time.Duration
	// Lookback — ширина окна перепроверки в ID; 0 — по умолчанию, <0 — выключено.
	Lookback int64
}

func (uc SyncOrderLogs) Execute(ctx context.Context) (SyncResult, error) {
	start := uc.now()
	var res SyncResult

	if uc.Locker != nil {
		ttl := uc.LockTTL
		if ttl <= 0 {
			ttl = defaultSyncLockTTL
		}
		unlock, ok, err := uc.Locker.TryLock(ctx, syncLockName+":"+uc.source(), ttl)
		if err != nil {
			return res, &domain.SyncError{Err: fmt.Errorf("acquire lock: %w", err)}
		}
		if !ok {
			return res, domain.ErrSyncInProgress
		}
		defer func() {
			// контекст запроса мог уже истечь, а блокировку нужно снять
			uctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := unlock(uctx); err != nil {
				uc.logf("unlock failed: %v", err)
			}
		}()
	}

	cursor, err := uc.Store.Checkpoint(ctx, uc.source())
	if err != nil {
		return res, &domain.SyncError{Err: fmt.Errorf("read checkpoint: %w", err)}
	}
	res.Cursor = cursor
	uc.logf("start source=%s cursor=%d", uc.source(), cursor)

	if err := uc.applyLate(ctx, &res); err != nil {
		return res, err
	}

	batch := uc.BatchSize
	if batch <= 0 {
		batch = defaultSyncBatch
	}

	for {
		if err := ctx.Err(); err != nil {
			return res, &domain.SyncError{Processed: res.Processed, Err: err}
		}
		logs, err := uc.Logs.OrderLogsAfter(ctx, res.Cursor, batch)
		if err != nil {
			return res, &domain.SyncError{Processed: res.Processed, Err: fmt.Errorf("read order logs: %w", err)}
		}
		if len(logs) == 0 {
			break
		}

		for _, l := range logs {
			if l.ID <= res.Cursor {
				return res, &domain.SyncError{Processed: res.Processed, OrderID: l.OrderID,
					Err: fmt.Errorf("%w: order log id %d is not after cursor %d", domain.ErrValidation, l.ID, res.Cursor)}
			}
			tx, err := deriveTransaction(l, uc.source())
			if err != nil {
				return res, &domain.SyncError{Processed: res.Processed, OrderID: l.OrderID, Err: err}
			}
			inserted, err := uc.Store.ApplyOrderLog(ctx, uc.source(), l.ID, tx)
			if err != nil {
				return res, &domain.SyncError{Processed: res.Processed, OrderID: l.OrderID, Err: err}
			}
			res.Processed++
			res.Cursor = l.ID
			if inserted {
				res.Inserted++
			} else {
				res.Skipped++
			}
		}

		if len(logs) < batch {
			break
		}
	}

	res.Duration = uc.now().Sub(start)
	uc.logf("done source=%s processed=%d inserted=%d recovered=%d skipped=%d cursor=%d in %s",
		uc.source(), res.Processed, res.Inserted, res.Recovered, res.Skipped, res.Cursor, res.Duration)
	return res, nil
}

// applyLate применяет строки окна под курсором, пропущенные из-за позднего коммита.
func (uc SyncOrderLogs) applyLate(ctx context.Context, res *SyncResult) error {
	lookback := uc.Lookback
	if lookback == 0 {
		lookback = defaultSyncLookback
	}
	if lookback < 0 || res.Cursor == 0 {
		return nil
	}
	from := res.Cursor - lookback
	if from < 0 {
		from = 0
	}
	logs, err := uc.Store.UnappliedOrderLogs(ctx, from, res.Cursor)
	if err != nil {
		return &domain.SyncError{Err: fmt.Errorf("read unapplied order logs: %w", err)}
	}
	for _, l := range logs {
		tx, err := deriveTransaction(l, uc.source())
		if err != nil {
			return &domain.SyncError{Processed: res.Processed, OrderID: l.OrderID, Err: err}
		}
		// чекпоинт не откатывается: в хранилище он только растёт
		inserted, err := uc.Store.ApplyOrderLog(ctx, uc.source(), l.ID, tx)
		if err != nil {
			return &domain.SyncError{Processed: res.Processed, OrderID: l.OrderID, Err: err}
		}
		res.Processed++
		if inserted {
			res.Inserted++
			res.Recovered++
			uc.logf("recovered late order log id=%d order=%s below cursor %d", l.ID, l.OrderID, res.Cursor)
		} else {
			res.Skipped++
		}
	}
	return nil
}

// deriveTransaction проверяет строку журнала и считает производные поля.
// ID транзакции детерминирован по OrderRef, чтобы повтор давал ту же запись.
func deriveTransaction(l domain.OrderLog, source string) (domain.Transaction, error) {
	orderID := strings.TrimSpace(l.OrderID)
	if orderID == "" {
		return domain.Transaction{}, fmt.Errorf("%w: empty order id (log %d)", domain.ErrValidation, l.ID)
	}
	if strings.TrimSpace(l.ItemName) == "" {
		return domain.Transaction{}, fmt.Errorf("%w: empty item name", domain.ErrValidation)
	}
	if l.Quantity <= 0 {
		return domain.Transaction{}, fmt.Errorf("%w: quantity %d", domain.ErrValidation, l.Quantity)
	}
	if !domain.ValidUnitPrice(l.UnitPrice) {
		return domain.Transaction{}, fmt.Errorf("%w: unit price %s", domain.ErrValidation, l.UnitPrice)
	}
	typ, ok := domain.ParseTransactionType(l.OrderType)
	if !ok {
		return domain.Transaction{}, fmt.Errorf("%w: unknown order type %q", domain.ErrValidation, l.OrderType)
	}
	if l.Source != "" {
		source = l.Source
	}

	return domain.Transaction{
		ID:              uuid.NewSHA1(uuid.NameSpaceOID, []byte("order:"+orderID)).String(),
		OrderRef:        orderID,
		ItemName:        strings.TrimSpace(l.ItemName),
		Quantity:        l.Quantity,
		UnitPrice:       l.UnitPrice,
		TotalRevenue:    l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))),
		TransactionType: typ,
		Source:          source,
		Timestamp:       l.CreatedAt,
	}, nil
}

func (uc SyncOrderLogs) source() string {
	if uc.Source == "" {
		return "orders"
	}
	return uc.Source
}

func (uc SyncOrderLogs) now() time.Time {
	if uc.Clock == nil {
		return time.Now()
	}
	return uc.Clock.Now()
}

func (uc SyncOrderLogs) logf(format string, args ...any) {
	if uc.Log != nil {
		uc.Log.Printf(format, args...)
	}
}
