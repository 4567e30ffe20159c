package domain

import (
	"context"
	"time"
)

// TransactionReader — чтение агрегированных транзакций.
type TransactionReader interface {
	Transactions(ctx context.Context) ([]Transaction, error)
}

// RestockRepository — поступления на склад.
type RestockRepository interface {
	Restocks(ctx context.Context) ([]Restock, error)
	// AddRestock вставляет поступление, если его ID ещё не встречался, и увеличивает остаток.
	AddRestock(ctx context.Context, r Restock) (inserted bool, err error)
}

// InventoryReader — текущие остатки.
type InventoryReader interface {
	Inventory(ctx context.Context) ([]InventoryItem, error)
}

// OrderLogRepository — порт журнала заказов.
type OrderLogRepository interface {
	// AppendOrderLog добавляет строку, если OrderID ещё не встречался.
	AppendOrderLog(ctx context.Context, l OrderLog) (inserted bool, err error)
	// OrderLogsAfter возвращает строки с ID > cursor по возрастанию ID.
	OrderLogsAfter(ctx context.Context, cursor int64, limit int) ([]OrderLog, error)
}

// SyncStore — запись результатов синхронизации.
type SyncStore interface {
	Checkpoint(ctx context.Context, source string) (int64, error)
	// UnappliedOrderLogs — строки журнала с fromID < ID <= toID, для которых
	// ещё нет транзакции. Номера BIGSERIAL выдаются до коммита, поэтому строка
	// с меньшим ID может стать видимой уже после того, как курсор её прошёл.
	UnappliedOrderLogs(ctx context.Context, fromID, toID int64) ([]OrderLog, error)
	// ApplyOrderLog атомарно: вставляет транзакцию, если OrderRef ещё нет,
	// списывает остаток только при вставке и сдвигает чекпоинт до logID.
	ApplyOrderLog(ctx context.Context, source string, logID int64, tx Transaction) (inserted bool, err error)
}

// Store — всё, что нужно сервису от хранилища.
type Store interface {
	TransactionReader
	RestockRepository
	InventoryReader
	OrderLogRepository
	SyncStore
	Ping(ctx context.Context) error
	Close()
}

// SyncLocker — защита от параллельных запусков синхронизации.
type SyncLocker interface {
	// TryLock возвращает функцию освобождения; ok=false, если блокировка занята.
	TryLock(ctx context.Context, name string, ttl time.Duration) (unlock func(context.Context) error, ok bool, err error)
}

// MessageSubscriber — порт подписчика на входящие сообщения журнала заказов.
type MessageSubscriber interface {
	// Subscribe регистрирует обработчик; ack/повторные доставки реализует адаптер.
	Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error
}

// Clock — источник времени (подменяется в тестах).
type Clock interface {
	Now() time.Time
}

// SystemClock — реальное время.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
