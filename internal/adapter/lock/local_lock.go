package lock

import (
	"context"
	"sync"
	"time"

	"github.com/example/inventory-dashboard/internal/domain"
)

// LocalLocker — блокировка в пределах процесса. ttl не используется:
// блокировка живёт до вызова unlock.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *LocalLocker) TryLock(_ context.Context, name string, _ time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	m, ok := l.locks[name]
	if !ok {
		m = &sync.Mutex{}
		l.locks[name] = m
	}
	l.mu.Unlock()

	if !m.TryLock() {
		return nil, false, nil
	}
	var once sync.Once
	return func(context.Context) error {
		once.Do(m.Unlock)
		return nil
	}, true, nil
}

var _ domain.SyncLocker = (*LocalLocker)(nil)
