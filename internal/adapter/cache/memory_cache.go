package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/example/inventory-dashboard/internal/domain"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Stats — счётчики обращений к кэшу.
type Stats struct {
	Hits       int64
	Misses     int64
	LoadErrors int64
}

// MemoryCache — потокобезопасный кэш ключ-значение с TTL на запись.
// Вытеснения по размеру нет: запись живёт до перезаписи, устаревшая считается отсутствующей.
type MemoryCache struct {
	mu    sync.RWMutex
	store map[string]entry
	clock domain.Clock
	group singleflight.Group

	hits, misses, loadErrors atomic.Int64
}

func NewMemoryCache(clock domain.Clock) *MemoryCache {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &MemoryCache{store: make(map[string]entry), clock: clock}
}

// Get возвращает значение, только если срок жизни ещё не истёк.
func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if !ok || !c.clock.Now().Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Set перезаписывает значение; expiresAt = now + ttl.
func (c *MemoryCache) Set(key string, v any, ttl time.Duration) {
	c.mu.Lock()
	c.store[key] = entry{value: v, expiresAt: c.clock.Now().Add(ttl)}
	c.mu.Unlock()
}

func (c *MemoryCache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), LoadErrors: c.loadErrors.Load()}
}

// GetCached отдаёт значение из кэша или вызывает loader и сохраняет результат на ttl.
// Одновременные промахи по одному ключу схлопываются в один вызов loader.
// Общая загрузка не зависит от отмены контекста отдельного вызывающего:
// отменённый вызов возвращает ctx.Err(), остальные дожидаются результата.
// Ошибка loader не кэшируется и возвращается как *domain.CacheLoadError.
func GetCached[T any](ctx context.Context, c *MemoryCache, key string, ttl time.Duration, loader func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if key == "" || ttl < 0 || loader == nil {
		return zero, domain.ErrBadParams
	}
	if v, ok := c.Get(key); ok {
		if t, ok := v.(T); ok {
			c.hits.Add(1)
			return t, nil
		}
	}
	c.misses.Add(1)

	// значения контекста (трассировка, логгер) сохраняем, отмену нет
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// пока ждали своей очереди, значение мог положить предыдущий вызов
		if v, ok := c.Get(key); ok {
			if t, ok := v.(T); ok {
				return t, nil
			}
		}
		val, err := loader(loadCtx)
		if err != nil {
			c.loadErrors.Add(1)
			return nil, &domain.CacheLoadError{Key: key, Err: err}
		}
		c.Set(key, val, ttl)
		return val, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return zero, res.Err
	}
	t, ok := res.Val.(T)
	if !ok {
		// другой тип под тем же ключом у параллельного вызова — грузим сами
		val, err := loader(ctx)
		if err != nil {
			return zero, &domain.CacheLoadError{Key: key, Err: err}
		}
		c.Set(key, val, ttl)
		return val, nil
	}
	return t, nil
}
