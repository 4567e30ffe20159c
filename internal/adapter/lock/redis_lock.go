package lock

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/example/inventory-dashboard/internal/domain"
)

// снимаем только свою блокировку
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisConfig struct {
	Addr     string
	DB       int
	Password string
}

// RedisLocker — блокировка синхронизации между экземплярами сервиса (SET NX PX).
type RedisLocker struct {
	rdb    *redis.Client
	prefix string
	logger *log.Logger
}

func NewRedisLocker(cfg RedisConfig, logger *log.Logger) *RedisLocker {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	return &RedisLocker{rdb: rdb, prefix: "lock:", logger: logger}
}

func (l *RedisLocker) Ping(ctx context.Context) error {
	if err := l.rdb.Ping(ctx).Err(); err != nil {
		l.logger.Printf("PING failed: %v", err)
		return domain.Unavailable("redis ping", err)
	}
	return nil
}

func (l *RedisLocker) Close() {
	if err := l.rdb.Close(); err != nil {
		l.logger.Printf("error while closing: %v", err)
		return
	}
	l.logger.Println("closed")
}

func (l *RedisLocker) TryLock(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, bool, error) {
	key := l.prefix + name
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		l.logger.Printf("SETNX %q failed: %v", key, err)
		return nil, false, domain.Unavailable("redis setnx", err)
	}
	if !ok {
		l.logger.Printf("SETNX %q skipped (held)", key)
		return nil, false, nil
	}
	l.logger.Printf("SETNX %q ok (ttl=%s)", key, ttl)

	unlock := func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Int64()
		if err != nil {
			return domain.Unavailable("redis unlock", err)
		}
		if n == 0 {
			l.logger.Printf("UNLOCK %q: lock expired before release", key)
		}
		return nil
	}
	return unlock, true, nil
}

var _ domain.SyncLocker = (*RedisLocker)(nil)
