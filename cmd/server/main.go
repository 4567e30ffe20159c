package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/inventory-dashboard/internal/adapter/cache"
	"github.com/example/inventory-dashboard/internal/adapter/httpapi"
	"github.com/example/inventory-dashboard/internal/adapter/kafka"
	"github.com/example/inventory-dashboard/internal/adapter/lock"
	"github.com/example/inventory-dashboard/internal/adapter/natsstan"
	"github.com/example/inventory-dashboard/internal/adapter/repo"
	"github.com/example/inventory-dashboard/internal/config"
	"github.com/example/inventory-dashboard/internal/domain"
	"github.com/example/inventory-dashboard/internal/usecase"
)

func main() {
	logger := log.New(os.Stdout, "[app] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.Printf("config loaded:%s", cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := openStore(ctx, cfg, sub(logger, "[postgres] "))
	if err != nil {
		logger.Fatalf("store: %v", err)
	}
	defer store.Close()

	locker, closeLocker := openLocker(ctx, cfg, sub(logger, "[redis] "))
	defer closeLocker()

	clock := domain.SystemClock{}
	c := cache.NewMemoryCache(clock)

	txs := usecase.GetTransactions{Repo: store, Cache: c, TTL: cfg.CacheTTL}
	syncUC := usecase.SyncOrderLogs{
		Logs:      store,
		Store:     store,
		Locker:    locker,
		Clock:     clock,
		Log:       sub(logger, "[sync] "),
		Source:    cfg.SyncSource,
		BatchSize: cfg.SyncBatch,
		LockTTL:   cfg.SyncLockTTL,
		Lookback:  cfg.SyncLookback,
	}
	ingest := usecase.IngestOrderLog{Repo: store, Clock: clock, DefaultSource: cfg.SyncSource}

	if subscriber := openSubscriber(cfg, sub(logger, "[orderlog] ")); subscriber != nil {
		if err := subscriber.Subscribe(ctx, ingest.Execute); err != nil {
			// сервис остаётся рабочим: строки журнала может писать и другая система
			logger.Printf("order log subscribe: %v", err)
		}
	}

	api := httpapi.NewServer(httpapi.Deps{
		Transactions:  txs,
		InternalUsage: usecase.GetInternalUsage{Transactions: txs},
		Restocks:      usecase.GetRestocks{Repo: store, Cache: c, TTL: cfg.CacheTTL},
		AddRestock:    usecase.RecordRestock{Repo: store, Clock: clock},
		Revenue:       usecase.GetRevenue{Transactions: txs, Clock: clock},
		Inventory:     usecase.GetInventory{Repo: store, Cache: c, TTL: cfg.CacheTTL},
		Sync:          syncUC,
		Tokens:        httpapi.NewTokenVerifier(cfg.AuthJWTSecret, cfg.AuthIssuer),
		SyncTimeout:   cfg.SyncTimeout,
		Clock:         clock,
		Log:           sub(logger, "[http] "),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Router,
		ReadHeaderTimeout: 2 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Printf("http listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("forced to shutdown: %v", err)
	}
	st := c.Stats()
	logger.Printf("cache stats: hits=%d misses=%d load_errors=%d", st.Hits, st.Misses, st.LoadErrors)
	logger.Println("exited gracefully")
}

func sub(base *log.Logger, prefix string) *log.Logger {
	return log.New(base.Writer(), base.Prefix()+prefix, base.Flags())
}

func openStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (domain.Store, error) {
	if cfg.StoreDriver == "memory" {
		logger.Printf("using in-memory store")
		return repo.NewMemoryStore(), nil
	}
	return repo.NewPostgresStore(ctx, cfg.DatabaseURL, cfg.DBMaxConns, logger)
}

// openLocker — Redis, если задан REDIS_ADDR, иначе блокировка в процессе.
func openLocker(ctx context.Context, cfg *config.Config, logger *log.Logger) (domain.SyncLocker, func()) {
	if cfg.RedisAddr == "" {
		return lock.NewLocalLocker(), func() {}
	}
	rl := lock.NewRedisLocker(lock.RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB, Password: cfg.RedisPassword}, logger)
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rl.Ping(pctx); err != nil {
		logger.Fatalf("redis ping: %v", err)
	}
	return rl, rl.Close
}

func openSubscriber(cfg *config.Config, logger *log.Logger) domain.MessageSubscriber {
	switch cfg.OrderLogTransport {
	case "stan":
		return &natsstan.Subscriber{
			ClusterID: cfg.STANClusterID,
			ClientID:  cfg.STANClientID,
			URL:       cfg.NATSURL,
			Subject:   cfg.STANSubject,
			Durable:   cfg.STANDurable,
			Log:       logger,
		}
	case "kafka":
		return kafka.NewConsumer(kafka.Config{
			Brokers:  cfg.KafkaBrokerList(),
			Topic:    cfg.KafkaTopic,
			GroupID:  cfg.KafkaGroup,
			DLQTopic: cfg.KafkaDLQTopic,
		}, logger)
	default:
		return nil
	}
}
