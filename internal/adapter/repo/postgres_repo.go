package repo

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/example/inventory-dashboard/internal/domain"
)

// PostgresStore — хранилище на pgxpool, запросы собираются squirrel.
type PostgresStore struct {
	Pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgresStore применяет миграции и открывает пул.
func NewPostgresStore(ctx context.Context, dsn string, maxConns int32, logger *log.Logger) (*PostgresStore, error) {
	if err := RunMigrations(dsn, logger); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	logger.Println("pgxpool initialized")
	return &PostgresStore{Pool: pool, logger: logger}, nil
}

func (r *PostgresStore) Close() {
	r.logger.Println("closing pgxpool...")
	r.Pool.Close()
}

func (r *PostgresStore) Ping(ctx context.Context) error {
	if err := r.Pool.Ping(ctx); err != nil {
		r.logger.Printf("ping failed: %v", err)
		return domain.Unavailable("ping", err)
	}
	return nil
}

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations применяет встроенные миграции через отдельный *sql.DB (pgx stdlib).
func RunMigrations(dsn string, logger *log.Logger) error {
	sqldb, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("sql.Open pgx: %w", err)
	}
	defer sqldb.Close()

	driver, err := postgres.WithInstance(sqldb, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("postgres driver: %w", err)
	}
	src, err := iofs.New(embeddedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate.New: %w", err)
	}
	defer m.Close()

	logger.Println("applying migrations...")
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Println("no new migrations to apply")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}
	logger.Println("migrations applied")
	return nil
}

func (r *PostgresStore) qb() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func (r *PostgresStore) logSQL(op, sqlStr string, args []any) {
	r.logger.Printf("%s sql=%q args=%d", op, sqlStr, len(args))
}

func (r *PostgresStore) logDone(op string, start time.Time, err error) {
	if err != nil {
		r.logger.Printf("%s error after %s: %v", op, time.Since(start), err)
		return
	}
	r.logger.Printf("%s ok in %s", op, time.Since(start))
}

var _ domain.Store = (*PostgresStore)(nil)
