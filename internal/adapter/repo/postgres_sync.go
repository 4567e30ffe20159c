package repo

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/example/inventory-dashboard/internal/domain"
)

// AppendOrderLog вставляет строку журнала; дубликат по order_id игнорируется.
func (r *PostgresStore) AppendOrderLog(ctx context.Context, l domain.OrderLog) (inserted bool, err error) {
	const op = "AppendOrderLog"
	q := r.qb().Insert("order_logs").
		Columns("order_id", "item_name", "quantity", "unit_price", "order_type", "source", "created_at").
		Values(l.OrderID, l.ItemName, l.Quantity, l.UnitPrice, l.OrderType, l.Source, l.CreatedAt).
		Suffix("ON CONFLICT (order_id) DO NOTHING")

	sqlStr, args, _ := q.ToSql()
	r.logSQL(op, sqlStr, args)
	start := time.Now()
	defer func() { r.logDone(op, start, err) }()

	tag, err := r.Pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return false, domain.Unavailable(op, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresStore) OrderLogsAfter(ctx context.Context, cursor int64, limit int) (out []domain.OrderLog, err error) {
	const op = "OrderLogsAfter"
	q := r.qb().Select("id", "order_id", "item_name", "quantity", "unit_price::text", "order_type", "source", "created_at").
		From("order_logs").
		Where(sq.Gt{"id": cursor}).
		OrderBy("id ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	sqlStr, args, _ := q.ToSql()
	r.logSQL(op, sqlStr, args)
	start := time.Now()
	defer func() { r.logDone(op, start, err) }()

	rows, err := r.Pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, domain.Unavailable(op, err)
	}
	return scanOrderLogs(rows, op)
}

func scanOrderLogs(rows pgx.Rows, op string) ([]domain.OrderLog, error) {
	defer rows.Close()
	var out []domain.OrderLog
	for rows.Next() {
		var (
			l     domain.OrderLog
			price string
			err   error
		)
		if err = rows.Scan(&l.ID, &l.OrderID, &l.ItemName, &l.Quantity, &price, &l.OrderType, &l.Source, &l.CreatedAt); err != nil {
			return nil, err
		}
		if l.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable(op, err)
	}
	return out, nil
}

// UnappliedOrderLogs — строки окна (fromID, toID] без соответствующей транзакции.
func (r *PostgresStore) UnappliedOrderLogs(ctx context.Context, fromID, toID int64) (out []domain.OrderLog, err error) {
	const op = "UnappliedOrderLogs"
	q := r.qb().Select("l.id", "l.order_id", "l.item_name", "l.quantity", "l.unit_price::text", "l.order_type", "l.source", "l.created_at").
		From("order_logs l").
		LeftJoin("transactions t ON t.order_ref = btrim(l.order_id)").
		Where(sq.Gt{"l.id": fromID}).
		Where(sq.LtOrEq{"l.id": toID}).
		Where(sq.Eq{"t.order_ref": nil}).
		OrderBy("l.id ASC")

	sqlStr, args, _ := q.ToSql()
	r.logSQL(op, sqlStr, args)
	start := time.Now()
	defer func() { r.logDone(op, start, err) }()

	rows, err := r.Pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, domain.Unavailable(op, err)
	}
	return scanOrderLogs(rows, op)
}

func (r *PostgresStore) Checkpoint(ctx context.Context, source string) (int64, error) {
	const op = "Checkpoint"
	q := r.qb().Select("last_log_id").From("sync_checkpoints").Where(sq.Eq{"source": source})
	sqlStr, args, _ := q.ToSql()
	r.logSQL(op, sqlStr, args)

	var id int64
	err := r.Pool.QueryRow(ctx, sqlStr, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, domain.Unavailable(op, err)
	}
	return id, nil
}

// ApplyOrderLog — одна транзакция БД: вставка по order_ref, списание остатка
// только при вставке, сдвиг чекпоинта. Сбой в середине откатывает всё.
func (r *PostgresStore) ApplyOrderLog(ctx context.Context, source string, logID int64, t domain.Transaction) (inserted bool, err error) {
	const op = "ApplyOrderLog"
	start := time.Now()
	defer func() { r.logDone(op, start, err) }()

	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return false, domain.Unavailable(op, err)
	}
	defer tx.Rollback(ctx)

	ins := r.qb().Insert("transactions").
		Columns("id", "order_ref", "item_name", "quantity", "unit_price", "total_revenue", "transaction_type", "source", "ts").
		Values(t.ID, t.OrderRef, t.ItemName, t.Quantity, t.UnitPrice, t.TotalRevenue, string(t.TransactionType), t.Source, t.Timestamp).
		Suffix("ON CONFLICT (order_ref) DO NOTHING")
	sqlStr, args, _ := ins.ToSql()
	r.logSQL(op+".insert", sqlStr, args)
	tag, err := tx.Exec(ctx, sqlStr, args...)
	if err != nil {
		return false, domain.Unavailable(op, err)
	}
	inserted = tag.RowsAffected() == 1

	if inserted {
		if err := r.adjustInventory(ctx, tx, t.ItemName, -t.Quantity); err != nil {
			return false, err
		}
	}

	cp := r.qb().Insert("sync_checkpoints").
		Columns("source", "last_log_id", "updated_at").
		Values(source, logID, sq.Expr("now()")).
		Suffix("ON CONFLICT (source) DO UPDATE SET last_log_id = GREATEST(sync_checkpoints.last_log_id, EXCLUDED.last_log_id), updated_at = now()")
	sqlStr, args, _ = cp.ToSql()
	r.logSQL(op+".checkpoint", sqlStr, args)
	if _, err := tx.Exec(ctx, sqlStr, args...); err != nil {
		return false, domain.Unavailable(op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, domain.Unavailable(op, err)
	}
	return inserted, nil
}
