package repo

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/example/inventory-dashboard/internal/domain"
)

func (r *PostgresStore) Transactions(ctx context.Context) (out []domain.Transaction, err error) {
	const op = "Transactions"
	q := r.qb().Select(
		"id::text", "order_ref", "item_name", "quantity",
		"unit_price::text", "total_revenue::text", "transaction_type", "source", "ts",
	).From("transactions").OrderBy("ts DESC", "order_ref ASC")

	sqlStr, args, _ := q.ToSql()
	r.logSQL(op, sqlStr, args)
	start := time.Now()
	defer func() { r.logDone(op, start, err) }()

	rows, err := r.Pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, domain.Unavailable(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t            domain.Transaction
			price, total string
			typ          string
		)
		if err := rows.Scan(&t.ID, &t.OrderRef, &t.ItemName, &t.Quantity, &price, &total, &typ, &t.Source, &t.Timestamp); err != nil {
			return nil, err
		}
		if t.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if t.TotalRevenue, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		t.TransactionType = domain.TransactionType(typ)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable(op, err)
	}
	return out, nil
}

func (r *PostgresStore) Restocks(ctx context.Context) (out []domain.Restock, err error) {
	const op = "Restocks"
	q := r.qb().Select("id", "item_name", "quantity_added", "ts", "source").
		From("restocks").OrderBy("ts DESC")

	sqlStr, args, _ := q.ToSql()
	r.logSQL(op, sqlStr, args)
	start := time.Now()
	defer func() { r.logDone(op, start, err) }()

	rows, err := r.Pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, domain.Unavailable(op, err)
	}
	defer rows.Close()
	for rows.Next() {
		var rs domain.Restock
		if err := rows.Scan(&rs.ID, &rs.ItemName, &rs.QuantityAdded, &rs.Timestamp, &rs.Source); err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable(op, err)
	}
	return out, nil
}

// AddRestock — вставка по ID и приход на склад в одной транзакции.
func (r *PostgresStore) AddRestock(ctx context.Context, rs domain.Restock) (inserted bool, err error) {
	const op = "AddRestock"
	start := time.Now()
	defer func() { r.logDone(op, start, err) }()

	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return false, domain.Unavailable(op, err)
	}
	defer tx.Rollback(ctx)

	ins := r.qb().Insert("restocks").
		Columns("id", "item_name", "quantity_added", "ts", "source").
		Values(rs.ID, rs.ItemName, rs.QuantityAdded, rs.Timestamp, rs.Source).
		Suffix("ON CONFLICT (id) DO NOTHING")
	sqlStr, args, _ := ins.ToSql()
	r.logSQL(op, sqlStr, args)
	tag, err := tx.Exec(ctx, sqlStr, args...)
	if err != nil {
		return false, domain.Unavailable(op, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if err := r.adjustInventory(ctx, tx, rs.ItemName, rs.QuantityAdded); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, domain.Unavailable(op, err)
	}
	return true, nil
}

func (r *PostgresStore) Inventory(ctx context.Context) (out []domain.InventoryItem, err error) {
	const op = "Inventory"
	q := r.qb().Select("item_name", "on_hand", "updated_at").From("inventory").OrderBy("item_name ASC")

	sqlStr, args, _ := q.ToSql()
	r.logSQL(op, sqlStr, args)
	start := time.Now()
	defer func() { r.logDone(op, start, err) }()

	rows, err := r.Pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, domain.Unavailable(op, err)
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.InventoryItem
		if err := rows.Scan(&it.ItemName, &it.OnHand, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable(op, err)
	}
	return out, nil
}

func (r *PostgresStore) adjustInventory(ctx context.Context, tx pgx.Tx, item string, delta int) error {
	q := r.qb().Insert("inventory").
		Columns("item_name", "on_hand", "updated_at").
		Values(item, delta, sq.Expr("now()")).
		Suffix("ON CONFLICT (item_name) DO UPDATE SET on_hand = inventory.on_hand + EXCLUDED.on_hand, updated_at = now()")
	sqlStr, args, _ := q.ToSql()
	r.logSQL("adjustInventory", sqlStr, args)
	if _, err := tx.Exec(ctx, sqlStr, args...); err != nil {
		return domain.Unavailable("adjustInventory", err)
	}
	return nil
}
