// Package order holds the marketplace order model, the per-scope
// in-memory store and the PostgreSQL repository used by the orders API.
package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/pedidos-live/internal/status"
)

var (
	ErrNotFound = errors.New("order not found")
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, st status.Status, note string) (*Order, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    INSERT INTO orders (id, business_id, user_id, status, total, customer_name,
                        customer_phone, delivery_address, notes, payment_method,
                        order_type, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
  `, o.ID, o.BusinessID, o.UserID, string(o.Status), o.Total.String(), o.CustomerName,
		o.CustomerPhone, o.DeliveryAddress, o.Notes, o.PaymentMethod,
		string(o.OrderType), o.CreatedAt, o.UpdatedAt); err != nil {
		return err
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
      INSERT INTO order_items (order_id, name, quantity, price, note)
      VALUES ($1,$2,$3,$4,$5)
    `, o.ID, it.Name, it.Quantity, it.Price.String(), it.Note); err != nil {
			return err
		}
	}

	for _, h := range o.StatusHistory {
		if _, err := tx.Exec(ctx, `
      INSERT INTO order_status_history (order_id, status, note, created_at)
      VALUES ($1,$2,$3,$4)
    `, o.ID, string(h.Status), h.Note, h.Timestamp); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := r.scanOrder(ctx, `
    SELECT id, business_id, user_id, status, total::text, customer_name,
           customer_phone, delivery_address, notes, payment_method, order_type,
           created_at, updated_at
    FROM orders WHERE id=$1
  `, id)
	if err != nil {
		return nil, err
	}
	if err := r.loadDetails(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PGRepo) ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]Order, error) {
	return r.list(ctx, `business_id`, businessID, limit, offset)
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	return r.list(ctx, `user_id`, userID, limit, offset)
}

func (r *PGRepo) list(ctx context.Context, col, val string, limit, offset int) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, `
    SELECT id, business_id, user_id, status, total::text, customer_name,
           customer_phone, delivery_address, notes, payment_method, order_type,
           created_at, updated_at
    FROM orders WHERE `+col+`=$1
    ORDER BY created_at DESC LIMIT $2 OFFSET $3
  `, val, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrderRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadDetails(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *PGRepo) UpdateStatus(ctx context.Context, id string, st status.Status, note string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	tag, err := tx.Exec(ctx, `
    UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1
  `, id, string(st), now)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	if _, err := tx.Exec(ctx, `
    INSERT INTO order_status_history (order_id, status, note, created_at)
    VALUES ($1,$2,$3,$4)
  `, id, string(st), note, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrderRow(row rowScanner) (*Order, error) {
	var o Order
	var st, ot, total string
	if err := row.Scan(&o.ID, &o.BusinessID, &o.UserID, &st, &total, &o.CustomerName,
		&o.CustomerPhone, &o.DeliveryAddress, &o.Notes, &o.PaymentMethod, &ot,
		&o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = status.Status(st)
	o.OrderType = status.OrderType(ot)
	t, err := decimal.NewFromString(total)
	if err != nil {
		return nil, err
	}
	o.Total = t
	return &o, nil
}

func (r *PGRepo) scanOrder(ctx context.Context, sql string, args ...any) (*Order, error) {
	o, err := scanOrderRow(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

func (r *PGRepo) loadDetails(ctx context.Context, o *Order) error {
	rows, err := r.db.Query(ctx, `
    SELECT name, quantity, price::text, note
    FROM order_items WHERE order_id=$1 ORDER BY id
  `, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		var price string
		if err := rows.Scan(&it.Name, &it.Quantity, &price, &it.Note); err != nil {
			return err
		}
		p, err := decimal.NewFromString(price)
		if err != nil {
			return err
		}
		it.Price = p
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	hrows, err := r.db.Query(ctx, `
    SELECT status, note, created_at
    FROM order_status_history WHERE order_id=$1 ORDER BY created_at, id
  `, o.ID)
	if err != nil {
		return err
	}
	defer hrows.Close()
	for hrows.Next() {
		var h HistoryEntry
		var st string
		if err := hrows.Scan(&st, &h.Note, &h.Timestamp); err != nil {
			return err
		}
		h.Status = status.Status(st)
		o.StatusHistory = append(o.StatusHistory, h)
	}
	return hrows.Err()
}
