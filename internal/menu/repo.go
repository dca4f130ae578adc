// Package menu provides the repository interface and PostgreSQL
// implementation for the menu items a business manages.
package menu

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("menu item not found")
)

type Query struct {
	BusinessID string
	Q          string
	Limit      int
	Offset     int
}

type Repository interface {
	Create(ctx context.Context, it *Item) error
	GetByID(ctx context.Context, id string) (*Item, error)
	List(ctx context.Context, q Query) ([]Item, error)
	Update(ctx context.Context, it *Item, updatePrice bool) error
	Delete(ctx context.Context, id string) (bool, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, it *Item) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO menu_items (id, business_id, name, description, price, category, available, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW())
	`, it.ID, it.BusinessID, it.Name, it.Description, it.Price, it.Category, it.Available)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var it Item
	err := r.db.QueryRow(ctx, `
		SELECT id, business_id, name, description, price::text, category, available, created_at, updated_at
		FROM menu_items WHERE id=$1
	`, id).Scan(&it.ID, &it.BusinessID, &it.Name, &it.Description, &it.Price, &it.Category, &it.Available, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, ErrNotFound
	}
	return &it, nil
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	search := strings.TrimSpace(q.Q)

	rows, err := r.db.Query(ctx, `
		SELECT id, business_id, name, description, price::text, category, available, created_at, updated_at
		FROM menu_items
		WHERE business_id = $1
		  AND ($2 = '' OR name ILIKE '%'||$2||'%' OR description ILIKE '%'||$2||'%')
		ORDER BY category, name
		LIMIT $3 OFFSET $4
	`, q.BusinessID, search, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.BusinessID, &it.Name, &it.Description, &it.Price, &it.Category, &it.Available, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, it *Item, updatePrice bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if updatePrice {
		_, err := r.db.Exec(ctx, `
			UPDATE menu_items
			SET name = COALESCE(NULLIF($2,''), name),
			    description = COALESCE(NULLIF($3,''), description),
			    price = $4,
			    category = COALESCE(NULLIF($5,''), category),
			    available = $6,
			    updated_at = NOW()
			WHERE id = $1
		`, it.ID, it.Name, it.Description, it.Price, it.Category, it.Available)
		return err
	}

	_, err := r.db.Exec(ctx, `
		UPDATE menu_items
		SET name = COALESCE(NULLIF($2,''), name),
		    description = COALESCE(NULLIF($3,''), description),
		    category = COALESCE(NULLIF($4,''), category),
		    available = $5,
		    updated_at = NOW()
		WHERE id = $1
	`, it.ID, it.Name, it.Description, it.Category, it.Available)
	return err
}

func (r *PGRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM menu_items WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
