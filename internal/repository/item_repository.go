package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/inventory-reservation/internal/model"
)

// ItemRepo provides data access to the items table.  Items are created
// once and never mutated or deleted in scope; availability is derived
// from the reservations table, never stored here.  All timestamp
// columns are stored in UTC.
type ItemRepo struct {
	db *sql.DB
}

// NewItemRepo returns a new ItemRepo bound to the given database.
func NewItemRepo(db *sql.DB) *ItemRepo { return &ItemRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning multiple repositories.
func (r *ItemRepo) DB() *sql.DB { return r.db }

// Create inserts a new item row and reads it back to populate the
// database-assigned timestamps.  The caller supplies the generated ID.
func (r *ItemRepo) Create(ctx context.Context, it *model.Item) error {
	const q = `INSERT INTO items (id, name, total_quantity) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, it.ID, it.Name, it.TotalQuantity); err != nil {
		return err
	}
	const sel = `SELECT id, name, total_quantity, created_at, updated_at FROM items WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, it.ID).Scan(
		&it.ID, &it.Name, &it.TotalQuantity, &it.CreatedAt, &it.UpdatedAt,
	)
}

// GetByID returns a single item.  ErrItemNotFound is returned when no
// row exists for the given id.
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*model.Item, error) {
	const q = `SELECT id, name, total_quantity, created_at, updated_at FROM items WHERE id = ?`
	var it model.Item
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&it.ID, &it.Name, &it.TotalQuantity, &it.CreatedAt, &it.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// TotalQuantity returns only the total_quantity column for an item.
// The accounting paths call this on every availability computation, so
// it avoids scanning columns they do not need.
func (r *ItemRepo) TotalQuantity(ctx context.Context, id string) (int, error) {
	const q = `SELECT total_quantity FROM items WHERE id = ?`
	var total int
	err := r.db.QueryRowContext(ctx, q, id).Scan(&total)
	if err == sql.ErrNoRows {
		return 0, ErrItemNotFound
	}
	if err != nil {
		return 0, err
	}
	return total, nil
}

// List returns all items ordered by creation time descending (newest
// first).  When no items exist, an empty slice is returned.
func (r *ItemRepo) List(ctx context.Context) ([]model.Item, error) {
	const q = `SELECT id, name, total_quantity, created_at, updated_at
	           FROM items
	           ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Item, 0)
	for rows.Next() {
		var it model.Item
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&it.ID, &it.Name, &it.TotalQuantity, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		it.CreatedAt = createdAt.UTC()
		it.UpdatedAt = updatedAt.UTC()
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
