package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inventory/domain"

	"github.com/jmoiron/sqlx"
)

const itemColumns = `id, inventory_name, description, photo_filename`

// Repository is the record store for the inventory table.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// PoolStats exposes the connection pool counters for periodic logging.
func (r *Repository) PoolStats() sql.DBStats {
	return r.db.Stats()
}

func (r *Repository) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	items := make([]domain.InventoryItem, 0)
	query := r.db.Rebind(`SELECT ` + itemColumns + ` FROM inventory ORDER BY id ASC`)

	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (r *Repository) GetItem(ctx context.Context, id int64) (domain.InventoryItem, error) {
	var item domain.InventoryItem
	query := r.db.Rebind(`SELECT ` + itemColumns + ` FROM inventory WHERE id = ?`)

	err := r.db.GetContext(ctx, &item, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return item, domain.ErrItemNotFound
	}
	if err != nil {
		return item, fmt.Errorf("get item %d: %w", id, err)
	}
	return item, nil
}

func (r *Repository) CreateItem(ctx context.Context, name, description string, photoFilename *string) (int64, error) {
	var id int64
	query := r.db.Rebind(`
		INSERT INTO inventory (inventory_name, description, photo_filename)
		VALUES (?, ?, ?)
		RETURNING id`)

	if err := r.db.GetContext(ctx, &id, query, name, description, photoFilename); err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	return id, nil
}

// UpdateItem overwrites the provided fields only. The affected row count is the
// existence check, so a concurrent delete surfaces as ErrItemNotFound.
func (r *Repository) UpdateItem(ctx context.Context, id int64, name, description *string) error {
	query := r.db.Rebind(`
		UPDATE inventory SET
			inventory_name = COALESCE(?, inventory_name),
			description = COALESCE(?, description)
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, name, description, id)
	if err != nil {
		return fmt.Errorf("update item %d: %w", id, err)
	}
	return requireAffected(result)
}

// UpdatePhoto points the item at filename and returns the filename it replaced.
func (r *Repository) UpdatePhoto(ctx context.Context, id int64, filename string) (*string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	selectQuery := `SELECT photo_filename FROM inventory WHERE id = ?`
	if dialectOf(r.db) == dialectPostgres {
		selectQuery += ` FOR UPDATE`
	}

	var previous *string
	err = tx.GetContext(ctx, &previous, tx.Rebind(selectQuery), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock item %d: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE inventory SET photo_filename = ? WHERE id = ?`), filename, id)
	if err != nil {
		return nil, fmt.Errorf("update photo of item %d: %w", id, err)
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit photo update: %w", err)
	}
	return previous, nil
}

// DeleteItem removes the row and returns it as it was just before deletion.
func (r *Repository) DeleteItem(ctx context.Context, id int64) (domain.InventoryItem, error) {
	var item domain.InventoryItem
	query := r.db.Rebind(`DELETE FROM inventory WHERE id = ? RETURNING ` + itemColumns)

	err := r.db.GetContext(ctx, &item, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return item, domain.ErrItemNotFound
	}
	if err != nil {
		return item, fmt.Errorf("delete item %d: %w", id, err)
	}
	return item, nil
}

func requireAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}
