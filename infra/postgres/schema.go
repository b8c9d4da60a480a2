package postgres

import (
	"context"
	"fmt"
)

var schemas = map[string]string{
	dialectPostgres: `
		CREATE TABLE IF NOT EXISTS inventory (
			id SERIAL PRIMARY KEY,
			inventory_name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			photo_filename TEXT
		)`,
	dialectSQLite: `
		CREATE TABLE IF NOT EXISTS inventory (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			inventory_name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			photo_filename TEXT
		)`,
}

// EnsureSchema creates the inventory table when it does not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemas[dialectOf(r.db)]); err != nil {
		return fmt.Errorf("create inventory table: %w", err)
	}
	return nil
}
