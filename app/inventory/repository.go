package inventory

import (
	"context"
	"io"

	"inventory/domain"
)

// Repository is the record store the service writes items to.
type Repository interface {
	ListItems(ctx context.Context) ([]domain.InventoryItem, error)
	GetItem(ctx context.Context, id int64) (domain.InventoryItem, error)
	CreateItem(ctx context.Context, name, description string, photoFilename *string) (int64, error)
	UpdateItem(ctx context.Context, id int64, name, description *string) error
	UpdatePhoto(ctx context.Context, id int64, filename string) (previous *string, err error)
	DeleteItem(ctx context.Context, id int64) (domain.InventoryItem, error)
}

// BlobStore holds photo bytes under generated names.
type BlobStore interface {
	Save(ctx context.Context, r io.Reader, ext string) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, name string) error
}
