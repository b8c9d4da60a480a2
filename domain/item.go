package domain

import (
	"errors"
	"fmt"
)

var (
	ErrItemNotFound = errors.New("inventory item not found")
	ErrBlobNotFound = errors.New("blob not found")
)

// InventoryItem is one row of the inventory table.
type InventoryItem struct {
	ID            int64   `db:"id" json:"id"`
	InventoryName string  `db:"inventory_name" json:"inventory_name"`
	Description   string  `db:"description" json:"description"`
	PhotoFilename *string `db:"photo_filename" json:"-"`
}

// HasPhoto reports whether the item references a stored photo.
func (i InventoryItem) HasPhoto() bool {
	return i.PhotoFilename != nil && *i.PhotoFilename != ""
}

// PhotoURL is the public path the photo of item id is served from.
func PhotoURL(id int64) string {
	return fmt.Sprintf("/inventory/%d/photo", id)
}

// InventoryItemDTO is the wire shape of an item. The blob filename stays private.
type InventoryItemDTO struct {
	ID            int64   `json:"id"`
	InventoryName string  `json:"inventory_name"`
	Description   string  `json:"description"`
	PhotoURL      *string `json:"photoUrl"`
}

func (i InventoryItem) ToDTO() InventoryItemDTO {
	dto := InventoryItemDTO{
		ID:            i.ID,
		InventoryName: i.InventoryName,
		Description:   i.Description,
	}
	if i.HasPhoto() {
		url := PhotoURL(i.ID)
		dto.PhotoURL = &url
	}
	return dto
}
