package events

import "time"

const (
	InventoryExchange = "inventory.item"
	EventVersionV1    = "v1"
)

const (
	ItemRegisteredEvent    = "inventory.item.registered"
	ItemUpdatedEvent       = "inventory.item.updated"
	ItemDeletedEvent       = "inventory.item.deleted"
	ItemPhotoReplacedEvent = "inventory.photo.replaced"
)

type ItemRegisteredPayload struct {
	ID            int64     `json:"id"`
	InventoryName string    `json:"inventoryName"`
	Description   string    `json:"description"`
	HasPhoto      bool      `json:"hasPhoto"`
	RegisteredAt  time.Time `json:"registeredAt"`
}

type ItemUpdatedPayload struct {
	ID            int64     `json:"id"`
	InventoryName string    `json:"inventoryName"`
	Description   string    `json:"description"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type ItemDeletedPayload struct {
	ID        int64     `json:"id"`
	HadPhoto  bool      `json:"hadPhoto"`
	DeletedAt time.Time `json:"deletedAt"`
}

type ItemPhotoReplacedPayload struct {
	ID         int64     `json:"id"`
	PhotoURL   string    `json:"photoUrl"`
	ReplacedAt time.Time `json:"replacedAt"`
}
