package inventory

import (
	"context"

	"inventory/domain"
)

type DeleteItemHandler struct {
	service *Service
}

func NewDeleteItemHandler(service *Service) *DeleteItemHandler {
	return &DeleteItemHandler{service: service}
}

type DeleteItemRequest struct {
	ItemID int64 `params:"id" json:"-"`
}

// DeleteItemResponse is the item as it was before deletion.
type DeleteItemResponse = domain.InventoryItemDTO

func (h *DeleteItemHandler) Handle(ctx context.Context, req *DeleteItemRequest) (*DeleteItemResponse, error) {
	item, err := h.service.Delete(ctx, req.ItemID)
	if err != nil {
		return nil, toHTTPError("destroy", err)
	}
	return &item, nil
}
