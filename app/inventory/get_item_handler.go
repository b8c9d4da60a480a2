package inventory

import (
	"context"

	"inventory/domain"
)

type GetItemHandler struct {
	service *Service
}

func NewGetItemHandler(service *Service) *GetItemHandler {
	return &GetItemHandler{service: service}
}

type GetItemRequest struct {
	ItemID int64 `params:"id" json:"-"`
}

type GetItemResponse = domain.InventoryItemDTO

func (h *GetItemHandler) Handle(ctx context.Context, req *GetItemRequest) (*GetItemResponse, error) {
	item, err := h.service.Get(ctx, req.ItemID)
	if err != nil {
		return nil, toHTTPError("show", err)
	}
	return &item, nil
}
