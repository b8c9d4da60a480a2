package inventory

import (
	"context"

	"inventory/domain"
)

type GetItemsHandler struct {
	service *Service
}

func NewGetItemsHandler(service *Service) *GetItemsHandler {
	return &GetItemsHandler{service: service}
}

type GetItemsRequest struct{}

type GetItemsResponse []domain.InventoryItemDTO

func (h *GetItemsHandler) Handle(ctx context.Context, _ *GetItemsRequest) (*GetItemsResponse, error) {
	items, err := h.service.List(ctx)
	if err != nil {
		return nil, toHTTPError("index", err)
	}
	res := GetItemsResponse(items)
	return &res, nil
}
