package inventory

import (
	"context"

	"inventory/domain"
)

type UpdateItemHandler struct {
	service *Service
}

func NewUpdateItemHandler(service *Service) *UpdateItemHandler {
	return &UpdateItemHandler{service: service}
}

type UpdateItemRequest struct {
	ItemID      int64   `params:"id" json:"-"`
	Name        *string `json:"inventory_name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type UpdateItemResponse = domain.InventoryItemDTO

func (h *UpdateItemHandler) Handle(ctx context.Context, req *UpdateItemRequest) (*UpdateItemResponse, error) {
	item, err := h.service.UpdateMetadata(ctx, req.ItemID, UpdateInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return nil, toHTTPError("update", err)
	}
	return &item, nil
}
