package inventory

import (
	"github.com/gofiber/fiber/v2"
)

type ReplaceItemPhotoHandler struct {
	service *Service
}

func NewReplaceItemPhotoHandler(service *Service) *ReplaceItemPhotoHandler {
	return &ReplaceItemPhotoHandler{service: service}
}

// Handle serves PUT /inventory/:id/photo with a multipart "photo" file.
func (h *ReplaceItemPhotoHandler) Handle(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	photo, closePhoto, err := formPhoto(c, "photo")
	if err != nil {
		return err
	}
	defer closePhoto()

	item, err := h.service.ReplacePhoto(c.UserContext(), id, photo)
	if err != nil {
		return toHTTPError("photo.update", err)
	}
	return c.JSON(item)
}
