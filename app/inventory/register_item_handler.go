package inventory

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

type RegisterItemHandler struct {
	service *Service
}

func NewRegisterItemHandler(service *Service) *RegisterItemHandler {
	return &RegisterItemHandler{service: service}
}

type RegisterItemRequest struct {
	Name        string `form:"inventory_name" validate:"required"`
	Description string `form:"description"`
}

// Handle serves POST /register with a multipart (or url-encoded) form.
func (h *RegisterItemHandler) Handle(c *fiber.Ctx) error {
	var req RegisterItemRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}

	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(&req); err != nil {
		return validationFailed("register", err)
	}

	photo, closePhoto, err := formPhoto(c, "photo")
	if err != nil {
		return err
	}
	defer closePhoto()

	item, err := h.service.Register(c.UserContext(), RegisterInput{
		Name:        req.Name,
		Description: req.Description,
		Photo:       photo,
	})
	if err != nil {
		return toHTTPError("register", err)
	}

	return c.Status(fiber.StatusCreated).JSON(item)
}
