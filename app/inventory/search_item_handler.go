package inventory

import (
	"strconv"
	"strings"

	"inventory/pkg/httperror"

	"github.com/gofiber/fiber/v2"
)

type SearchItemHandler struct {
	service *Service
}

func NewSearchItemHandler(service *Service) *SearchItemHandler {
	return &SearchItemHandler{service: service}
}

type SearchItemRequest struct {
	ID string `form:"id" validate:"required"`
}

// Handle serves POST /search and answers with an HTML page.
func (h *SearchItemHandler) Handle(c *fiber.Ctx) error {
	var req SearchItemRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}

	req.ID = strings.TrimSpace(req.ID)
	if err := validate.Struct(&req); err != nil {
		return validationFailed("search", err)
	}
	id, err := strconv.ParseInt(req.ID, 10, 64)
	if err != nil {
		return httperror.BadRequest("inventory.search.validation_failed", "id must be an integer", nil)
	}

	page, err := h.service.SearchRender(c.UserContext(), id, formHas(c, "has_photo"))
	if err != nil {
		return toHTTPError("search", err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(page)
}

// formHas reports whether key was submitted at all, whatever its value. An
// unchecked checkbox is simply absent from the form.
func formHas(c *fiber.Ctx, key string) bool {
	if form, err := c.MultipartForm(); err == nil {
		_, ok := form.Value[key]
		return ok
	}
	return c.Request().PostArgs().Has(key)
}
