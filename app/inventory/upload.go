package inventory

import (
	"errors"

	"inventory/pkg/httperror"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// formPhoto returns the uploaded file in field, or nil when the request carries
// none. The returned func closes the opened file.
func formPhoto(c *fiber.Ctx, field string) (*Photo, func(), error) {
	noop := func() {}

	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, fasthttp.ErrMissingFile) || errors.Is(err, fasthttp.ErrNoMultipartForm) {
			return nil, noop, nil
		}
		return nil, noop, httperror.BadRequest(
			"request.invalid_body",
			"Invalid multipart body",
			fiber.Map{"error": err.Error()},
		)
	}
	if header.Filename == "" && header.Size == 0 {
		return nil, noop, nil
	}

	file, err := header.Open()
	if err != nil {
		return nil, noop, httperror.InternalServerError("upload.file_open_error", "Failed to open uploaded file", nil).WithCause(err)
	}
	return &Photo{Content: file, Filename: header.Filename}, func() { _ = file.Close() }, nil
}

func invalidBody(err error) error {
	if errors.Is(err, fiber.ErrUnprocessableEntity) {
		return httperror.BadRequest("request.invalid_body", "Unsupported content type", nil)
	}
	return httperror.BadRequest(
		"request.invalid_body",
		"Invalid body",
		fiber.Map{"error": err.Error()},
	)
}
