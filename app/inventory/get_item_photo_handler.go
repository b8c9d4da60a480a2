package inventory

import (
	"bufio"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
)

const (
	sniffLen            = 3072
	fallbackContentType = "image/jpeg"
)

type GetItemPhotoHandler struct {
	service *Service
}

func NewGetItemPhotoHandler(service *Service) *GetItemPhotoHandler {
	return &GetItemPhotoHandler{service: service}
}

// Handle streams GET /inventory/:id/photo.
func (h *GetItemPhotoHandler) Handle(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	rc, err := h.service.GetPhoto(c.UserContext(), id)
	if err != nil {
		return toHTTPError("photo.show", err)
	}

	body := bufio.NewReaderSize(rc, sniffLen)
	head, _ := body.Peek(sniffLen)

	c.Set(fiber.HeaderContentType, photoContentType(head))
	return c.SendStream(&photoStream{Reader: body, Closer: rc})
}

// photoContentType sniffs head and falls back to image/jpeg for anything that is
// not recognised as an image.
func photoContentType(head []byte) string {
	detected := mimetype.Detect(head).String()
	if strings.HasPrefix(detected, "image/") {
		return detected
	}
	return fallbackContentType
}

// photoStream keeps the blob's Close reachable for fasthttp once the body is sent.
type photoStream struct {
	*bufio.Reader
	io.Closer
}
