package inventory

import (
	"errors"
	"strconv"

	"inventory/pkg/httperror"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// toHTTPError maps service errors onto HTTP errors for the given action, e.g. "show".
func toHTTPError(action string, err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return httperror.BadRequest("inventory."+action+".validation_failed", err.Error(), nil)
	case errors.Is(err, ErrPhotoNotFound):
		return httperror.NotFound("inventory.photo.not_found", "Photo not found", nil)
	case errors.Is(err, ErrNotFound):
		return httperror.NotFound("inventory."+action+".not_found", "Item not found", nil)
	default:
		return httperror.InternalServerError("inventory."+action+".failed", "Internal server error.", nil).WithCause(err)
	}
}

func validationFailed(action string, err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return httperror.BadRequest("inventory."+action+".validation_failed", "Validation failed for the request", ve.Error())
	}
	return httperror.InternalServerError("inventory."+action+".validation_error", "An unexpected validation error occurred", nil).WithCause(err)
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, httperror.BadRequest(
			"request.invalid_path_params",
			"Invalid path params",
			fiber.Map{"error": "id must be an integer"},
		)
	}
	return id, nil
}
