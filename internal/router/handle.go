package router

import (
	"context"
	"errors"

	"inventory/pkg/httperror"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Request any
type Response any

type HandlerInterface[R Request, Res Response] interface {
	Handle(ctx context.Context, req *R) (*Res, error)
}

// handle adapts a transport-agnostic handler to fiber: it binds the JSON body
// and path params into R and renders *Res as JSON.
func handle[R Request, Res Response](handler HandlerInterface[R, Res]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req R

		if err := c.BodyParser(&req); err != nil && !errors.Is(err, fiber.ErrUnprocessableEntity) {
			return WriteError(c, httperror.BadRequest(
				"request.invalid_body",
				"Invalid body",
				fiber.Map{"error": err.Error()},
			))
		}

		if err := c.ParamsParser(&req); err != nil {
			return WriteError(c, httperror.BadRequest(
				"request.invalid_path_params",
				"Invalid path params",
				fiber.Map{"error": err.Error()},
			))
		}

		res, err := handler.Handle(c.UserContext(), &req)
		if err != nil {
			return WriteError(c, err)
		}

		return c.JSON(res)
	}
}

// ErrorHandler is installed as the fiber app's error handler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return WriteError(c, err)
}

// WriteError renders err as {"code", "message", "details"}. Server errors never
// expose their cause.
func WriteError(c *fiber.Ctx, err error) error {
	if httpErr, ok := httperror.As(err); ok {
		payload := fiber.Map{
			"code":    httpErr.Code,
			"message": httpErr.Message,
		}

		if httpErr.Details != nil {
			payload["details"] = httpErr.Details
		}

		if httpErr.Status >= fiber.StatusInternalServerError {
			zap.L().Error("Handler returned server error", zap.String("code", httpErr.Code), zap.Error(httpErr))
		} else {
			zap.L().Warn("Handler returned client error", zap.String("code", httpErr.Code), zap.Error(httpErr))
		}

		return c.Status(httpErr.Status).JSON(payload)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code == fiber.StatusRequestEntityTooLarge {
		return WriteError(c, httperror.RequestEntityTooLarge(
			"request.too_large",
			"Request body too large",
			fiber.Map{"limit": c.App().Config().BodyLimit},
		))
	}
	if fiberErr != nil {
		zap.L().Warn("Fiber error", zap.Int("status", fiberErr.Code), zap.String("message", fiberErr.Message))
		code := "request.invalid"
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			code = "route.not_found"
		case fiber.StatusMethodNotAllowed:
			code = "route.method_not_allowed"
		}
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"code":    code,
			"message": fiberErr.Message,
		})
	}

	zap.L().Error("Unhandled error", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"code":    "internal_server_error",
		"message": "Internal server error.",
	})
}
