package router

import (
	"os"
	"strings"
	"time"

	"inventory/app/inventory"
	"inventory/internal/middleware"
	"inventory/pkg/httperror"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

type Config struct {
	BodyLimit    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	StaticDir    string
}

// New builds the fiber app with every inventory route. health may be nil.
func New(cfg Config, service *inventory.Service, health HealthChecker, logger *zap.Logger) *fiber.App {
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = 10 << 20
	}

	app := fiber.New(fiber.Config{
		AppName:               "inventory",
		BodyLimit:             cfg.BodyLimit,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		IdleTimeout:           cfg.IdleTimeout,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(middleware.NewRequestLogger(logger))
	app.Use(recover.New())

	registerItem := inventory.NewRegisterItemHandler(service)
	getItems := inventory.NewGetItemsHandler(service)
	getItem := inventory.NewGetItemHandler(service)
	updateItem := inventory.NewUpdateItemHandler(service)
	deleteItem := inventory.NewDeleteItemHandler(service)
	getPhoto := inventory.NewGetItemPhotoHandler(service)
	replacePhoto := inventory.NewReplaceItemPhotoHandler(service)
	searchItem := inventory.NewSearchItemHandler(service)

	app.Post("/register", registerItem.Handle)
	app.All("/register", methodNotAllowed(fiber.MethodPost))

	app.Get("/inventory", handle[inventory.GetItemsRequest, inventory.GetItemsResponse](getItems))
	app.All("/inventory", methodNotAllowed(fiber.MethodGet))

	app.Get("/inventory/:id", handle[inventory.GetItemRequest, inventory.GetItemResponse](getItem))
	app.Put("/inventory/:id", handle[inventory.UpdateItemRequest, inventory.UpdateItemResponse](updateItem))
	app.Delete("/inventory/:id", handle[inventory.DeleteItemRequest, inventory.DeleteItemResponse](deleteItem))
	app.All("/inventory/:id", methodNotAllowed(fiber.MethodGet, fiber.MethodPut, fiber.MethodDelete))

	app.Get("/inventory/:id/photo", getPhoto.Handle)
	app.Put("/inventory/:id/photo", replacePhoto.Handle)
	app.All("/inventory/:id/photo", methodNotAllowed(fiber.MethodGet, fiber.MethodPut))

	app.Post("/search", searchItem.Handle)
	app.All("/search", methodNotAllowed(fiber.MethodPost))

	app.Get("/health", healthHandler(health))
	app.All("/health", methodNotAllowed(fiber.MethodGet))

	if cfg.StaticDir != "" {
		if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
			app.Static("/forms", cfg.StaticDir)
		} else {
			zap.L().Warn("Static form directory not found, forms disabled", zap.String("dir", cfg.StaticDir))
		}
	}

	return app
}

// methodNotAllowed answers 405 for a path whose allowed verbs are already
// registered ahead of it.
func methodNotAllowed(allowed ...string) fiber.Handler {
	allow := strings.Join(allowed, ", ")
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAllow, allow)
		return WriteError(c, httperror.MethodNotAllowed(
			"route.method_not_allowed",
			"Method Not Allowed",
			fiber.Map{"allowed": allowed},
		))
	}
}
