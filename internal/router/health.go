package router

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HealthChecker reports whether the record store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthCheckers is healthy only when every checker is.
type HealthCheckers []HealthChecker

func (hs HealthCheckers) Ping(ctx context.Context) error {
	for _, h := range hs {
		if err := h.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func healthHandler(checker HealthChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resp := healthResponse{Status: "healthy", Timestamp: time.Now().UTC()}

		if checker != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := checker.Ping(ctx); err != nil {
				zap.L().Warn("Health check failed", zap.Error(err))
				resp.Status = "unavailable"
				return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
			}
		}

		return c.JSON(resp)
	}
}
