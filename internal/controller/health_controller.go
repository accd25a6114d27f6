package controller

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck probes one dependency. Probes must be cheap.
type HealthCheck func(ctx context.Context) error

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	checks map[string]HealthCheck
}

func NewHealthController(checks map[string]HealthCheck) IHealthController {
	return &healthController{checks: checks}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/healthz", c.Health)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	probeCtx, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
	defer cancel()

	status, label := fiber.StatusOK, "ok"
	results := make(map[string]string, len(c.checks))
	for name, check := range c.checks {
		if err := check(probeCtx); err != nil {
			results[name] = err.Error()
			status, label = fiber.StatusServiceUnavailable, "degraded"
			continue
		}
		results[name] = "ok"
	}

	return ctx.Status(status).JSON(fiber.Map{
		"status": label,
		"checks": results,
	})
}
