package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/classroom-insights-api/internal/config"
	"github.com/noah-isme/classroom-insights-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Service      string            `json:"service"`
	Environment  string            `json:"environment"`
	Dependencies map[string]string `json:"dependencies"`
}

// HealthProbe checks one dependency.
type HealthProbe func(ctx context.Context) error

// HealthCheck reports application health. A failing probe marks the service degraded.
func HealthCheck(cfg config.Config, probes map[string]HealthProbe) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(requestContext(c), 2*time.Second)
		defer cancel()

		payload := HealthResponse{
			Status:       "ok",
			Timestamp:    time.Now().UTC(),
			Service:      cfg.AppName,
			Environment:  cfg.AppEnv,
			Dependencies: make(map[string]string, len(probes)),
		}

		for name, probe := range probes {
			if probe == nil {
				continue
			}
			if err := probe(ctx); err != nil {
				payload.Dependencies[name] = "down"
				payload.Status = "degraded"
				continue
			}
			payload.Dependencies[name] = "up"
		}

		if payload.Status != "ok" {
			return utils.SendSuccessWithStatus(c, fiber.StatusServiceUnavailable, "service degraded", payload)
		}
		return utils.SendSuccess(c, "service healthy", payload)
	}
}
