package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-insights-api/internal/dto"
	"github.com/noah-isme/classroom-insights-api/internal/service"
	"github.com/noah-isme/classroom-insights-api/internal/utils"
)

// Disabled seeding and a bad token share one response.
const seedForbiddenMessage = "seeding not permitted"

// SeedHandler exposes tooling endpoints for seeding data.
type SeedHandler struct {
	service   service.SeedService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSeedHandler constructs a seed handler.
func NewSeedHandler(service service.SeedService, validate *validator.Validate, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service:   service,
		validator: validate,
		logger:    logger.With().Str("component", "seed_handler").Logger(),
	}
}

// Register wires seed routes.
func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/demo-classroom", h.demoClassroom)
}

func (h *SeedHandler) demoClassroom(c *fiber.Ctx) error {
	token := c.Get("X-Seed-Token")

	var payload dto.SeedDemoClassroomRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", validationDetails(err))
	}

	result, err := h.service.SeedDemoClassroom(requestContext(c), token, payload)
	if err != nil {
		return h.seedError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "demo classroom seeded", result)
}

func (h *SeedHandler) seedError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSeedDisabled), errors.Is(err, service.ErrSeedUnauthorized):
		return utils.SendError(c, fiber.StatusForbidden, seedForbiddenMessage)
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("seed operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "seed operation failed")
	}
}
