package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-insights-api/internal/dto"
	"github.com/noah-isme/classroom-insights-api/internal/middleware"
	"github.com/noah-isme/classroom-insights-api/internal/service"
	"github.com/noah-isme/classroom-insights-api/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TeacherAnalyticsHandler serves the teacher dashboard endpoints.
type TeacherAnalyticsHandler struct {
	service   service.TeacherAnalyticsService
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewTeacherAnalyticsHandler constructs the handler.
func NewTeacherAnalyticsHandler(service service.TeacherAnalyticsService, validate *validator.Validate, logger zerolog.Logger) *TeacherAnalyticsHandler {
	return &TeacherAnalyticsHandler{
		service:   service,
		validator: validate,
		logger:    logger.With().Str("component", "teacher_analytics_handler").Logger(),
		now:       time.Now,
	}
}

// Register wires the routes. The router must already resolve the caller's teacher profile.
func (h *TeacherAnalyticsHandler) Register(router fiber.Router) {
	router.Get("/stats", h.stats)
	router.Get("/students/attention", h.studentsNeedingAttention)
	router.Get("/classes/performance", h.classPerformance)
	router.Get("/classes/performance/export", h.exportClassPerformance)
}

func (h *TeacherAnalyticsHandler) stats(c *fiber.Ctx) error {
	teacherID, ok := middleware.TeacherID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "teacher context missing")
	}

	summary, cacheHit, err := h.service.GetTeacherStats(requestContext(c), teacherID)
	if err != nil {
		logger := requestLogger(h.logger, c)
		switch {
		case errors.Is(err, service.ErrStoreUnavailable), errors.Is(err, context.DeadlineExceeded):
			logger.Error().Err(err).Uint("teacher_id", teacherID).Msg("teacher stats unavailable")
			return utils.SendError(c, fiber.StatusServiceUnavailable, "analytics temporarily unavailable")
		default:
			logger.Error().Err(err).Uint("teacher_id", teacherID).Msg("failed to compute teacher stats")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to compute teacher stats")
		}
	}

	return utils.OK(c, summary, "teacher stats retrieved", dto.StatsMeta{CacheHit: cacheHit})
}

func (h *TeacherAnalyticsHandler) studentsNeedingAttention(c *fiber.Ctx) error {
	teacherID, ok := middleware.TeacherID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "teacher context missing")
	}

	var query dto.AttentionQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid limit", map[string]string{"limit": "integer"})
	}
	if err := h.validator.Struct(query); err != nil {
		if isValidationError(err) {
			return utils.Fail(c, fiber.StatusBadRequest, "invalid query parameters", validationDetails(err))
		}
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	students := h.service.GetStudentsNeedingAttention(requestContext(c), teacherID, query.Limit)
	return utils.SendSuccess(c, "students needing attention retrieved", students)
}

func (h *TeacherAnalyticsHandler) classPerformance(c *fiber.Ctx) error {
	teacherID, ok := middleware.TeacherID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "teacher context missing")
	}

	classes := h.service.GetClassPerformance(requestContext(c), teacherID)
	return utils.SendSuccess(c, "class performance retrieved", classes)
}

func (h *TeacherAnalyticsHandler) exportClassPerformance(c *fiber.Ctx) error {
	teacherID, ok := middleware.TeacherID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "teacher context missing")
	}

	payload, err := h.service.ExportClassPerformance(requestContext(c), teacherID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("teacher_id", teacherID).Msg("failed to export class performance")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to export class performance")
	}

	filename := fmt.Sprintf("class-performance-%d-%s.xlsx", teacherID, h.now().UTC().Format("20060102"))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Status(fiber.StatusOK).Send(payload)
}
