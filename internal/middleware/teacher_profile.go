package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-insights-api/internal/models"
	"github.com/noah-isme/classroom-insights-api/internal/utils"
)

// TeacherLookup finds the teacher profile behind a user account.
type TeacherLookup interface {
	GetByUserID(ctx context.Context, userID uint) (models.Teacher, error)
}

// ResolveTeacher maps the authenticated user to a teacher id stored under LocalTeacherID.
func ResolveTeacher(lookup TeacherLookup, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "teacher_profile").Logger()

	return func(c *fiber.Ctx) error {
		userID, ok := UserID(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		teacher, err := lookup.GetByUserID(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.SendError(c, fiber.StatusNotFound, "teacher profile not found")
			}
			log.Error().Err(err).Str("correlation_id", GetCorrelationID(c)).Uint("user_id", userID).Msg("failed to resolve teacher profile")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve teacher profile")
		}

		c.Locals(LocalTeacherID, teacher.ID)
		return c.Next()
	}
}
