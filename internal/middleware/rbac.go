package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/classroom-insights-api/internal/utils"
)

// RequireRole admits requests whose token role matches one of roles, ignoring case.
// Anonymous requests get 401 and other roles 403.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make([]string, 0, len(roles))
	for _, role := range roles {
		if role = strings.TrimSpace(role); role != "" {
			allowed = append(allowed, role)
		}
	}

	return func(c *fiber.Ctx) error {
		if _, ok := UserID(c); !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}
		if !hasRole(c.Locals(LocalUserRole), allowed) {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

func hasRole(value interface{}, allowed []string) bool {
	role, _ := value.(string)
	role = strings.TrimSpace(role)
	if role == "" {
		return false
	}
	for _, candidate := range allowed {
		if strings.EqualFold(candidate, role) {
			return true
		}
	}
	return false
}
