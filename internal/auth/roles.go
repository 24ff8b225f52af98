package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// CheckRole fails with Forbidden when user does not hold role.
func CheckRole(user *domain.User, role domain.Role) error {
	if user == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if user.Role != role {
		return apperrors.NewForbidden("insufficient role")
	}
	return nil
}

// RequireRole ensures the authenticated user holds role.
func RequireRole(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, _ := UserFromContext(c)
		if err := CheckRole(user, role); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures a user was loaded by AuthMiddleware.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := UserFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
