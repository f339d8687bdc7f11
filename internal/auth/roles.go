package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// CheckRole verifies the session satisfies the required role. Admins satisfy the
// member requirement; members never satisfy the admin requirement.
func CheckRole(session *domain.Session, required domain.Role) error {
	if session == nil || session.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	actual := session.User.Role
	switch required {
	case domain.RoleAdmin:
		switch actual {
		case domain.RoleAdmin:
			return nil
		case domain.RoleMember:
			return apperrors.NewForbidden("admin access required")
		}
	case domain.RoleMember:
		switch actual {
		case domain.RoleAdmin, domain.RoleMember:
			return nil
		}
	}
	return apperrors.NewForbidden("unrecognized role")
}

// RequireRole gates a route group on the caller's role. It must run after AuthMiddleware.Handle.
func RequireRole(required domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, _ := SessionFromContext(c)
		if err := CheckRole(session, required); err != nil {
			return err
		}
		return c.Next()
	}
}
