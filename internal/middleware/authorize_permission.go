package middleware

import (
	"context"
	"errors"

	"nexar-backend/internal/pkg/constants"
	"nexar-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ErrUnknownAccount is returned by a RoleResolver when the session points at a deleted account.
var ErrUnknownAccount = errors.New("Account not found")

// RoleResolver reads the caller's current role from the source of truth.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID string) (string, error)
}

// AuthorizePermission checks the caller's role, resolved fresh on every request, against
// constants.PermissionRoles. Anonymous -> 401; unknown or forbidden role -> 403 "Access denied";
// unconfigured permission -> 500.
func AuthorizePermission(resolver RoleResolver, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		roles, ok := constants.PermissionRoles[permission]
		if !ok || len(roles) == 0 {
			return response.Error(c, "Permission configuration error", 500, nil)
		}
		role, err := resolver.ResolveRole(c.UserContext(), user.UserID)
		if err != nil {
			if errors.Is(err, ErrUnknownAccount) {
				return response.Forbidden(c, "Access denied")
			}
			log.Error().Err(err).Str("user_id", user.UserID).Msg("authorize: role lookup failed")
			return response.Error(c, "Authorization error", 500, nil)
		}
		if !constants.AllowedRole(permission, role) {
			return response.Forbidden(c, "Access denied")
		}
		c.Locals("role", role)
		return c.Next()
	}
}

// GetRole returns the role resolved by AuthorizePermission for this request.
func GetRole(c *fiber.Ctx) string {
	r, _ := c.Locals("role").(string)
	return r
}
