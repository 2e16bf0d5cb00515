package middleware

import (
	"fmt"

	"nexar-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const userLocal = "user"

// RequireAuth ensures a user is in the session. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUser(c) == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// GetUser returns the raw session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// CurrentUser decodes the session user. Returns nil when anonymous or when the stored shape
// lacks a user id.
func CurrentUser(c *fiber.Ctx) *SessionUser {
	m, ok := GetUser(c).(map[string]interface{})
	if !ok {
		return nil
	}
	u := &SessionUser{
		UserID:     str(m["user_id"]),
		ProfileID:  str(m["profile_id"]),
		Name:       str(m["name"]),
		Email:      str(m["email"]),
		SellerType: str(m["seller_type"]),
	}
	u.IsAdmin, _ = m["is_admin"].(bool)
	if u.UserID == "" {
		return nil
	}
	return u
}

func str(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}
