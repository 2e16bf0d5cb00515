package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionConfig for the Redis-backed session.
type SessionConfig struct {
	Secret            string
	RedisURL          string
	AllowCrossSiteDev bool
	IsProduction      bool
}

const (
	SessionCookieName       = "nexar.sid"
	SessionRedisPrefix      = "session:"
	UserSessionsRedisPrefix = "user_sessions:"
	sessionMaxAge           = 24 * time.Hour
)

// SessionUser is the summary stored in the session under "user". It is a display cache only:
// authorization decisions re-read the profile from the database.
type SessionUser struct {
	UserID     string `json:"user_id"`
	ProfileID  string `json:"profile_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	SellerType string `json:"seller_type"`
	IsAdmin    bool   `json:"is_admin"`
}

// Session parses cfg.RedisURL and returns the session middleware together with its client.
func Session(cfg SessionConfig) (fiber.Handler, *redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	rdb := redis.NewClient(opt)
	return SessionStore(rdb), rdb, nil
}

// SessionStore loads the session named by the cookie from Redis before the handler runs and
// saves it afterwards when a session id is set.
func SessionStore(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies(SessionCookieName)

		var data map[string]interface{}
		if sessionID != "" {
			b, err := rdb.Get(c.UserContext(), SessionRedisPrefix+sessionID).Bytes()
			if err == nil {
				_ = json.Unmarshal(b, &data)
			}
			if data == nil {
				// unknown or expired id: do not resurrect it
				sessionID = ""
			}
		}
		if data == nil {
			data = make(map[string]interface{})
		}

		c.Locals("session_data", data)
		if u, ok := data["user"]; ok {
			c.Locals(userLocal, u)
		} else {
			c.Locals(userLocal, nil)
		}
		c.Locals("session_id", sessionID)

		if err := c.Next(); err != nil {
			return err
		}

		if sid, _ := c.Locals("session_id").(string); sid != "" {
			updated, _ := c.Locals("session_data").(map[string]interface{})
			if len(updated) > 0 {
				b, _ := json.Marshal(updated)
				ctx := context.Background()
				pipe := rdb.TxPipeline()
				pipe.Set(ctx, SessionRedisPrefix+sid, b, sessionMaxAge)
				// the user index must live at least as long as any session it lists
				if uid := sessionUserID(updated); uid != "" {
					pipe.SAdd(ctx, UserSessionsRedisPrefix+uid, sid)
					pipe.Expire(ctx, UserSessionsRedisPrefix+uid, sessionMaxAge)
				}
				_, _ = pipe.Exec(ctx)
			}
		}
		return nil
	}
}

func sessionUserID(data map[string]interface{}) string {
	u, _ := data["user"].(map[string]interface{})
	uid, _ := u["user_id"].(string)
	return uid
}

// GetSessionID returns the current session ID from context.
func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals("session_id").(string)
	return sid
}

// SetSessionUser stores the user summary in the session. Call RegenerateSessionID first.
func SetSessionUser(c *fiber.Ctx, user SessionUser) {
	data, _ := c.Locals("session_data").(map[string]interface{})
	if data == nil {
		data = make(map[string]interface{})
	}
	data["user"] = map[string]interface{}{
		"user_id":     user.UserID,
		"profile_id":  user.ProfileID,
		"name":        user.Name,
		"email":       user.Email,
		"seller_type": user.SellerType,
		"is_admin":    user.IsAdmin,
	}
	c.Locals("session_data", data)
	c.Locals(userLocal, data["user"])
}

// RegenerateSessionID creates a new session ID and sets it in Locals (cookie set by handler).
func RegenerateSessionID(c *fiber.Ctx) string {
	newID := uuid.New().String()
	c.Locals("session_id", newID)
	return newID
}

// TrackUserSession indexes sid under the user so every session can be destroyed at once.
func TrackUserSession(ctx context.Context, rdb *redis.Client, userID, sid string) error {
	key := UserSessionsRedisPrefix + userID
	pipe := rdb.TxPipeline()
	pipe.SAdd(ctx, key, sid)
	pipe.Expire(ctx, key, sessionMaxAge)
	_, err := pipe.Exec(ctx)
	return err
}

// DestroySession removes the current session from Redis and Locals. Caller clears the cookie.
func DestroySession(c *fiber.Ctx, rdb *redis.Client) {
	if sid := GetSessionID(c); sid != "" && rdb != nil {
		ctx := c.UserContext()
		rdb.Del(ctx, SessionRedisPrefix+sid)
		if u := CurrentUser(c); u != nil {
			rdb.SRem(ctx, UserSessionsRedisPrefix+u.UserID, sid)
		}
	}
	c.Locals("session_data", make(map[string]interface{}))
	c.Locals("session_id", "")
	c.Locals(userLocal, nil)
}

// SessionCookieConfig returns the cookie options used by SetCookie/ClearCookie.
func SessionCookieConfig(cfg SessionConfig) fiber.Cookie {
	sameSite := "Lax"
	if cfg.AllowCrossSiteDev {
		sameSite = "None"
	}
	secure := cfg.IsProduction || cfg.AllowCrossSiteDev
	return fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	}
}
