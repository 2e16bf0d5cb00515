package policies

import (
	"context"

	"nexar-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// DestroyUserSessions removes every session of a user: each session:<sid> key and the
// user_sessions:<user_id> index.
func DestroyUserSessions(ctx context.Context, rdb *redis.Client, userID string) {
	if userID == "" || rdb == nil {
		return
	}
	key := middleware.UserSessionsRedisPrefix + userID
	sessionIDs, err := rdb.SMembers(ctx, key).Result()
	if err == nil && len(sessionIDs) > 0 {
		keys := make([]string, 0, len(sessionIDs))
		for _, sid := range sessionIDs {
			keys = append(keys, middleware.SessionRedisPrefix+sid)
		}
		rdb.Del(ctx, keys...)
	}
	rdb.Del(ctx, key)
}
