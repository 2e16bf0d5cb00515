package middleware

import (
	"context"
	"encoding/json"
	"time"

	"nexar-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const errorLogSize = 50

// NewErrorHandler returns the global error handler. It writes the standard error envelope and,
// for 5xx, logs the error and pushes it onto the Redis error log read by the health dashboard.
// rdb may be nil.
func NewErrorHandler(rdb *redis.Client) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		}
		if code >= 500 {
			log.Error().Err(err).Str("trace_id", GetTraceID(c)).Str("path", c.Path()).Msg("Unhandled error")
			if rdb != nil {
				RecordError(context.Background(), rdb, c.Method(), c.OriginalURL(), err.Error())
			}
		}
		return response.Error(c, message, code, nil)
	}
}

// RecordError prepends an entry to the health error log, keeping the newest errorLogSize.
func RecordError(ctx context.Context, rdb *redis.Client, method, path, message string) {
	b, _ := json.Marshal(map[string]interface{}{
		"time":    time.Now().UTC(),
		"method":  method,
		"path":    path,
		"message": message,
	})
	pipe := rdb.TxPipeline()
	pipe.LPush(ctx, KeyErrorLog, b)
	pipe.LTrim(ctx, KeyErrorLog, 0, errorLogSize-1)
	_, _ = pipe.Exec(ctx)
}
