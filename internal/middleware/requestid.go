package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const ReqIDKey = "reqID"

// ids longer than this are replaced; kyc_records.request_id is VARCHAR(64)
const maxRequestIDLen = 64

func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get("X-Request-ID")
		if rid == "" || len(rid) > maxRequestIDLen {
			rid = uuid.New().String()
		}
		c.Set("X-Request-ID", rid)
		c.Locals(ReqIDKey, rid)
		return c.Next()
	}
}

// RequestIDFrom returns the id set by RequestID, or a fresh one when the
// middleware did not run.
func RequestIDFrom(c *fiber.Ctx) string {
	if rid, ok := c.Locals(ReqIDKey).(string); ok && rid != "" {
		return rid
	}
	return uuid.New().String()
}
