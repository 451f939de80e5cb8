package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func tokenIDFromContext(c *fiber.Ctx) string {
	if v := c.Locals("token_jti"); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func tokenExpiryFromContext(c *fiber.Ctx) time.Time {
	if v := c.Locals("token_exp"); v != nil {
		if expiry, ok := v.(time.Time); ok {
			return expiry
		}
	}
	return time.Time{}
}

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := c.Params(key)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(parsed), nil
}
