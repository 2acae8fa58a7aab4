package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/fablab-print-api/internal/utils"
)

// WorkstationLocal is the fiber local holding the authenticated workstation id.
const WorkstationLocal = "workstation_id"

// JWTProtected returns a middleware that validates workstation bearer tokens.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		workstation := extractWorkstationFromClaims(claims)
		if workstation == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "token carries no workstation")
		}
		c.Locals(WorkstationLocal, workstation)

		return c.Next()
	}
}

// WorkstationFromContext returns the workstation bound by JWTProtected, if any.
func WorkstationFromContext(c *fiber.Ctx) string {
	if v, ok := c.Locals(WorkstationLocal).(string); ok {
		return v
	}
	return ""
}

func extractWorkstationFromClaims(claims jwt.MapClaims) string {
	for _, key := range []string{"workstation_id", "sub"} {
		if value, ok := claims[key].(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
