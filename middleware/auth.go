// middleware/auth.go
package middleware

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"meepleon-backend/utils"
)

func parseToken(c *fiber.Ctx) (uint, error) {
	header := c.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return 0, utils.NewUnauthorized("missing bearer token")
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return 0, utils.NewUnauthorized("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, utils.NewUnauthorized("invalid token claims")
	}
	userID, ok := claims["userId"].(float64)
	if !ok || userID <= 0 {
		return 0, utils.NewUnauthorized("invalid token claims")
	}
	return uint(userID), nil
}

// RequireAuth rejects requests without a valid session token and stores the
// caller's user id in locals.
func RequireAuth(c *fiber.Ctx) error {
	userID, err := parseToken(c)
	if err != nil {
		return err
	}
	c.Locals("user_id", userID)
	return c.Next()
}

// OptionalAuth stores the caller's user id when a valid token is present and
// lets the request through either way.
func OptionalAuth(c *fiber.Ctx) error {
	if userID, err := parseToken(c); err == nil {
		c.Locals("user_id", userID)
	}
	return c.Next()
}
