// internal/middleware/jwt_auth.go
package middleware

import (
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims the admin dashboard issues.
type TokenClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuth guards the mutating post routes. Tokens are HMAC-signed bearer
// tokens and the role claim must be "admin".
func JWTAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Printf("[JWT-AUTH] ❌ REJECTED (no bearer token) | IP=%s | Path=%s", c.IP(), c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized: missing bearer token",
			})
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims := &TokenClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			log.Printf("[JWT-AUTH] ❌ REJECTED (invalid token) | IP=%s | Path=%s | err=%v", c.IP(), c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized: invalid token",
			})
		}

		if claims.Role != "admin" {
			log.Printf("[JWT-AUTH] ❌ REJECTED (role %q) | User=%s | Path=%s", claims.Role, claims.Name, c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized: admin role required",
			})
		}

		log.Printf("[JWT-AUTH] ✅ ACCEPTED | User=%s | Path=%s", claims.Name, c.Path())
		c.Locals("userName", claims.Name)
		return c.Next()
	}
}
