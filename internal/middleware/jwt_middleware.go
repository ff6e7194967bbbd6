package middleware

import (
	"strings"

	"storefront/internal/logging"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserID   = "user_id"
	localUsername = "username"
)

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
				"level":   "error",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
				"level":   "error",
			})
		}

		ctx := c.UserContext()
		claims, err := authService.ValidateToken(ctx, parts[1])
		if err != nil {
			logging.FromContext(ctx).Info("JWT validation failed", "error", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"level":   "error",
				"error":   err.Error(),
			})
		}

		userID, _ := claims["user_id"].(string)
		username, _ := claims["username"].(string)
		c.Locals(localUserID, userID)
		c.Locals(localUsername, username)

		log := logging.FromContext(ctx).With("user_id", userID)
		c.SetUserContext(logging.IntoContext(ctx, log))

		return c.Next()
	}
}

// CurrentUserID returns the authenticated user's id, or "" outside AuthRequired.
func CurrentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}
