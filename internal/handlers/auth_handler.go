package handlers

import (
	"errors"

	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var user models.User
	if err := c.BodyParser(&user); err != nil {
		return respond(c, fiber.StatusBadRequest, levelError, "Invalid request body", "", fiber.Map{"error": err.Error()})
	}
	if err := h.validate.Struct(user); err != nil {
		return validationFailed(c, "Validation failed", services.ValidationErrors(err))
	}

	ctx := c.UserContext()
	if err := h.authService.RegisterUser(ctx, &user); err != nil {
		if errors.Is(err, services.ErrUsernameTaken) || errors.Is(err, services.ErrEmailTaken) {
			return respond(c, fiber.StatusConflict, levelWarning, "Registration failed", "", fiber.Map{"error": err.Error()})
		}
		return internalError(c, "Could not register user", err)
	}
	logging.FromContext(ctx).Info("user registered", "user_id", user.ID)

	user.Password = ""
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"level":   levelSuccess,
		"user":    user,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return respond(c, fiber.StatusBadRequest, levelError, "Invalid request body", "", fiber.Map{"error": err.Error()})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, "Validation failed", services.ValidationErrors(err))
	}

	token, err := h.authService.LoginUser(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			logging.FromContext(c.UserContext()).Info("login rejected", "username", req.Username)
			return respond(c, fiber.StatusUnauthorized, levelError, "Authentication failed", "", fiber.Map{"error": err.Error()})
		}
		return internalError(c, "Could not log in", err)
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"level":   levelSuccess,
		"token":   token,
	})
}
