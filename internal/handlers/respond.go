package handlers

import (
	"strconv"

	"storefront/internal/logging"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Message levels shown to the shopper.
const (
	levelInfo    = "info"
	levelSuccess = "success"
	levelWarning = "warning"
	levelError   = "error"
)

// respond writes the common envelope: message, level, optional redirect, plus data.
func respond(c *fiber.Ctx, status int, level, message, redirect string, data fiber.Map) error {
	body := fiber.Map{
		"message": message,
		"level":   level,
	}
	if redirect != "" {
		body["redirect"] = redirect
	}
	for k, v := range data {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

func internalError(c *fiber.Ctx, message string, err error) error {
	logging.FromContext(c.UserContext()).Error(message, "error", err)
	return respond(c, fiber.StatusInternalServerError, levelError, message, "", fiber.Map{"error": err.Error()})
}

func validationFailed(c *fiber.Ctx, message string, verr *services.ValidationError) error {
	return respond(c, fiber.StatusBadRequest, levelWarning, message, "", fiber.Map{"errors": verr.Fields})
}

func pageParam(c *fiber.Ctx) int {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
