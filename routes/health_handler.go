package routes

import (
	"github.com/gofiber/fiber/v2"
)

// HealthHandler returns a simple health check.
func HealthHandler(c *fiber.Ctx) error {
	return c.SendString("ok")
}
