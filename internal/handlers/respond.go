package handlers

import (
	"errors"
	"log"

	"roadmaptracker/internal/middleware"
	"roadmaptracker/internal/services"

	"github.com/gofiber/fiber/v2"
)

func respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

// statusFor maps the service error taxonomy onto HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// failWith writes err as an error envelope. Internal details are logged, not returned.
func failWith(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	switch status {
	case fiber.StatusInternalServerError:
		log.Printf("❌ %s %s failed: %v", c.Method(), c.Path(), err)
		return fail(c, status, "Internal server error")
	case fiber.StatusForbidden:
		return fail(c, status, "Only the roadmap owner can do that")
	case fiber.StatusNotFound:
		return fail(c, status, "Not found")
	default:
		return fail(c, status, err.Error())
	}
}

// callerEmail returns the authenticated email, false when the request carries none
func callerEmail(c *fiber.Ctx) (string, bool) {
	email := middleware.UserEmail(c)
	return email, email != ""
}

func unauthenticated(c *fiber.Ctx) error {
	return fail(c, fiber.StatusUnauthorized, "Authentication required")
}
