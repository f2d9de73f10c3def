// utils/response.go
package utils

import "github.com/gofiber/fiber/v2"

// Success wraps data in the standard response envelope.
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

// Created is Success with a 201.
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": data})
}
