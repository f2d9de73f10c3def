// handlers/home.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"meepleon-backend/services"
)

func SetupHomeRoutes(api fiber.Router, homeService *services.HomeService) {
	api.Get("/home", homeService.GetHome)
}
