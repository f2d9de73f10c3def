// handlers/user.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"meepleon-backend/middleware"
	"meepleon-backend/services"
)

func SetupUserRoutes(api fiber.Router, authService *services.AuthService, listingService *services.ListingService) {
	users := api.Group("/users")

	// 🔐 Own profile — /me before /:id so the literal segment wins
	users.Get("/me", middleware.RequireAuth, authService.Me)
	users.Get("/me/listings", middleware.RequireAuth, listingService.GetMyListings)

	// 🔓 Public profile
	users.Get("/:id", authService.GetUser)
}
