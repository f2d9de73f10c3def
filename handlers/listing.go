// handlers/listing.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"meepleon-backend/middleware"
	"meepleon-backend/services"
)

func SetupListingRoutes(api fiber.Router, listingService *services.ListingService) {
	listings := api.Group("/listings")

	// 🔓 Public feed — /today before /:id so the literal segment wins
	listings.Get("/", listingService.GetListings)
	listings.Get("/today", listingService.GetTodayListings)
	listings.Get("/:id", listingService.GetListing)

	// 🔐 Owner operations
	listings.Post("/", middleware.RequireAuth, listingService.CreateListing)
	listings.Put("/:id", middleware.RequireAuth, listingService.UpdateListing)
	listings.Patch("/:id", middleware.RequireAuth, listingService.UpdateListing)
	listings.Patch("/:id/status", middleware.RequireAuth, listingService.UpdateListingStatus)
	listings.Delete("/:id", middleware.RequireAuth, listingService.DeleteListing)

	listings.Post("/:id/images", middleware.RequireAuth, listingService.AddImages)
	listings.Post("/:id/images/upload", middleware.RequireAuth, listingService.UploadImages)
	listings.Delete("/:id/images/:imageId", middleware.RequireAuth, listingService.DeleteImage)
}
