// handlers/game.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"meepleon-backend/middleware"
	"meepleon-backend/services"
)

func SetupGameRoutes(api fiber.Router, gameService *services.GameService) {
	games := api.Group("/games")

	// 🔓 Public — optional auth so the detail view can include the caller's rating
	games.Get("/:bggId", middleware.OptionalAuth, gameService.GetGameDetail)
	games.Get("/:bggId/ratings", gameService.GetRatings)

	// 🔐 Ratings — auth required
	games.Post("/:bggId/ratings", middleware.RequireAuth, gameService.CreateRating)
	api.Put("/ratings/:ratingId", middleware.RequireAuth, gameService.UpdateRating)
	api.Patch("/ratings/:ratingId", middleware.RequireAuth, gameService.UpdateRating)
	api.Delete("/ratings/:ratingId", middleware.RequireAuth, gameService.DeleteRating)

	// Admin-ish operational endpoints
	admin := api.Group("/admin", middleware.RequireAuth)
	admin.Post("/games/:bggId/sync", gameService.SyncGame)
	admin.Post("/games/sync", gameService.SyncGames)
	admin.Post("/games/:bggId/translate", gameService.TranslateGame)
	admin.Post("/translations/batch", gameService.TranslateBatch)
	admin.Get("/translations/queue", gameService.TranslationQueue)
	admin.Get("/translations/stats", gameService.TranslationStats)
}
