// handlers/auth.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"meepleon-backend/services"
)

func SetupAuthRoutes(api fiber.Router, authService *services.AuthService) {
	auth := api.Group("/auth")

	auth.Post("/google", authService.GoogleLogin)
	auth.Post("/kakao", authService.KakaoLogin)
}
