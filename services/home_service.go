// services/home_service.go
package services

import (
	"github.com/gofiber/fiber/v2"

	"meepleon-backend/repositories"
	"meepleon-backend/utils"
)

type HomeService struct {
	gameRepo    *repositories.GameRepository
	listingRepo *repositories.ListingRepository
}

func NewHomeService(gameRepo *repositories.GameRepository, listingRepo *repositories.ListingRepository) *HomeService {
	return &HomeService{gameRepo: gameRepo, listingRepo: listingRepo}
}

// GetHome returns the landing page payload: today's listings and the most
// popular games.
func (s *HomeService) GetHome(c *fiber.Ctx) error {
	todayListings, err := s.listingRepo.FindToday(20)
	if err != nil {
		return err
	}
	popularGames, err := s.gameRepo.FindByPopularity(10)
	if err != nil {
		return err
	}

	return utils.Success(c, fiber.Map{
		"todayListings": todayListings,
		"popularGames":  popularGames,
	})
}
