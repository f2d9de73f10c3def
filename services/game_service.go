// services/game_service.go
package services

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"meepleon-backend/models"
	"meepleon-backend/repositories"
	"meepleon-backend/utils"
)

type GameService struct {
	gameRepo         *repositories.GameRepository
	ratingRepo       *repositories.RatingRepository
	syncService      *GameSyncService
	translationBatch *TranslationBatchService
}

func NewGameService(
	gameRepo *repositories.GameRepository,
	ratingRepo *repositories.RatingRepository,
	syncService *GameSyncService,
	translationBatch *TranslationBatchService,
) *GameService {
	return &GameService{
		gameRepo:         gameRepo,
		ratingRepo:       ratingRepo,
		syncService:      syncService,
		translationBatch: translationBatch,
	}
}

func parseBggID(c *fiber.Ctx) (int, error) {
	bggID, err := strconv.Atoi(c.Params("bggId"))
	if err != nil || bggID <= 0 {
		return 0, utils.NewBadRequest("invalid BGG id")
	}
	return bggID, nil
}

// GetGameDetail returns the full game view, syncing from BGG on a cache
// miss. Includes the caller's own rating when authenticated.
func (s *GameService) GetGameDetail(c *fiber.Ctx) error {
	bggID, err := parseBggID(c)
	if err != nil {
		return err
	}

	game, err := s.syncService.GetOrSync(bggID)
	if err != nil {
		return err
	}

	categories, err := s.gameRepo.CategoriesByGameID(game.ID)
	if err != nil {
		return err
	}
	mechanisms, err := s.gameRepo.MechanismsByGameID(game.ID)
	if err != nil {
		return err
	}

	detail := models.GameDetail{
		Game:       *game,
		Categories: categories,
		Mechanisms: mechanisms,
	}

	if userID, ok := c.Locals("user_id").(uint); ok {
		rating, err := s.ratingRepo.FindByUserAndGame(userID, game.ID)
		if err != nil {
			return err
		}
		detail.UserRating = rating
	}

	return utils.Success(c, detail)
}

// GetRatings returns a paginated rating list for a game.
func (s *GameService) GetRatings(c *fiber.Ctx) error {
	bggID, err := parseBggID(c)
	if err != nil {
		return err
	}
	game, err := s.gameRepo.FindByBggID(bggID)
	if err != nil {
		return err
	}
	if game == nil {
		return utils.NewNotFound("game not found")
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	ratings, err := s.ratingRepo.FindByGameID(game.ID, page, limit)
	if err != nil {
		return err
	}
	total, err := s.ratingRepo.CountByGameID(game.ID)
	if err != nil {
		return err
	}

	return utils.Success(c, fiber.Map{
		"ratings": ratings,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// refreshGameRating recomputes and stores a game's rating aggregate.
func (s *GameService) refreshGameRating(gameID uint) error {
	return s.ratingRepo.RefreshGameAggregate(gameID)
}

// CreateRating records the caller's rating for a game. One rating per user
// per game.
func (s *GameService) CreateRating(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	bggID, err := parseBggID(c)
	if err != nil {
		return err
	}

	var req models.CreateRatingRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.NewBadRequest("invalid request body")
	}
	if req.Rating < 0 || req.Rating > 10 {
		return utils.NewBadRequest("rating must be between 0 and 10")
	}

	game, err := s.syncService.GetOrSync(bggID)
	if err != nil {
		return err
	}

	existing, err := s.ratingRepo.FindByUserAndGame(userID, game.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return utils.NewBadRequest("already rated this game")
	}

	rating := &models.GameRating{
		UserID:  userID,
		GameID:  game.ID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}
	if err := s.ratingRepo.Create(rating); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.NewBadRequest("already rated this game")
		}
		return err
	}

	if err := s.refreshGameRating(game.ID); err != nil {
		return err
	}

	return utils.Created(c, rating)
}

// UpdateRating modifies the caller's own rating.
func (s *GameService) UpdateRating(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	ratingID, err := strconv.Atoi(c.Params("ratingId"))
	if err != nil || ratingID <= 0 {
		return utils.NewBadRequest("invalid rating id")
	}

	var req models.UpdateRatingRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.NewBadRequest("invalid request body")
	}

	rating, err := s.ratingRepo.FindByID(uint(ratingID))
	if err != nil {
		return err
	}
	if rating == nil {
		return utils.NewNotFound("rating not found")
	}
	if rating.UserID != userID {
		return utils.NewForbidden("not your rating")
	}

	if req.Rating != nil {
		if *req.Rating < 0 || *req.Rating > 10 {
			return utils.NewBadRequest("rating must be between 0 and 10")
		}
		rating.Rating = *req.Rating
	}
	if req.Comment != nil {
		rating.Comment = req.Comment
	}

	if err := s.ratingRepo.Save(rating); err != nil {
		return err
	}
	if err := s.refreshGameRating(rating.GameID); err != nil {
		return err
	}

	return utils.Success(c, rating)
}

// DeleteRating removes the caller's own rating.
func (s *GameService) DeleteRating(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	ratingID, err := strconv.Atoi(c.Params("ratingId"))
	if err != nil || ratingID <= 0 {
		return utils.NewBadRequest("invalid rating id")
	}

	rating, err := s.ratingRepo.FindByID(uint(ratingID))
	if err != nil {
		return err
	}
	if rating == nil {
		return utils.NewNotFound("rating not found")
	}
	if rating.UserID != userID {
		return utils.NewForbidden("not your rating")
	}

	if err := s.ratingRepo.Delete(rating.ID); err != nil {
		return err
	}
	if err := s.refreshGameRating(rating.GameID); err != nil {
		return err
	}

	return utils.Success(c, fiber.Map{"deleted": true})
}

// SyncGame forces a fresh pull of one game from BGG.
func (s *GameService) SyncGame(c *fiber.Ctx) error {
	bggID, err := parseBggID(c)
	if err != nil {
		return err
	}
	game, err := s.syncService.SyncOne(bggID)
	if err != nil {
		return err
	}
	return utils.Success(c, game)
}

type syncGamesRequest struct {
	BggIDs []int `json:"bggIds"`
}

// SyncGames kicks off a background bulk sync and returns immediately.
func (s *GameService) SyncGames(c *fiber.Ctx) error {
	var req syncGamesRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.NewBadRequest("invalid request body")
	}
	if len(req.BggIDs) == 0 {
		return utils.NewBadRequest("bggIds is required")
	}

	go s.syncService.SyncMany(req.BggIDs)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"queued": len(req.BggIDs)},
	})
}

// TranslateGame localizes one game on demand.
func (s *GameService) TranslateGame(c *fiber.Ctx) error {
	bggID, err := parseBggID(c)
	if err != nil {
		return err
	}
	game, err := s.gameRepo.FindByBggID(bggID)
	if err != nil {
		return err
	}
	if game == nil {
		return utils.NewNotFound("game not found")
	}

	result, err := s.translationBatch.TranslateOne(game.ID)
	if err != nil {
		return err
	}
	return utils.Success(c, result)
}

type translateBatchRequest struct {
	GameIDs []uint `json:"gameIds"`
}

// TranslateBatch kicks off translation of the given games in the background.
func (s *GameService) TranslateBatch(c *fiber.Ctx) error {
	var req translateBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.NewBadRequest("invalid request body")
	}
	if len(req.GameIDs) == 0 {
		return utils.NewBadRequest("gameIds is required")
	}
	if !s.translationBatch.translator.Available() {
		return utils.NewUpstreamError("translation credentials not configured")
	}

	go s.translationBatch.TranslateMany(req.GameIDs)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"queued": len(req.GameIDs)},
	})
}

// TranslationQueue lists the next games awaiting translation.
func (s *GameService) TranslationQueue(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	entries, err := s.translationBatch.Queue(limit)
	if err != nil {
		return err
	}
	return utils.Success(c, entries)
}

// TranslationStats returns a month's translation usage; defaults to the
// current month when no yearMonth query parameter is given.
func (s *GameService) TranslationStats(c *fiber.Ctx) error {
	stats, err := s.translationBatch.MonthlyStats(c.Query("yearMonth"))
	if err != nil {
		return err
	}
	return utils.Success(c, stats)
}
