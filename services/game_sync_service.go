// services/game_sync_service.go
package services

import (
	"log"
	"time"

	"meepleon-backend/models"
	"meepleon-backend/repositories"
	"meepleon-backend/utils"
)

// BggFetcher is what the sync engine needs from the catalog client.
type BggFetcher interface {
	FetchGame(bggID int) (*models.BggGameData, error)
	FetchHotGames() []int
}

// GameSyncService pulls games from BGG into the local catalog.
type GameSyncService struct {
	gameRepo *repositories.GameRepository
	fetcher  BggFetcher
	delay    time.Duration
}

func NewGameSyncService(gameRepo *repositories.GameRepository, fetcher BggFetcher) *GameSyncService {
	return &GameSyncService{
		gameRepo: gameRepo,
		fetcher:  fetcher,
		delay:    bggRequestDelay,
	}
}

// SyncOne fetches a game from BGG and upserts it, replacing its category and
// mechanism mappings when BGG reported any.
func (s *GameSyncService) SyncOne(bggID int) (*models.Game, error) {
	data, err := s.fetcher.FetchGame(bggID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, utils.NewNotFoundUpstream("game not found on BGG")
	}

	game, err := s.gameRepo.Upsert(data)
	if err != nil {
		return nil, err
	}

	if len(data.Categories) > 0 {
		categoryIDs := make([]uint, 0, len(data.Categories))
		for _, ref := range data.Categories {
			category, err := s.gameRepo.FindOrCreateCategory(ref.ID, ref.Name)
			if err != nil {
				return nil, err
			}
			categoryIDs = append(categoryIDs, category.ID)
		}
		if err := s.gameRepo.ReplaceCategoryMappings(game.ID, categoryIDs); err != nil {
			return nil, err
		}
	}

	if len(data.Mechanisms) > 0 {
		mechanismIDs := make([]uint, 0, len(data.Mechanisms))
		for _, ref := range data.Mechanisms {
			mechanism, err := s.gameRepo.FindOrCreateMechanism(ref.ID, ref.Name)
			if err != nil {
				return nil, err
			}
			mechanismIDs = append(mechanismIDs, mechanism.ID)
		}
		if err := s.gameRepo.ReplaceMechanismMappings(game.ID, mechanismIDs); err != nil {
			return nil, err
		}
	}

	if err := s.gameRepo.UpdatePopularityScore(game.ID); err != nil {
		log.Printf("⚠️ [Sync] popularity update failed (gameId: %d): %v", game.ID, err)
	}

	return game, nil
}

// SyncMany syncs each id sequentially with a delay between requests.
// Individual failures are logged and skipped.
func (s *GameSyncService) SyncMany(bggIDs []int) []models.Game {
	synced := make([]models.Game, 0, len(bggIDs))
	for i, bggID := range bggIDs {
		game, err := s.SyncOne(bggID)
		if err != nil {
			log.Printf("❌ [Sync] failed (bggId: %d): %v", bggID, err)
		} else {
			synced = append(synced, *game)
		}
		if i < len(bggIDs)-1 {
			time.Sleep(s.delay)
		}
	}
	log.Printf("✅ [Sync] batch complete: %d/%d games", len(synced), len(bggIDs))
	return synced
}

// GetOrSync returns the cached game when present, otherwise syncs it from
// BGG. Cached rows are never re-fetched.
func (s *GameSyncService) GetOrSync(bggID int) (*models.Game, error) {
	game, err := s.gameRepo.FindByBggID(bggID)
	if err != nil {
		return nil, err
	}
	if game != nil {
		return game, nil
	}
	return s.SyncOne(bggID)
}

// SyncHotGames pulls the BGG trending list and syncs up to limit entries.
func (s *GameSyncService) SyncHotGames(limit int) []models.Game {
	ids := s.fetcher.FetchHotGames()
	if len(ids) == 0 {
		log.Println("⚠️ [Sync] hot list empty, nothing to sync")
		return nil
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	log.Printf("🔥 [Sync] syncing %d hot games", len(ids))
	return s.SyncMany(ids)
}
