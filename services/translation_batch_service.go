// services/translation_batch_service.go
package services

import (
	"log"
	"time"

	"meepleon-backend/models"
	"meepleon-backend/repositories"
	"meepleon-backend/utils"
)

// Translator is what the batch engine needs from the translation client.
type Translator interface {
	Translate(text string) (*TranslateResult, error)
	TranslateLong(text string) (*TranslateResult, error)
	Available() bool
}

// TranslationResult reports one game's translation outcome.
type TranslationResult struct {
	GameID     uint   `json:"gameId"`
	BggID      int    `json:"bggId"`
	NameEn     string `json:"nameEn"`
	Characters int    `json:"characters"`
	Skipped    bool   `json:"skipped"`
}

// QueueEntry is one position in the untranslated queue.
type QueueEntry struct {
	Rank           int     `json:"rank"`
	GameID         uint    `json:"gameId"`
	BggID          int     `json:"bggId"`
	NameEn         string  `json:"nameEn"`
	BggRankOverall *int    `json:"bggRankOverall"`
	Owned          *int    `json:"owned"`
	Wishing        *int    `json:"wishing"`
	Characters     int     `json:"characters"`
	EstimatedCost  float64 `json:"estimatedCost"`
	HasNameKo      bool    `json:"hasNameKo"`
}

// TranslationBatchService localizes game names and descriptions to Korean
// and keeps the monthly usage ledger.
type TranslationBatchService struct {
	gameRepo   *repositories.GameRepository
	translator Translator
	delay      time.Duration
}

func NewTranslationBatchService(gameRepo *repositories.GameRepository, translator Translator) *TranslationBatchService {
	return &TranslationBatchService{
		gameRepo:   gameRepo,
		translator: translator,
		delay:      1 * time.Second,
	}
}

// TranslateOne localizes a single game. Fields that already hold Korean text
// are never overwritten; when both are set the call is a no-op and no usage
// is recorded. A failed title translation is logged and skipped so it never
// blocks the description.
func (s *TranslationBatchService) TranslateOne(gameID uint) (*TranslationResult, error) {
	game, err := s.gameRepo.FindByID(gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, utils.NewNotFound("game not found")
	}

	hasNameKo := game.NameKo != nil && *game.NameKo != ""
	hasDescKo := game.DescriptionKo != nil && *game.DescriptionKo != ""
	if hasNameKo && hasDescKo {
		return &TranslationResult{GameID: game.ID, BggID: game.BggID, NameEn: game.NameEn, Skipped: true}, nil
	}

	var nameKo, descriptionKo *string
	characters := 0

	if !hasNameKo {
		result, err := s.translator.Translate(game.NameEn)
		if err != nil {
			log.Printf("⚠️ [Translate] name translation failed (%s): %v", game.NameEn, err)
		} else if result.TranslatedText != "" {
			nameKo = &result.TranslatedText
			characters += result.CharacterCount
		}
	}

	if !hasDescKo && game.Description != nil && *game.Description != "" {
		result, err := s.translator.TranslateLong(*game.Description)
		if err != nil {
			return nil, err
		}
		if result.TranslatedText != "" {
			descriptionKo = &result.TranslatedText
			characters += result.CharacterCount
		}
	}

	if nameKo == nil && descriptionKo == nil {
		return &TranslationResult{GameID: game.ID, BggID: game.BggID, NameEn: game.NameEn, Skipped: true}, nil
	}

	if err := s.gameRepo.UpdateTranslation(game.ID, nameKo, descriptionKo); err != nil {
		return nil, err
	}
	if err := s.gameRepo.RecordTranslationStats(currentYearMonth(), int64(characters), 1); err != nil {
		log.Printf("⚠️ [Translate] stats record failed (gameId: %d): %v", game.ID, err)
	}

	log.Printf("✅ [Translate] %s (gameId: %d, %d chars)", game.NameEn, game.ID, characters)
	return &TranslationResult{
		GameID:     game.ID,
		BggID:      game.BggID,
		NameEn:     game.NameEn,
		Characters: characters,
	}, nil
}

// TranslateMany translates the given games sequentially, logging and
// skipping failures.
func (s *TranslationBatchService) TranslateMany(gameIDs []uint) []TranslationResult {
	results := make([]TranslationResult, 0, len(gameIDs))
	for i, gameID := range gameIDs {
		result, err := s.TranslateOne(gameID)
		if err != nil {
			log.Printf("❌ [Translate] failed (gameId: %d): %v", gameID, err)
		} else {
			results = append(results, *result)
		}
		if i < len(gameIDs)-1 {
			time.Sleep(s.delay)
		}
	}
	return results
}

// RunBatch translates the top entries of the untranslated queue.
func (s *TranslationBatchService) RunBatch(limit int) ([]TranslationResult, error) {
	if !s.translator.Available() {
		return nil, utils.NewUpstreamError("translation credentials not configured")
	}

	games, err := s.gameRepo.FindUntranslated(limit)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		log.Println("✅ [Translate] queue empty, nothing to do")
		return []TranslationResult{}, nil
	}

	ids := make([]uint, 0, len(games))
	for _, game := range games {
		ids = append(ids, game.ID)
	}
	results := s.TranslateMany(ids)
	log.Printf("✅ [Translate] batch complete: %d/%d games", len(results), len(games))
	return results, nil
}

// Queue returns the next games awaiting translation, in queue order, with
// per-game cost estimates.
func (s *TranslationBatchService) Queue(limit int) ([]QueueEntry, error) {
	games, err := s.gameRepo.FindUntranslated(limit)
	if err != nil {
		return nil, err
	}

	entries := make([]QueueEntry, 0, len(games))
	for i, game := range games {
		characters := 0
		if game.Description != nil {
			characters = len([]rune(*game.Description))
		}
		entries = append(entries, QueueEntry{
			Rank:           i + 1,
			GameID:         game.ID,
			BggID:          game.BggID,
			NameEn:         game.NameEn,
			BggRankOverall: game.BggRankOverall,
			Owned:          game.Owned,
			Wishing:        game.Wishing,
			Characters:     characters,
			EstimatedCost:  float64(characters) * repositories.CostPerCharacter,
			HasNameKo:      game.NameKo != nil && *game.NameKo != "",
		})
	}
	return entries, nil
}

// MonthlyStats returns the given month's usage ledger row (YYYY-MM), the
// current month when empty, or a zero row when no translation ran then.
func (s *TranslationBatchService) MonthlyStats(yearMonth string) (*models.TranslationStats, error) {
	if yearMonth == "" {
		yearMonth = currentYearMonth()
	} else if _, err := time.Parse("2006-01", yearMonth); err != nil {
		return nil, utils.NewBadRequest("yearMonth must be formatted YYYY-MM")
	}

	stats, err := s.gameRepo.TranslationStatsFor(yearMonth)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return &models.TranslationStats{YearMonth: yearMonth}, nil
	}
	return stats, nil
}

func currentYearMonth() string {
	return time.Now().Format("2006-01")
}
