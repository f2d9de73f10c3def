// repositories/game_repository.go
package repositories

import (
	"encoding/json"
	"errors"
	"time"

	"meepleon-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CostPerCharacter is the estimated Papago price per translated character (KRW).
const CostPerCharacter = 0.002

type GameRepository struct {
	DB *gorm.DB
}

func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{DB: db}
}

// FindByBggID returns the cached game row, nil when the game was never synced.
func (r *GameRepository) FindByBggID(bggID int) (*models.Game, error) {
	var game models.Game
	if err := r.DB.Where("bgg_id = ?", bggID).First(&game).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &game, nil
}

func (r *GameRepository) FindByID(id uint) (*models.Game, error) {
	var game models.Game
	if err := r.DB.First(&game, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &game, nil
}

func toJSONStrings(values []string) (out []byte) {
	if len(values) == 0 {
		return nil
	}
	out, _ = json.Marshal(values)
	return out
}

func toJSONRefs(refs []models.LinkRef) (out []byte) {
	if len(refs) == 0 {
		return nil
	}
	out, _ = json.Marshal(refs)
	return out
}

// catalogFields builds the set of BGG-sourced columns for create/update.
// Locally computed fields (name_ko, description_ko, meepleon_rating,
// rating_count, popularity_score, translated_at) are deliberately absent —
// a re-sync must never clobber them.
func catalogFields(data *models.BggGameData) map[string]interface{} {
	now := time.Now()
	return map[string]interface{}{
		"name_en":           data.NameEn,
		"alternate_names":   toJSONStrings(data.AlternateNames),
		"year_published":    data.YearPublished,
		"min_players":       data.MinPlayers,
		"max_players":       data.MaxPlayers,
		"best_player_count": data.BestPlayerCount,
		"min_playtime":      data.MinPlaytime,
		"max_playtime":      data.MaxPlaytime,
		"min_age":           data.MinAge,
		"description":       data.Description,
		"image_url":         data.ImageURL,
		"thumbnail_url":     data.ThumbnailURL,
		"designers":         toJSONRefs(data.Designers),
		"artists":           toJSONRefs(data.Artists),
		"publishers":        toJSONRefs(data.Publishers),
		"bgg_rating":        data.BggRating,
		"average_weight":    data.AverageWeight,
		"users_rated":       data.UsersRated,
		"owned":             data.Owned,
		"trading":           data.Trading,
		"wanting":           data.Wanting,
		"wishing":           data.Wishing,
		"num_comments":      data.NumComments,
		"num_weights":       data.NumWeights,
		"bgg_rank_overall":  data.BggRankOverall,
		"bgg_rank_strategy": data.BggRankStrategy,
		"last_synced_at":    &now,
	}
}

// Upsert writes the BGG-sourced fields for data.BggID, inserting the row if
// the game was never cached. The bgg_id unique constraint resolves concurrent
// first-sync races: a duplicate-key failure means someone else inserted the
// row between our lookup and create, so we retry as an update.
func (r *GameRepository) Upsert(data *models.BggGameData) (*models.Game, error) {
	existing, err := r.FindByBggID(data.BggID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		game := &models.Game{BggID: data.BggID, NameEn: data.NameEn}
		if err := r.DB.Create(game).Error; err != nil {
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, err
			}
			// lost the insert race — fall through to update
		}
	}

	if err := r.DB.Model(&models.Game{}).
		Where("bgg_id = ?", data.BggID).
		Updates(catalogFields(data)).Error; err != nil {
		return nil, err
	}

	return r.FindByBggID(data.BggID)
}

// FindOrCreateCategory is an idempotent lookup-or-insert keyed by the BGG
// category id. Concurrent callers converge on one row via the unique index.
func (r *GameRepository) FindOrCreateCategory(bggCategoryID int, nameEn string) (*models.GameCategory, error) {
	var category models.GameCategory
	err := r.DB.Where("bgg_category_id = ?", bggCategoryID).First(&category).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category = models.GameCategory{BggCategoryID: bggCategoryID, NameEn: nameEn}
	result := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&category)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// raced another creator; the row exists now
		if err := r.DB.Where("bgg_category_id = ?", bggCategoryID).First(&category).Error; err != nil {
			return nil, err
		}
	}
	return &category, nil
}

// FindOrCreateMechanism — same contract as FindOrCreateCategory.
func (r *GameRepository) FindOrCreateMechanism(bggMechanismID int, nameEn string) (*models.GameMechanism, error) {
	var mechanism models.GameMechanism
	err := r.DB.Where("bgg_mechanism_id = ?", bggMechanismID).First(&mechanism).Error
	if err == nil {
		return &mechanism, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	mechanism = models.GameMechanism{BggMechanismID: bggMechanismID, NameEn: nameEn}
	result := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&mechanism)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if err := r.DB.Where("bgg_mechanism_id = ?", bggMechanismID).First(&mechanism).Error; err != nil {
			return nil, err
		}
	}
	return &mechanism, nil
}

// ReplaceCategoryMappings swaps the full category junction set for a game.
// Delete-all-then-insert-all, wrapped in one transaction so a crash cannot
// leave the game with zero mapped categories.
func (r *GameRepository) ReplaceCategoryMappings(gameID uint, categoryIDs []uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game_id = ?", gameID).Delete(&models.GameCategoryMapping{}).Error; err != nil {
			return err
		}
		if len(categoryIDs) == 0 {
			return nil
		}
		mappings := make([]models.GameCategoryMapping, 0, len(categoryIDs))
		for _, categoryID := range categoryIDs {
			mappings = append(mappings, models.GameCategoryMapping{GameID: gameID, CategoryID: categoryID})
		}
		return tx.Create(&mappings).Error
	})
}

// ReplaceMechanismMappings — same contract as ReplaceCategoryMappings.
func (r *GameRepository) ReplaceMechanismMappings(gameID uint, mechanismIDs []uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game_id = ?", gameID).Delete(&models.GameMechanismMapping{}).Error; err != nil {
			return err
		}
		if len(mechanismIDs) == 0 {
			return nil
		}
		mappings := make([]models.GameMechanismMapping, 0, len(mechanismIDs))
		for _, mechanismID := range mechanismIDs {
			mappings = append(mappings, models.GameMechanismMapping{GameID: gameID, MechanismID: mechanismID})
		}
		return tx.Create(&mappings).Error
	})
}

func (r *GameRepository) CategoriesByGameID(gameID uint) ([]models.GameCategory, error) {
	var categories []models.GameCategory
	err := r.DB.
		Joins("INNER JOIN game_category_mappings m ON m.category_id = game_categories.id").
		Where("m.game_id = ?", gameID).
		Find(&categories).Error
	return categories, err
}

func (r *GameRepository) MechanismsByGameID(gameID uint) ([]models.GameMechanism, error) {
	var mechanisms []models.GameMechanism
	err := r.DB.
		Joins("INNER JOIN game_mechanism_mappings m ON m.mechanism_id = game_mechanisms.id").
		Where("m.game_id = ?", gameID).
		Find(&mechanisms).Error
	return mechanisms, err
}

// FindUntranslated returns games still missing a Korean description, best
// BGG rank first. Unranked games sort after ranked ones — MySQL/SQLite would
// otherwise put NULL ranks at the front of the queue.
func (r *GameRepository) FindUntranslated(limit int) ([]models.Game, error) {
	var games []models.Game
	err := r.DB.
		Where("description_ko IS NULL OR description_ko = ''").
		Order("CASE WHEN bgg_rank_overall IS NULL THEN 1 ELSE 0 END").
		Order("bgg_rank_overall ASC").
		Order("COALESCE(owned, 0) DESC").
		Order("COALESCE(wishing, 0) DESC").
		Limit(limit).
		Find(&games).Error
	return games, err
}

// FindByPopularity returns games by computed popularity score, translation
// status ignored.
func (r *GameRepository) FindByPopularity(limit int) ([]models.Game, error) {
	var games []models.Game
	err := r.DB.
		Order("popularity_score DESC").
		Order("COALESCE(owned, 0) DESC").
		Order("COALESCE(wishing, 0) DESC").
		Order("CASE WHEN bgg_rank_overall IS NULL THEN 1 ELSE 0 END").
		Order("bgg_rank_overall ASC").
		Limit(limit).
		Find(&games).Error
	return games, err
}

const popularityScoreSQL = `
	(COALESCE(owned, 0) * 0.5) +
	(COALESCE(wishing, 0) * 1) +
	CASE
		WHEN bgg_rank_overall IS NOT NULL AND bgg_rank_overall > 0
		THEN (10000 - bgg_rank_overall)
		ELSE 0
	END`

// UpdatePopularityScore recomputes the score for one game.
func (r *GameRepository) UpdatePopularityScore(gameID uint) error {
	return r.DB.Exec(
		"UPDATE games SET popularity_score = "+popularityScoreSQL+" WHERE id = ?",
		gameID,
	).Error
}

// UpdateAllPopularityScores recomputes the score across the whole table.
func (r *GameRepository) UpdateAllPopularityScores() error {
	return r.DB.Exec("UPDATE games SET popularity_score = " + popularityScoreSQL).Error
}

// UpdateTranslation persists whichever localized fields were produced by a
// translation run. Passing nil for a field leaves it untouched.
func (r *GameRepository) UpdateTranslation(gameID uint, nameKo *string, descriptionKo *string) error {
	updates := map[string]interface{}{}
	if nameKo != nil {
		updates["name_ko"] = *nameKo
	}
	if descriptionKo != nil {
		updates["description_ko"] = *descriptionKo
	}
	if len(updates) == 0 {
		return nil
	}
	updates["translated_at"] = time.Now()
	return r.DB.Model(&models.Game{}).Where("id = ?", gameID).Updates(updates).Error
}

// UpdateGameRating stores the recomputed local rating aggregate.
func (r *GameRepository) UpdateGameRating(gameID uint, average float64, count int) error {
	return r.DB.Model(&models.Game{}).Where("id = ?", gameID).
		Updates(map[string]interface{}{"meepleon_rating": average, "rating_count": count}).Error
}

// RecordTranslationStats adds a batch's usage to the month's row. The
// ON CONFLICT arithmetic keeps concurrent batch runs additive rather than
// last-writer-wins.
func (r *GameRepository) RecordTranslationStats(yearMonth string, characters int64, gameCount int) error {
	cost := float64(characters) * CostPerCharacter
	stats := models.TranslationStats{
		YearMonth:       yearMonth,
		TotalCharacters: characters,
		TotalGames:      gameCount,
		Cost:            cost,
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "year_month"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_characters": gorm.Expr("translation_stats.total_characters + ?", characters),
			"total_games":      gorm.Expr("translation_stats.total_games + ?", gameCount),
			"cost":             gorm.Expr("translation_stats.cost + ?", cost),
		}),
	}).Create(&stats).Error
}

// TranslationStatsFor returns the month's accumulated row, nil when no
// translation ran that month.
func (r *GameRepository) TranslationStatsFor(yearMonth string) (*models.TranslationStats, error) {
	var stats models.TranslationStats
	if err := r.DB.Where("year_month = ?", yearMonth).First(&stats).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &stats, nil
}
