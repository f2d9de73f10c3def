// repositories/rating_repository.go
package repositories

import (
	"errors"

	"meepleon-backend/models"

	"gorm.io/gorm"
)

type RatingRepository struct {
	DB *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{DB: db}
}

// FindByGameID returns a page of ratings joined with the rater's profile,
// newest first.
func (r *RatingRepository) FindByGameID(gameID uint, page, pageSize int) ([]models.GameRatingWithUser, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	var ratings []models.GameRatingWithUser
	err := r.DB.Model(&models.GameRating{}).
		Select("game_ratings.*, users.nickname AS user_nickname, users.avatar AS user_avatar").
		Joins("INNER JOIN users ON users.id = game_ratings.user_id").
		Where("game_ratings.game_id = ?", gameID).
		Order("game_ratings.created_at DESC").
		Limit(pageSize).
		Offset(offset).
		Scan(&ratings).Error
	return ratings, err
}

func (r *RatingRepository) CountByGameID(gameID uint) (int64, error) {
	var total int64
	err := r.DB.Model(&models.GameRating{}).Where("game_id = ?", gameID).Count(&total).Error
	return total, err
}

func (r *RatingRepository) FindByUserAndGame(userID, gameID uint) (*models.GameRating, error) {
	var rating models.GameRating
	if err := r.DB.Where("user_id = ? AND game_id = ?", userID, gameID).First(&rating).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rating, nil
}

func (r *RatingRepository) FindByID(ratingID uint) (*models.GameRating, error) {
	var rating models.GameRating
	if err := r.DB.First(&rating, "id = ?", ratingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rating, nil
}

func (r *RatingRepository) Create(rating *models.GameRating) error {
	return r.DB.Create(rating).Error
}

func (r *RatingRepository) Save(rating *models.GameRating) error {
	return r.DB.Save(rating).Error
}

func (r *RatingRepository) Delete(ratingID uint) error {
	return r.DB.Delete(&models.GameRating{}, "id = ?", ratingID).Error
}

// CalculateAverage returns the arithmetic mean and count of all ratings for a
// game; (0, 0) when none remain.
func (r *RatingRepository) CalculateAverage(gameID uint) (float64, int, error) {
	var result struct {
		Average *float64
		Count   int64
	}
	err := r.DB.Model(&models.GameRating{}).
		Select("AVG(rating) AS average, COUNT(*) AS count").
		Where("game_id = ?", gameID).
		Scan(&result).Error
	if err != nil {
		return 0, 0, err
	}
	average := 0.0
	if result.Average != nil {
		average = *result.Average
	}
	return average, int(result.Count), nil
}

// RefreshGameAggregate recomputes a game's average rating and rating count
// and writes them back, all inside one transaction so a concurrent rating
// write cannot leave the aggregate torn.
func (r *RatingRepository) RefreshGameAggregate(gameID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var result struct {
			Average *float64
			Count   int64
		}
		err := tx.Model(&models.GameRating{}).
			Select("AVG(rating) AS average, COUNT(*) AS count").
			Where("game_id = ?", gameID).
			Scan(&result).Error
		if err != nil {
			return err
		}
		average := 0.0
		if result.Average != nil {
			average = *result.Average
		}
		return tx.Model(&models.Game{}).
			Where("id = ?", gameID).
			Updates(map[string]interface{}{
				"meepleon_rating": average,
				"rating_count":    result.Count,
			}).Error
	})
}
