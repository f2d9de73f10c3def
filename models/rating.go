// models/rating.go
package models

import "time"

// GameRating is one user's 0-10 score for one game.
// (user_id, game_id) is unique — a second rating for the same pair must fail,
// the PATCH path mutates the existing one instead.
type GameRating struct {
	ID      uint    `json:"id" gorm:"primaryKey"`
	UserID  uint    `json:"user_id" gorm:"uniqueIndex:idx_user_game;not null"`
	GameID  uint    `json:"game_id" gorm:"uniqueIndex:idx_user_game;not null"`
	Rating  float64 `json:"rating" gorm:"not null"` // 0-10
	Comment *string `json:"comment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GameRatingWithUser joins the rating with the rater's public profile.
type GameRatingWithUser struct {
	GameRating
	UserNickname string  `json:"user_nickname"`
	UserAvatar   *string `json:"user_avatar"`
}

type CreateRatingRequest struct {
	Rating  float64 `json:"rating"`
	Comment *string `json:"comment"`
}

type UpdateRatingRequest struct {
	Rating  *float64 `json:"rating"`
	Comment *string  `json:"comment"`
}
