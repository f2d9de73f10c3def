// models/user.go
package models

import "time"

const (
	SocialTypeKakao  = "kakao"
	SocialTypeGoogle = "google"
)

// User is a social-login identity. (social_type, social_id) is unique
// together; nickname/avatar mirror the provider profile and are refreshed
// on every login.
type User struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	Nickname   string  `json:"nickname" gorm:"not null"`
	Avatar     *string `json:"avatar"`
	SocialID   string  `json:"-" gorm:"uniqueIndex:idx_social;not null"`
	SocialType string  `json:"-" gorm:"uniqueIndex:idx_social;not null"` // kakao | google

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserResponse is the public projection of a user.
type UserResponse struct {
	ID        uint      `json:"id"`
	Nickname  string    `json:"nickname"`
	Avatar    *string   `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) Public() UserResponse {
	return UserResponse{ID: u.ID, Nickname: u.Nickname, Avatar: u.Avatar, CreatedAt: u.CreatedAt}
}
