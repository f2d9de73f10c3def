// models/listing.go
package models

import "time"

const (
	ListingMethodDirect   = "direct"   // 직거래
	ListingMethodDelivery = "delivery" // 택배
)

const (
	ListingStatusSelling = "selling"
	ListingStatusSold    = "sold"
)

// Listing is a secondhand marketplace advertisement. GameID links to the
// catalog cache when the seller picked a BGG game; GameName is the
// denormalized display name and also serves the legacy free-text path.
type Listing struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	UserID      uint    `json:"user_id" gorm:"index;not null"`
	GameID      *uint   `json:"game_id"`
	GameName    string  `json:"game_name" gorm:"not null"`
	Title       *string `json:"title"`
	Price       int     `json:"price" gorm:"not null"`
	Method      string  `json:"method" gorm:"not null"` // direct | delivery
	Region      *string `json:"region"`
	Description *string `json:"description"`
	ContactLink *string `json:"contact_link"`
	Status      string  `json:"status" gorm:"default:'selling'"` // selling | sold
	IsHidden    bool    `json:"is_hidden" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Images []ListingImage `json:"images,omitempty" gorm:"foreignKey:ListingID"`
}

// ListingImage is one of at most three ordered photos on a listing.
type ListingImage struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ListingID  uint      `json:"listing_id" gorm:"index;not null"`
	URL        string    `json:"url" gorm:"not null"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
}

const MaxListingImages = 3

type CreateListingRequest struct {
	GameBggID   *int    `json:"game_bgg_id"` // preferred: link to the catalog
	GameName    *string `json:"game_name"`   // legacy free-text path
	Title       *string `json:"title"`
	Price       int     `json:"price"`
	Method      string  `json:"method"`
	Region      *string `json:"region"`
	Description *string `json:"description"`
	ContactLink *string `json:"contact_link"`
}

type UpdateListingRequest struct {
	GameName    *string `json:"game_name"`
	Title       *string `json:"title"`
	Price       *int    `json:"price"`
	Method      *string `json:"method"`
	Region      *string `json:"region"`
	Description *string `json:"description"`
	ContactLink *string `json:"contact_link"`
	Status      *string `json:"status"`
}

type CreateListingImageRequest struct {
	URL        string `json:"url"`
	OrderIndex int    `json:"order_index"`
}

// ListingFilter narrows GET /listings.
type ListingFilter struct {
	GameName string
	Method   string
}
