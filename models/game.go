// models/game.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Game is the local cache row for one BGG board game.
// BggID is the external identifier; ID is the internal primary key that every
// relation points at (the external id could in theory be reassigned upstream).
type Game struct {
	ID     uint    `json:"id" gorm:"primaryKey"`
	BggID  int     `json:"bgg_id" gorm:"uniqueIndex;not null"`
	NameKo *string `json:"name_ko"`
	NameEn string  `json:"name_en" gorm:"not null"`

	// Other-language/edition names, ["name", ...]
	AlternateNames datatypes.JSON `json:"alternate_names,omitempty"`

	YearPublished   *int `json:"year_published"`
	MinPlayers      *int `json:"min_players"`
	MaxPlayers      *int `json:"max_players"`
	BestPlayerCount *int `json:"best_player_count"` // derived from the BGG player-count poll
	MinPlaytime     *int `json:"min_playtime"`
	MaxPlaytime     *int `json:"max_playtime"`
	MinAge          *int `json:"min_age"`

	Description   *string `json:"description"`
	DescriptionKo *string `json:"description_ko"`
	ImageURL      *string `json:"image_url"`
	ThumbnailURL  *string `json:"thumbnail_url"`

	// Crew lists, [{id, name}]
	Designers  datatypes.JSON `json:"designers,omitempty"`
	Artists    datatypes.JSON `json:"artists,omitempty"`
	Publishers datatypes.JSON `json:"publishers,omitempty"`

	// BGG rating aggregates
	BggRating     *float64 `json:"bgg_rating"`
	AverageWeight *float64 `json:"average_weight"` // difficulty, 0-5
	UsersRated    *int     `json:"users_rated"`

	// 🌟 Local (MeepleOn) rating aggregate
	MeepleonRating float64 `json:"meepleon_rating" gorm:"default:0"`
	RatingCount    int     `json:"rating_count" gorm:"default:0"`

	// BGG community counters
	Owned       *int `json:"owned"`
	Trading     *int `json:"trading"`
	Wanting     *int `json:"wanting"`
	Wishing     *int `json:"wishing"`
	NumComments *int `json:"num_comments"`
	NumWeights  *int `json:"num_weights"`

	BggRankOverall  *int `json:"bgg_rank_overall"`
	BggRankStrategy *int `json:"bgg_rank_strategy"`

	PopularityScore float64 `json:"popularity_score" gorm:"default:0"`

	LastSyncedAt *time.Time `json:"last_synced_at"`
	TranslatedAt *time.Time `json:"translated_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// GameCategory is a deduplicated BGG category lookup row.
type GameCategory struct {
	ID            uint    `json:"id" gorm:"primaryKey"`
	BggCategoryID int     `json:"bgg_category_id" gorm:"uniqueIndex;not null"`
	NameEn        string  `json:"name_en" gorm:"not null"`
	NameKo        *string `json:"name_ko"`
}

// GameMechanism is a deduplicated BGG mechanism lookup row.
type GameMechanism struct {
	ID             uint    `json:"id" gorm:"primaryKey"`
	BggMechanismID int     `json:"bgg_mechanism_id" gorm:"uniqueIndex;not null"`
	NameEn         string  `json:"name_en" gorm:"not null"`
	NameKo         *string `json:"name_ko"`
}

type GameCategoryMapping struct {
	ID         uint `gorm:"primaryKey"`
	GameID     uint `gorm:"uniqueIndex:idx_game_category;not null"`
	CategoryID uint `gorm:"uniqueIndex:idx_game_category;not null"`
}

type GameMechanismMapping struct {
	ID          uint `gorm:"primaryKey"`
	GameID      uint `gorm:"uniqueIndex:idx_game_mechanism;not null"`
	MechanismID uint `gorm:"uniqueIndex:idx_game_mechanism;not null"`
}

// TranslationStats accumulates Papago usage per calendar month (YYYY-MM).
// Rows are only ever added to, never overwritten.
type TranslationStats struct {
	YearMonth       string  `json:"year_month" gorm:"primaryKey;size:7"`
	TotalCharacters int64   `json:"total_characters" gorm:"default:0"`
	TotalGames      int     `json:"total_games" gorm:"default:0"`
	Cost            float64 `json:"cost" gorm:"default:0"` // estimated, KRW
}

func (TranslationStats) TableName() string {
	return "translation_stats"
}

// LinkRef is one {id, name} pair from the BGG "link" collection
// (categories, mechanisms, designers, artists, publishers).
type LinkRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// BggGameData is the normalized transfer shape extracted from the BGG XML.
// Nil fields mean "unknown" — the sync engine never writes zeroes for values
// BGG did not report, and empty link lists stay nil so that "known empty"
// and "unknown" remain distinguishable.
type BggGameData struct {
	BggID           int
	NameEn          string
	AlternateNames  []string
	YearPublished   *int
	MinPlayers      *int
	MaxPlayers      *int
	BestPlayerCount *int
	MinPlaytime     *int
	MaxPlaytime     *int
	MinAge          *int
	Description     *string
	ImageURL        *string
	ThumbnailURL    *string

	Designers  []LinkRef
	Artists    []LinkRef
	Publishers []LinkRef

	BggRating     *float64
	AverageWeight *float64
	UsersRated    *int

	Owned       *int
	Trading     *int
	Wanting     *int
	Wishing     *int
	NumComments *int
	NumWeights  *int

	BggRankOverall  *int
	BggRankStrategy *int

	Categories []LinkRef
	Mechanisms []LinkRef
}

// GameDetail is the full payload returned by GET /games/:bggId.
type GameDetail struct {
	Game
	Categories []GameCategory  `json:"categories"`
	Mechanisms []GameMechanism `json:"mechanisms"`
	UserRating *GameRating     `json:"user_rating,omitempty"`
}
