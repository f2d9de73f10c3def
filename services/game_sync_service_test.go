// services/game_sync_service_test.go
package services

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"meepleon-backend/models"
	"meepleon-backend/repositories"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Game{},
		&models.GameCategory{},
		&models.GameMechanism{},
		&models.GameCategoryMapping{},
		&models.GameMechanismMapping{},
		&models.GameRating{},
		&models.TranslationStats{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// fakeFetcher serves canned game data and counts fetches.
type fakeFetcher struct {
	games   map[int]*models.BggGameData
	hot     []int
	fetches int
}

func (f *fakeFetcher) FetchGame(bggID int) (*models.BggGameData, error) {
	f.fetches++
	return f.games[bggID], nil
}

func (f *fakeFetcher) FetchHotGames() []int {
	return f.hot
}

func newSyncFixture(t *testing.T) (*GameSyncService, *repositories.GameRepository, *fakeFetcher) {
	t.Helper()
	repo := repositories.NewGameRepository(setupServiceDB(t))
	fetcher := &fakeFetcher{games: map[int]*models.BggGameData{}}
	svc := NewGameSyncService(repo, fetcher)
	svc.delay = 0
	return svc, repo, fetcher
}

func intP(n int) *int { return &n }

func TestSyncOneWritesMappings(t *testing.T) {
	svc, repo, fetcher := newSyncFixture(t)
	fetcher.games[174430] = &models.BggGameData{
		BggID:  174430,
		NameEn: "Gloomhaven",
		Categories: []models.LinkRef{
			{ID: 1022, Name: "Adventure"},
			{ID: 1020, Name: "Exploration"},
		},
		Mechanisms: []models.LinkRef{{ID: 2001, Name: "Action Queue"}},
		Owned:      intP(100),
		Wishing:    intP(50),
	}

	game, err := svc.SyncOne(174430)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	cats, _ := repo.CategoriesByGameID(game.ID)
	mechs, _ := repo.MechanismsByGameID(game.ID)
	if len(cats) != 2 || len(mechs) != 1 {
		t.Errorf("mappings not written: %d categories, %d mechanisms", len(cats), len(mechs))
	}

	refreshed, _ := repo.FindByID(game.ID)
	if refreshed.PopularityScore != 100 { // 100*0.5 + 50*1, unranked
		t.Errorf("popularity not computed on sync: %v", refreshed.PopularityScore)
	}

	// a re-sync with fewer categories replaces, never accumulates
	fetcher.games[174430].Categories = []models.LinkRef{{ID: 1022, Name: "Adventure"}}
	if _, err := svc.SyncOne(174430); err != nil {
		t.Fatalf("re-sync failed: %v", err)
	}
	cats, _ = repo.CategoriesByGameID(game.ID)
	if len(cats) != 1 {
		t.Errorf("expected replacement, got %d categories", len(cats))
	}
}

func TestSyncOneUnknownGame(t *testing.T) {
	svc, _, _ := newSyncFixture(t)
	if _, err := svc.SyncOne(123456); err == nil {
		t.Fatal("expected not-found error for an id BGG does not know")
	}
}

func TestGetOrSyncFetchesOnce(t *testing.T) {
	svc, _, fetcher := newSyncFixture(t)
	fetcher.games[13] = &models.BggGameData{BggID: 13, NameEn: "Catan"}

	first, err := svc.GetOrSync(13)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := svc.GetOrSync(13)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected the same row, got %d and %d", first.ID, second.ID)
	}
	if fetcher.fetches != 1 {
		t.Errorf("cached game must not be re-fetched, got %d fetches", fetcher.fetches)
	}
}

func TestSyncManySkipsFailures(t *testing.T) {
	svc, _, fetcher := newSyncFixture(t)
	fetcher.games[1] = &models.BggGameData{BggID: 1, NameEn: "One"}
	fetcher.games[3] = &models.BggGameData{BggID: 3, NameEn: "Three"}
	// id 2 is unknown upstream

	synced := svc.SyncMany([]int{1, 2, 3})
	if len(synced) != 2 {
		t.Fatalf("expected 2 synced games, got %d", len(synced))
	}
	if synced[0].NameEn != "One" || synced[1].NameEn != "Three" {
		t.Errorf("wrong games synced: %+v", synced)
	}
}

func TestSyncHotGamesCapped(t *testing.T) {
	svc, _, fetcher := newSyncFixture(t)
	fetcher.hot = []int{1, 2, 3}
	for _, id := range fetcher.hot {
		fetcher.games[id] = &models.BggGameData{BggID: id, NameEn: "Hot"}
	}

	synced := svc.SyncHotGames(2)
	if len(synced) != 2 {
		t.Errorf("expected the cap to hold, got %d", len(synced))
	}
}
