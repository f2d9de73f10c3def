// services/game_service_test.go
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"meepleon-backend/models"
	"meepleon-backend/repositories"
	"meepleon-backend/utils"
)

// apiFixture is a full wired app over an in-memory db and a fake BGG.
type apiFixture struct {
	app         *fiber.App
	gameRepo    *repositories.GameRepository
	ratingRepo  *repositories.RatingRepository
	listingRepo *repositories.ListingRepository
	userRepo    *repositories.UserRepository
	fetcher     *fakeFetcher
	auth        *AuthService
}

func setupAPI(t *testing.T) *apiFixture {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	db := setupServiceDB(t)
	if err := db.AutoMigrate(&models.Listing{}, &models.ListingImage{}); err != nil {
		t.Fatalf("failed to migrate listings: %v", err)
	}

	gameRepo := repositories.NewGameRepository(db)
	ratingRepo := repositories.NewRatingRepository(db)
	listingRepo := repositories.NewListingRepository(db)
	userRepo := repositories.NewUserRepository(db)

	fetcher := &fakeFetcher{games: map[int]*models.BggGameData{}}
	syncService := NewGameSyncService(gameRepo, fetcher)
	syncService.delay = 0
	translationBatch := NewTranslationBatchService(gameRepo, &fakeTranslator{available: true})
	translationBatch.delay = 0

	gameService := NewGameService(gameRepo, ratingRepo, syncService, translationBatch)
	listingService := NewListingService(listingRepo, syncService)
	authService := NewAuthService(userRepo)

	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	api := app.Group("/api/v1")
	registerGameRoutes(api, gameService)
	registerListingRoutes(api, listingService)
	registerUserRoutes(api, authService, listingService)

	return &apiFixture{
		app:         app,
		gameRepo:    gameRepo,
		ratingRepo:  ratingRepo,
		listingRepo: listingRepo,
		userRepo:    userRepo,
		fetcher:     fetcher,
		auth:        authService,
	}
}

// route registration mirrors the handlers package, inlined here to avoid an
// import cycle between services and handlers
func registerGameRoutes(api fiber.Router, s *GameService) {
	api.Get("/games/:bggId", optionalAuthTest, s.GetGameDetail)
	api.Get("/games/:bggId/ratings", s.GetRatings)
	api.Post("/games/:bggId/ratings", requireAuthTest, s.CreateRating)
	api.Put("/ratings/:ratingId", requireAuthTest, s.UpdateRating)
	api.Patch("/ratings/:ratingId", requireAuthTest, s.UpdateRating)
	api.Delete("/ratings/:ratingId", requireAuthTest, s.DeleteRating)
	api.Post("/admin/translations/batch", requireAuthTest, s.TranslateBatch)
	api.Get("/admin/translations/stats", requireAuthTest, s.TranslationStats)
}

func registerListingRoutes(api fiber.Router, s *ListingService) {
	api.Get("/listings", s.GetListings)
	api.Get("/listings/today", s.GetTodayListings)
	api.Get("/listings/:id", s.GetListing)
	api.Post("/listings", requireAuthTest, s.CreateListing)
	api.Put("/listings/:id", requireAuthTest, s.UpdateListing)
	api.Patch("/listings/:id", requireAuthTest, s.UpdateListing)
	api.Patch("/listings/:id/status", requireAuthTest, s.UpdateListingStatus)
	api.Delete("/listings/:id", requireAuthTest, s.DeleteListing)
	api.Post("/listings/:id/images", requireAuthTest, s.AddImages)
}

func registerUserRoutes(api fiber.Router, auth *AuthService, listings *ListingService) {
	api.Get("/users/me", requireAuthTest, auth.Me)
	api.Get("/users/me/listings", requireAuthTest, listings.GetMyListings)
	api.Get("/users/:id", auth.GetUser)
}

// the test middlewares read a plain user id header instead of a JWT so the
// handler tests stay focused on handler behavior
func requireAuthTest(c *fiber.Ctx) error {
	var userID uint
	if _, err := fmt.Sscanf(c.Get("X-Test-User"), "%d", &userID); err != nil || userID == 0 {
		return utils.NewUnauthorized("missing bearer token")
	}
	c.Locals("user_id", userID)
	return c.Next()
}

func optionalAuthTest(c *fiber.Ctx) error {
	var userID uint
	if _, err := fmt.Sscanf(c.Get("X-Test-User"), "%d", &userID); err == nil && userID > 0 {
		c.Locals("user_id", userID)
	}
	return c.Next()
}

func (f *apiFixture) user(t *testing.T, socialID string) *models.User {
	t.Helper()
	user, err := f.userRepo.FindOrCreateBySocial(socialID, models.SocialTypeKakao, "tester-"+socialID, nil)
	if err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
	return user
}

func (f *apiFixture) request(t *testing.T, method, path string, body any, userID uint) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set("X-Test-User", fmt.Sprintf("%d", userID))
	}
	resp, err := f.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeData(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("expected success envelope, got %s", envelope.Data)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			t.Fatalf("decode data failed: %v", err)
		}
	}
}

func TestGetGameDetailSyncsOnMiss(t *testing.T) {
	f := setupAPI(t)
	f.fetcher.games[174430] = &models.BggGameData{
		BggID:      174430,
		NameEn:     "Gloomhaven",
		Categories: []models.LinkRef{{ID: 1022, Name: "Adventure"}},
	}

	resp := f.request(t, "GET", "/api/v1/games/174430", nil, 0)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var detail models.GameDetail
	decodeData(t, resp, &detail)
	if detail.NameEn != "Gloomhaven" {
		t.Errorf("wrong game: %s", detail.NameEn)
	}
	if len(detail.Categories) != 1 || detail.Categories[0].NameEn != "Adventure" {
		t.Errorf("categories missing: %+v", detail.Categories)
	}
	if f.fetcher.fetches != 1 {
		t.Errorf("expected one upstream fetch, got %d", f.fetcher.fetches)
	}

	// second hit is served from the cache
	f.request(t, "GET", "/api/v1/games/174430", nil, 0)
	if f.fetcher.fetches != 1 {
		t.Errorf("cache miss on second hit: %d fetches", f.fetcher.fetches)
	}
}

func TestGetGameDetailUnknownUpstream(t *testing.T) {
	f := setupAPI(t)
	resp := f.request(t, "GET", "/api/v1/games/42", nil, 0)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCreateRatingFlow(t *testing.T) {
	f := setupAPI(t)
	f.fetcher.games[13] = &models.BggGameData{BggID: 13, NameEn: "Catan"}
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	// unauthenticated is rejected
	resp := f.request(t, "POST", "/api/v1/games/13/ratings", models.CreateRatingRequest{Rating: 8}, 0)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	// out-of-range score is rejected
	resp = f.request(t, "POST", "/api/v1/games/13/ratings", models.CreateRatingRequest{Rating: 11}, alice.ID)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for rating 11, got %d", resp.StatusCode)
	}

	resp = f.request(t, "POST", "/api/v1/games/13/ratings", models.CreateRatingRequest{Rating: 8}, alice.ID)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	// one rating per user per game
	resp = f.request(t, "POST", "/api/v1/games/13/ratings", models.CreateRatingRequest{Rating: 9}, alice.ID)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 on duplicate, got %d", resp.StatusCode)
	}

	resp = f.request(t, "POST", "/api/v1/games/13/ratings", models.CreateRatingRequest{Rating: 6}, bob.ID)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 for second user, got %d", resp.StatusCode)
	}

	// the aggregate reflects both scores
	game, _ := f.gameRepo.FindByBggID(13)
	if game.MeepleonRating != 7 || game.RatingCount != 2 {
		t.Errorf("aggregate wrong: %v/%d", game.MeepleonRating, game.RatingCount)
	}
}

func TestUpdateRatingOwnership(t *testing.T) {
	f := setupAPI(t)
	f.fetcher.games[13] = &models.BggGameData{BggID: 13, NameEn: "Catan"}
	alice := f.user(t, "alice")
	mallory := f.user(t, "mallory")

	var created models.GameRating
	resp := f.request(t, "POST", "/api/v1/games/13/ratings", models.CreateRatingRequest{Rating: 8}, alice.ID)
	decodeData(t, resp, &created)

	newScore := 3.0
	resp = f.request(t, "PUT", fmt.Sprintf("/api/v1/ratings/%d", created.ID), models.UpdateRatingRequest{Rating: &newScore}, mallory.ID)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign rating, got %d", resp.StatusCode)
	}

	resp = f.request(t, "PUT", fmt.Sprintf("/api/v1/ratings/%d", created.ID), models.UpdateRatingRequest{Rating: &newScore}, alice.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for own rating, got %d", resp.StatusCode)
	}

	game, _ := f.gameRepo.FindByBggID(13)
	if game.MeepleonRating != 3 {
		t.Errorf("aggregate not refreshed after update: %v", game.MeepleonRating)
	}

	// PATCH reaches the same handler
	patchScore := 5.0
	resp = f.request(t, "PATCH", fmt.Sprintf("/api/v1/ratings/%d", created.ID), models.UpdateRatingRequest{Rating: &patchScore}, alice.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for patch, got %d", resp.StatusCode)
	}
	game, _ = f.gameRepo.FindByBggID(13)
	if game.MeepleonRating != 5 {
		t.Errorf("aggregate not refreshed after patch: %v", game.MeepleonRating)
	}

	resp = f.request(t, "DELETE", fmt.Sprintf("/api/v1/ratings/%d", created.ID), nil, mallory.ID)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 on foreign delete, got %d", resp.StatusCode)
	}
	resp = f.request(t, "DELETE", fmt.Sprintf("/api/v1/ratings/%d", created.ID), nil, alice.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on own delete, got %d", resp.StatusCode)
	}

	game, _ = f.gameRepo.FindByBggID(13)
	if game.MeepleonRating != 0 || game.RatingCount != 0 {
		t.Errorf("aggregate not reset after delete: %v/%d", game.MeepleonRating, game.RatingCount)
	}
}

func TestGetRatingsIncludesProfile(t *testing.T) {
	f := setupAPI(t)
	f.fetcher.games[13] = &models.BggGameData{BggID: 13, NameEn: "Catan"}
	alice := f.user(t, "alice")

	f.request(t, "POST", "/api/v1/games/13/ratings", models.CreateRatingRequest{Rating: 8, Comment: strP("명작")}, alice.ID)

	resp := f.request(t, "GET", "/api/v1/games/13/ratings", nil, 0)
	var payload struct {
		Ratings []models.GameRatingWithUser `json:"ratings"`
		Total   int64                       `json:"total"`
	}
	decodeData(t, resp, &payload)
	if payload.Total != 1 || len(payload.Ratings) != 1 {
		t.Fatalf("expected one rating, got %+v", payload)
	}
	if payload.Ratings[0].UserNickname != alice.Nickname {
		t.Errorf("rater profile missing: %+v", payload.Ratings[0])
	}
	if payload.Ratings[0].Comment == nil || *payload.Ratings[0].Comment != "명작" {
		t.Errorf("comment missing: %+v", payload.Ratings[0])
	}
}

func TestTranslateBatchDispatch(t *testing.T) {
	f := setupAPI(t)
	admin := f.user(t, "admin")

	desc := "Vanquish monsters with strategic cardplay."
	game, err := f.gameRepo.Upsert(&models.BggGameData{BggID: 174430, NameEn: "Gloomhaven", Description: &desc})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	// an empty id list is rejected up front
	resp := f.request(t, "POST", "/api/v1/admin/translations/batch", fiber.Map{"gameIds": []uint{}}, admin.ID)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty gameIds, got %d", resp.StatusCode)
	}

	resp = f.request(t, "POST", "/api/v1/admin/translations/batch", fiber.Map{"gameIds": []uint{game.ID}}, admin.ID)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var payload struct {
		Queued int `json:"queued"`
	}
	decodeData(t, resp, &payload)
	if payload.Queued != 1 {
		t.Errorf("expected 1 queued, got %d", payload.Queued)
	}

	// the dispatch is asynchronous; poll until the translation lands
	deadline := time.Now().Add(2 * time.Second)
	for {
		refreshed, _ := f.gameRepo.FindByID(game.ID)
		if refreshed.DescriptionKo != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("dispatched translation never landed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestTranslationStatsByMonth(t *testing.T) {
	f := setupAPI(t)
	admin := f.user(t, "admin")

	if err := f.gameRepo.RecordTranslationStats("2026-03", 4200, 3); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	resp := f.request(t, "GET", "/api/v1/admin/translations/stats?yearMonth=2026-03", nil, admin.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var stats models.TranslationStats
	decodeData(t, resp, &stats)
	if stats.TotalCharacters != 4200 || stats.TotalGames != 3 {
		t.Errorf("month row wrong: %+v", stats)
	}

	// no param means the current month
	resp = f.request(t, "GET", "/api/v1/admin/translations/stats", nil, admin.ID)
	decodeData(t, resp, &stats)
	if stats.YearMonth != time.Now().Format("2006-01") {
		t.Errorf("expected current month default, got %q", stats.YearMonth)
	}

	resp = f.request(t, "GET", "/api/v1/admin/translations/stats?yearMonth=march", nil, admin.ID)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed yearMonth, got %d", resp.StatusCode)
	}
}
