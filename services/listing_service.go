// services/listing_service.go
package services

import (
	"log"
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"meepleon-backend/models"
	"meepleon-backend/repositories"
	"meepleon-backend/utils"
)

type ListingService struct {
	listingRepo *repositories.ListingRepository
	syncService *GameSyncService
}

func NewListingService(listingRepo *repositories.ListingRepository, syncService *GameSyncService) *ListingService {
	return &ListingService{
		listingRepo: listingRepo,
		syncService: syncService,
	}
}

func parseListingID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return 0, utils.NewBadRequest("invalid listing id")
	}
	return uint(id), nil
}

func validMethod(method string) bool {
	return method == models.ListingMethodDirect || method == models.ListingMethodDelivery
}

// GetListings returns the public listing feed, filterable by game name and
// trade method.
func (s *ListingService) GetListings(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := models.ListingFilter{
		GameName: c.Query("gameName"),
		Method:   c.Query("method"),
	}
	if filter.Method != "" && !validMethod(filter.Method) {
		return utils.NewBadRequest("method must be direct or delivery")
	}

	listings, total, err := s.listingRepo.FindAll(filter, page, limit)
	if err != nil {
		return err
	}

	return utils.Success(c, fiber.Map{
		"listings": listings,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// GetListing returns one visible listing with its images.
func (s *ListingService) GetListing(c *fiber.Ctx) error {
	id, err := parseListingID(c)
	if err != nil {
		return err
	}
	listing, err := s.listingRepo.FindByID(id)
	if err != nil {
		return err
	}
	if listing == nil {
		return utils.NewNotFound("listing not found")
	}
	return utils.Success(c, listing)
}

// GetTodayListings returns listings posted since local midnight, for the
// home feed.
func (s *ListingService) GetTodayListings(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	listings, err := s.listingRepo.FindToday(limit)
	if err != nil {
		return err
	}
	return utils.Success(c, listings)
}

// GetMyListings returns every listing of the caller, hidden ones included.
func (s *ListingService) GetMyListings(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)
	listings, err := s.listingRepo.FindByUserID(userID)
	if err != nil {
		return err
	}
	return utils.Success(c, listings)
}

// resolveGame turns the request's game reference into (gameID, displayName).
// A BGG id wins over free text and pulls the game into the catalog when
// needed.
func (s *ListingService) resolveGame(req *models.CreateListingRequest) (*uint, string, error) {
	if req.GameBggID != nil {
		game, err := s.syncService.GetOrSync(*req.GameBggID)
		if err != nil {
			return nil, "", err
		}
		name := game.NameEn
		if game.NameKo != nil && *game.NameKo != "" {
			name = *game.NameKo
		}
		return &game.ID, name, nil
	}
	if req.GameName != nil && *req.GameName != "" {
		return nil, *req.GameName, nil
	}
	return nil, "", utils.NewBadRequest("either game_bgg_id or game_name is required")
}

// CreateListing posts a new secondhand listing.
func (s *ListingService) CreateListing(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	var req models.CreateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.NewBadRequest("invalid request body")
	}
	if req.Price < 0 {
		return utils.NewBadRequest("price must not be negative")
	}
	if !validMethod(req.Method) {
		return utils.NewBadRequest("method must be direct or delivery")
	}

	gameID, gameName, err := s.resolveGame(&req)
	if err != nil {
		return err
	}

	listing := &models.Listing{
		UserID:      userID,
		GameID:      gameID,
		GameName:    gameName,
		Title:       req.Title,
		Price:       req.Price,
		Method:      req.Method,
		Region:      req.Region,
		Description: req.Description,
		ContactLink: req.ContactLink,
		Status:      models.ListingStatusSelling,
	}
	if err := s.listingRepo.Create(listing); err != nil {
		return err
	}

	log.Printf("✅ [Listing] created (id: %d, user: %d)", listing.ID, userID)
	return utils.Created(c, listing)
}

// findOwnListing loads a listing and enforces ownership.
func (s *ListingService) findOwnListing(c *fiber.Ctx) (*models.Listing, error) {
	userID := c.Locals("user_id").(uint)
	id, err := parseListingID(c)
	if err != nil {
		return nil, err
	}
	listing, err := s.listingRepo.FindByIDAny(id)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, utils.NewNotFound("listing not found")
	}
	if listing.UserID != userID {
		return nil, utils.NewForbidden("not your listing")
	}
	return listing, nil
}

// UpdateListing edits the caller's own listing.
func (s *ListingService) UpdateListing(c *fiber.Ctx) error {
	listing, err := s.findOwnListing(c)
	if err != nil {
		return err
	}

	var req models.UpdateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.NewBadRequest("invalid request body")
	}

	if req.GameName != nil && *req.GameName != "" {
		listing.GameName = *req.GameName
	}
	if req.Title != nil {
		listing.Title = req.Title
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return utils.NewBadRequest("price must not be negative")
		}
		listing.Price = *req.Price
	}
	if req.Method != nil {
		if !validMethod(*req.Method) {
			return utils.NewBadRequest("method must be direct or delivery")
		}
		listing.Method = *req.Method
	}
	if req.Region != nil {
		listing.Region = req.Region
	}
	if req.Description != nil {
		listing.Description = req.Description
	}
	if req.ContactLink != nil {
		listing.ContactLink = req.ContactLink
	}
	if req.Status != nil {
		if *req.Status != models.ListingStatusSelling && *req.Status != models.ListingStatusSold {
			return utils.NewBadRequest("status must be selling or sold")
		}
		listing.Status = *req.Status
	}

	if err := s.listingRepo.Save(listing); err != nil {
		return err
	}
	return utils.Success(c, listing)
}

type updateListingStatusRequest struct {
	Status string `json:"status"`
}

// UpdateListingStatus flips the caller's own listing between selling and
// sold without touching the rest of the listing.
func (s *ListingService) UpdateListingStatus(c *fiber.Ctx) error {
	listing, err := s.findOwnListing(c)
	if err != nil {
		return err
	}

	var req updateListingStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.NewBadRequest("invalid request body")
	}
	if req.Status != models.ListingStatusSelling && req.Status != models.ListingStatusSold {
		return utils.NewBadRequest("status must be selling or sold")
	}

	listing.Status = req.Status
	if err := s.listingRepo.Save(listing); err != nil {
		return err
	}
	return utils.Success(c, listing)
}

// DeleteListing removes the caller's own listing and its images.
func (s *ListingService) DeleteListing(c *fiber.Ctx) error {
	listing, err := s.findOwnListing(c)
	if err != nil {
		return err
	}
	if err := s.listingRepo.Delete(listing.ID); err != nil {
		return err
	}
	return utils.Success(c, fiber.Map{"deleted": true})
}

// AddImages attaches image URLs to the caller's listing, capped at three
// per listing.
func (s *ListingService) AddImages(c *fiber.Ctx) error {
	listing, err := s.findOwnListing(c)
	if err != nil {
		return err
	}

	var reqs []models.CreateListingImageRequest
	if err := c.BodyParser(&reqs); err != nil {
		return utils.NewBadRequest("invalid request body")
	}
	if len(reqs) == 0 {
		return utils.NewBadRequest("no images provided")
	}

	existing, err := s.listingRepo.ImagesByListingID(listing.ID)
	if err != nil {
		return err
	}
	if len(existing)+len(reqs) > models.MaxListingImages {
		return utils.NewBadRequest("a listing can hold at most 3 images")
	}

	images := make([]models.ListingImage, 0, len(reqs))
	for _, req := range reqs {
		if req.URL == "" {
			return utils.NewBadRequest("image url is required")
		}
		images = append(images, models.ListingImage{
			ListingID:  listing.ID,
			URL:        req.URL,
			OrderIndex: req.OrderIndex,
		})
	}
	if err := s.listingRepo.CreateImages(images); err != nil {
		return err
	}
	return utils.Created(c, images)
}

// UploadImages accepts multipart files, stores them on R2, and attaches the
// resulting URLs to the caller's listing.
func (s *ListingService) UploadImages(c *fiber.Ctx) error {
	if !utils.R2Enabled() {
		return utils.NewUpstreamError("image storage not configured")
	}

	listing, err := s.findOwnListing(c)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return utils.NewBadRequest("multipart form required")
	}
	files := form.File["images"]
	if len(files) == 0 {
		return utils.NewBadRequest("no images provided")
	}

	existing, err := s.listingRepo.ImagesByListingID(listing.ID)
	if err != nil {
		return err
	}
	if len(existing)+len(files) > models.MaxListingImages {
		return utils.NewBadRequest("a listing can hold at most 3 images")
	}

	images := make([]models.ListingImage, 0, len(files))
	for i, file := range files {
		ext := filepath.Ext(file.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		key := "listings/" + uuid.NewString() + ext
		url, err := utils.UploadFileToR2(file, key)
		if err != nil {
			return utils.NewUpstreamError("failed to upload image")
		}
		images = append(images, models.ListingImage{
			ListingID:  listing.ID,
			URL:        url,
			OrderIndex: len(existing) + i,
		})
	}
	if err := s.listingRepo.CreateImages(images); err != nil {
		return err
	}
	return utils.Created(c, images)
}

// DeleteImage removes one image from the caller's listing.
func (s *ListingService) DeleteImage(c *fiber.Ctx) error {
	listing, err := s.findOwnListing(c)
	if err != nil {
		return err
	}

	imageID, err := strconv.Atoi(c.Params("imageId"))
	if err != nil || imageID <= 0 {
		return utils.NewBadRequest("invalid image id")
	}

	images, err := s.listingRepo.ImagesByListingID(listing.ID)
	if err != nil {
		return err
	}
	for _, img := range images {
		if img.ID == uint(imageID) {
			if err := s.listingRepo.DeleteImage(img.ID); err != nil {
				return err
			}
			return utils.Success(c, fiber.Map{"deleted": true})
		}
	}
	return utils.NewNotFound("image not found")
}
