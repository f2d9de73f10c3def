// repositories/listing_repository.go
package repositories

import (
	"errors"
	"time"

	"meepleon-backend/models"

	"gorm.io/gorm"
)

type ListingRepository struct {
	DB *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{DB: db}
}

// FindAll returns a filtered page of visible listings plus the total count,
// newest first.
func (r *ListingRepository) FindAll(filter models.ListingFilter, page, pageSize int) ([]models.Listing, int64, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	query := r.DB.Model(&models.Listing{}).Where("is_hidden = ?", false)
	if filter.GameName != "" {
		query = query.Where("game_name LIKE ?", "%"+filter.GameName+"%")
	}
	if filter.Method != "" {
		query = query.Where("method = ?", filter.Method)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var listings []models.Listing
	err := query.Preload("Images").Order("created_at DESC").Limit(pageSize).Offset(offset).Find(&listings).Error
	return listings, total, err
}

// FindToday returns listings created since local midnight, hidden excluded.
func (r *ListingRepository) FindToday(limit int) ([]models.Listing, error) {
	year, month, day := time.Now().Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, time.Local)

	var listings []models.Listing
	err := r.DB.
		Preload("Images").
		Where("is_hidden = ? AND created_at >= ?", false, midnight).
		Order("created_at DESC").
		Limit(limit).
		Find(&listings).Error
	return listings, err
}

// FindByID returns a publicly visible listing with its images.
func (r *ListingRepository) FindByID(id uint) (*models.Listing, error) {
	var listing models.Listing
	if err := r.DB.Preload("Images").Where("id = ? AND is_hidden = ?", id, false).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &listing, nil
}

// FindByIDAny returns the listing regardless of visibility, for owner
// operations.
func (r *ListingRepository) FindByIDAny(id uint) (*models.Listing, error) {
	var listing models.Listing
	if err := r.DB.Preload("Images").First(&listing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &listing, nil
}

func (r *ListingRepository) FindByUserID(userID uint) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&listings).Error
	return listings, err
}

func (r *ListingRepository) Create(listing *models.Listing) error {
	return r.DB.Create(listing).Error
}

func (r *ListingRepository) Save(listing *models.Listing) error {
	return r.DB.Save(listing).Error
}

// Delete removes the listing and its images in one transaction.
func (r *ListingRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", id).Delete(&models.ListingImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Listing{}, "id = ?", id).Error
	})
}

// ImagesByListingID returns the listing's photos ordered by their index.
func (r *ListingRepository) ImagesByListingID(listingID uint) ([]models.ListingImage, error) {
	var images []models.ListingImage
	err := r.DB.Where("listing_id = ?", listingID).Order("order_index ASC").Find(&images).Error
	return images, err
}

func (r *ListingRepository) CreateImages(images []models.ListingImage) error {
	if len(images) == 0 {
		return nil
	}
	return r.DB.Create(&images).Error
}

func (r *ListingRepository) DeleteImage(imageID uint) error {
	return r.DB.Delete(&models.ListingImage{}, "id = ?", imageID).Error
}
