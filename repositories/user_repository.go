// repositories/user_repository.go
package repositories

import (
	"errors"

	"meepleon-backend/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) FindByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindBySocial(socialID, socialType string) (*models.User, error) {
	var user models.User
	err := r.DB.Where("social_id = ? AND social_type = ?", socialID, socialType).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindOrCreateBySocial resolves a social login to a local user, creating the
// row on first login and refreshing nickname/avatar when the provider profile
// changed. The (social_type, social_id) unique index resolves first-login
// races the same way the catalog upsert does.
func (r *UserRepository) FindOrCreateBySocial(socialID, socialType, nickname string, avatar *string) (*models.User, error) {
	user, err := r.FindBySocial(socialID, socialType)
	if err != nil {
		return nil, err
	}

	if user != nil {
		changed := user.Nickname != nickname
		if (user.Avatar == nil) != (avatar == nil) {
			changed = true
		} else if user.Avatar != nil && avatar != nil && *user.Avatar != *avatar {
			changed = true
		}
		if changed {
			user.Nickname = nickname
			user.Avatar = avatar
			if err := r.DB.Save(user).Error; err != nil {
				return nil, err
			}
		}
		return user, nil
	}

	user = &models.User{
		SocialID:   socialID,
		SocialType: socialType,
		Nickname:   nickname,
		Avatar:     avatar,
	}
	if err := r.DB.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.FindBySocial(socialID, socialType)
		}
		return nil, err
	}
	return user, nil
}
