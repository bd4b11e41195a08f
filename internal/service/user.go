package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/funday-app/funday-server/internal/apperr"
	"github.com/funday-app/funday-server/internal/hash"
	"github.com/funday-app/funday-server/internal/models"
	"github.com/funday-app/funday-server/internal/oauth"
)

type UserService struct {
	DB *gorm.DB
}

type PatchUserInput struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("USER_NOT_FOUND", id, "user not found")
		}
		return nil, apperr.Internal("USER_GET", "cannot get user", err)
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, nil, apperr.Internal("USER_COUNT", "cannot count users", err)
	}

	var items []models.User
	if err := s.DB.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, apperr.Internal("USER_LIST", "cannot list users", err)
	}

	return total, items, nil
}

func (s *UserService) Patch(ctx context.Context, id uint, in PatchUserInput) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("USER_NOT_FOUND", id, "user not found")
		}
		return nil, apperr.Internal("USER_GET", "cannot get user", err)
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Password != nil {
		if len(*in.Password) < 8 {
			return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
		}
		hashed, err := hash.HashPassword(*in.Password)
		if err != nil {
			return nil, apperr.Internal("USER_HASH", "cannot hash password", err)
		}
		user.PasswordHash = hashed
	}

	if err := s.DB.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, apperr.Internal("USER_SAVE", "cannot save user", err)
	}
	return &user, nil
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return apperr.Internal("USER_DELETE", "cannot delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("USER_NOT_FOUND", id, "user not found")
	}
	return nil
}

// UpsertOAuth finds or creates the account behind an OAuth profile. OAuth
// accounts get an unguessable random password so password login stays closed.
func (s *UserService) UpsertOAuth(ctx context.Context, profile *oauth.Profile) (*models.User, error) {
	if profile.Email == "" {
		return nil, fmt.Errorf("%w: provider returned no email", ErrValidation)
	}

	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", profile.Email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal("USER_GET", "cannot look up user", err)
	}

	hashed, err := hash.HashPassword(uuid.NewString())
	if err != nil {
		return nil, apperr.Internal("USER_HASH", "cannot hash password", err)
	}
	user = models.User{
		Name:         profile.Name,
		Email:        profile.Email,
		PasswordHash: hashed,
		Role:         models.RoleUser,
		Provider:     profile.Provider,
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, apperr.Internal("USER_CREATE", "cannot create user", err)
	}
	return &user, nil
}
