package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/funday-app/funday-server/internal/apperr"
	"github.com/funday-app/funday-server/internal/models"
)

type MagazineService struct {
	DB *gorm.DB
}

type CreateMagazineInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	AuthorID uint   `json:"-"`
}

type PatchMagazineInput struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (s *MagazineService) Create(ctx context.Context, in CreateMagazineInput) (*models.Magazine, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrValidation)
	}

	magazine := models.Magazine{
		Title:       in.Title,
		Content:     in.Content,
		AuthorID:    in.AuthorID,
		PublishedAt: time.Now(),
	}
	if err := s.DB.WithContext(ctx).Create(&magazine).Error; err != nil {
		return nil, apperr.Internal("MAGAZINE_CREATE", "cannot create magazine", err)
	}
	return &magazine, nil
}

func (s *MagazineService) GetByID(ctx context.Context, id uint) (*models.Magazine, error) {
	var magazine models.Magazine
	if err := s.DB.WithContext(ctx).First(&magazine, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("MAGAZINE_NOT_FOUND", id, "magazine not found")
		}
		return nil, apperr.Internal("MAGAZINE_GET", "cannot get magazine", err)
	}
	return &magazine, nil
}

func (s *MagazineService) List(ctx context.Context, authorID uint, offset, limit int) (int64, []models.Magazine, error) {
	q := s.DB.WithContext(ctx).Model(&models.Magazine{})
	if authorID != 0 {
		q = q.Where("author_id = ?", authorID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, apperr.Internal("MAGAZINE_COUNT", "cannot count magazines", err)
	}

	var items []models.Magazine
	if err := q.Order("published_at DESC, id DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, apperr.Internal("MAGAZINE_LIST", "cannot list magazines", err)
	}

	return total, items, nil
}

func (s *MagazineService) Patch(ctx context.Context, id uint, in PatchMagazineInput) (*models.Magazine, error) {
	var magazine models.Magazine
	if err := s.DB.WithContext(ctx).First(&magazine, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("MAGAZINE_NOT_FOUND", id, "magazine not found")
		}
		return nil, apperr.Internal("MAGAZINE_GET", "cannot get magazine", err)
	}

	if in.Title != nil {
		magazine.Title = *in.Title
	}
	if in.Content != nil {
		magazine.Content = *in.Content
	}
	if err := s.DB.WithContext(ctx).Save(&magazine).Error; err != nil {
		return nil, apperr.Internal("MAGAZINE_SAVE", "cannot save magazine", err)
	}
	return &magazine, nil
}

func (s *MagazineService) Delete(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Magazine{}, id)
	if res.Error != nil {
		return apperr.Internal("MAGAZINE_DELETE", "cannot delete magazine", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("MAGAZINE_NOT_FOUND", id, "magazine not found")
	}
	return nil
}
