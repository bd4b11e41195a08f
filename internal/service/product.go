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

type ProductService struct {
	DB *gorm.DB
}

type OptionInput struct {
	Name     string    `json:"name"`
	Price    float64   `json:"price"`
	Date     time.Time `json:"date"`
	MaxCount uint      `json:"max_count"`
}

type PhotoInput struct {
	URL  string `json:"url"`
	Sort int    `json:"sort"`
}

type CreateProductInput struct {
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Location       string        `json:"location"`
	RunningMinutes uint          `json:"running_minutes"`
	Price          float64       `json:"price"`
	HostID         uint          `json:"host_id"`
	CategoryIDs    []uint        `json:"categories"`
	Hashtags       []string      `json:"hashtags"`
	Photos         []PhotoInput  `json:"photos"`
	Options        []OptionInput `json:"options"`
}

// PatchProductInput overlays onto the stored row: nil means unchanged, a
// non-nil slice replaces the whole association set.
type PatchProductInput struct {
	Title          *string       `json:"title"`
	Description    *string       `json:"description"`
	Location       *string       `json:"location"`
	RunningMinutes *uint         `json:"running_minutes"`
	Price          *float64      `json:"price"`
	Status         *string       `json:"status"`
	CategoryIDs    *[]uint       `json:"categories"`
	Hashtags       *[]string     `json:"hashtags"`
	Photos         *[]PhotoInput `json:"photos"`
}

// ProductFilter fields all combine; every set field narrows the result.
type ProductFilter struct {
	CategoryID  uint
	HashtagName string
	HostID      uint
	DateFrom    time.Time
	DateTo      time.Time
	Status      string
}

type ProductDetail struct {
	models.Product
	Categories []models.Category `json:"categories"`
	Hashtags   []models.Hashtag  `json:"hashtags"`
}

// Create writes the product row and every dependent row (category links,
// hashtag links, photos, options) in one transaction. Any failure rolls the
// whole thing back.
func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*ProductDetail, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}

	prod := models.Product{
		Title:          in.Title,
		Description:    in.Description,
		Location:       in.Location,
		RunningMinutes: in.RunningMinutes,
		Price:          in.Price,
		Status:         models.ProductStatusActive,
		HostID:         in.HostID,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&prod).Error; err != nil {
			return apperr.Internal("PRODUCT_CREATE", "cannot create product", err)
		}
		if err := linkCategories(tx, prod.ID, in.CategoryIDs); err != nil {
			return err
		}
		if err := linkHashtags(tx, prod.ID, in.Hashtags); err != nil {
			return err
		}
		if err := writePhotos(tx, prod.ID, in.Photos); err != nil {
			return err
		}
		for _, o := range in.Options {
			opt := models.ProductOption{
				ProductID: prod.ID,
				Name:      o.Name,
				Price:     o.Price,
				Date:      o.Date,
				MaxCount:  o.MaxCount,
			}
			if err := tx.Create(&opt).Error; err != nil {
				return apperr.Internal("PRODUCT_OPTION_CREATE", "cannot create product option", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, prod.ID)
}

func linkCategories(tx *gorm.DB, productID uint, categoryIDs []uint) error {
	seen := make(map[uint]bool, len(categoryIDs))
	for _, cid := range categoryIDs {
		if seen[cid] {
			continue
		}
		seen[cid] = true
		var cat models.Category
		if err := tx.First(&cat, cid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.BadRequest("CATEGORY_NOT_FOUND", fmt.Sprintf("category %d does not exist", cid))
			}
			return apperr.Internal("CATEGORY_LOOKUP", "cannot look up category", err)
		}
		link := models.ProductCategory{ProductID: productID, CategoryID: cid}
		if err := tx.Create(&link).Error; err != nil {
			return apperr.Internal("CATEGORY_LINK", "cannot link category", err)
		}
	}
	return nil
}

func linkHashtags(tx *gorm.DB, productID uint, names []string) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		var tag models.Hashtag
		if err := tx.Where("name = ?", name).FirstOrCreate(&tag, models.Hashtag{Name: name}).Error; err != nil {
			return apperr.Internal("HASHTAG_UPSERT", "cannot upsert hashtag", err)
		}
		link := models.ProductHashtag{ProductID: productID, HashtagID: tag.ID}
		if err := tx.Create(&link).Error; err != nil {
			return apperr.Internal("HASHTAG_LINK", "cannot link hashtag", err)
		}
	}
	return nil
}

func writePhotos(tx *gorm.DB, productID uint, photos []PhotoInput) error {
	for _, p := range photos {
		photo := models.ProductPhoto{ProductID: productID, URL: p.URL, Sort: p.Sort}
		if err := tx.Create(&photo).Error; err != nil {
			return apperr.Internal("PRODUCT_PHOTO_CREATE", "cannot create product photo", err)
		}
	}
	return nil
}

// GetByID assembles the full detail. Options retired with a past date are
// excluded from the active view.
func (s *ProductService) GetByID(ctx context.Context, id uint) (*ProductDetail, error) {
	db := s.DB.WithContext(ctx)

	var prod models.Product
	if err := db.First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("PRODUCT_NOT_FOUND", id, "product not found")
		}
		return nil, apperr.Internal("PRODUCT_GET", "cannot get product", err)
	}

	if err := db.
		Where("product_id = ?", id).
		Where("is_old = ? OR date >= ?", false, time.Now()).
		Order("id ASC").
		Find(&prod.Options).Error; err != nil {
		return nil, apperr.Internal("PRODUCT_OPTIONS_GET", "cannot get product options", err)
	}
	if err := db.Where("product_id = ?", id).Order("sort ASC, id ASC").Find(&prod.Photos).Error; err != nil {
		return nil, apperr.Internal("PRODUCT_PHOTOS_GET", "cannot get product photos", err)
	}

	detail := ProductDetail{Product: prod}
	if err := db.Model(&models.Category{}).
		Joins("JOIN product_categories pc ON pc.category_id = categories.id").
		Where("pc.product_id = ?", id).
		Order("categories.id ASC").
		Find(&detail.Categories).Error; err != nil {
		return nil, apperr.Internal("PRODUCT_CATEGORIES_GET", "cannot get product categories", err)
	}
	if err := db.Model(&models.Hashtag{}).
		Joins("JOIN product_hashtags ph ON ph.hashtag_id = hashtags.id").
		Where("ph.product_id = ?", id).
		Order("hashtags.id ASC").
		Find(&detail.Hashtags).Error; err != nil {
		return nil, apperr.Internal("PRODUCT_HASHTAGS_GET", "cannot get product hashtags", err)
	}

	return &detail, nil
}

// List applies every set filter field; filters combine rather than being
// mutually exclusive.
func (s *ProductService) List(ctx context.Context, f ProductFilter, offset, limit int) (int64, []models.Product, error) {
	q := s.DB.WithContext(ctx).Model(&models.Product{})

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.HostID != 0 {
		q = q.Where("host_id = ?", f.HostID)
	}
	if f.CategoryID != 0 {
		q = q.Where(
			"EXISTS (SELECT 1 FROM product_categories pc WHERE pc.product_id = products.id AND pc.category_id = ?)",
			f.CategoryID,
		)
	}
	if f.HashtagName != "" {
		q = q.Where(
			"EXISTS (SELECT 1 FROM product_hashtags ph JOIN hashtags h ON h.id = ph.hashtag_id WHERE ph.product_id = products.id AND h.name = ?)",
			f.HashtagName,
		)
	}
	if !f.DateFrom.IsZero() || !f.DateTo.IsZero() {
		to := f.DateTo
		if to.IsZero() {
			to = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
		}
		q = q.Where(
			"EXISTS (SELECT 1 FROM product_options po WHERE po.product_id = products.id AND po.is_old = ? AND po.date BETWEEN ? AND ?)",
			false, f.DateFrom, to,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, apperr.Internal("PRODUCT_COUNT", "cannot count products", err)
	}

	var items []models.Product
	if err := q.Order("products.id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, apperr.Internal("PRODUCT_LIST", "cannot list products", err)
	}

	return total, items, nil
}

// Patch overlays the provided fields onto the stored row. Association slices,
// when present, replace the existing set inside the same transaction.
func (s *ProductService) Patch(ctx context.Context, id uint, in PatchProductInput) (*ProductDetail, error) {
	if in.Price != nil && *in.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prod models.Product
		if err := tx.First(&prod, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("PRODUCT_NOT_FOUND", id, "product not found")
			}
			return apperr.Internal("PRODUCT_GET", "cannot get product", err)
		}

		if in.Title != nil {
			prod.Title = *in.Title
		}
		if in.Description != nil {
			prod.Description = *in.Description
		}
		if in.Location != nil {
			prod.Location = *in.Location
		}
		if in.RunningMinutes != nil {
			prod.RunningMinutes = *in.RunningMinutes
		}
		if in.Price != nil {
			prod.Price = *in.Price
		}
		if in.Status != nil {
			prod.Status = *in.Status
		}
		if err := tx.Save(&prod).Error; err != nil {
			return apperr.Internal("PRODUCT_SAVE", "cannot save product", err)
		}

		if in.CategoryIDs != nil {
			if err := tx.Where("product_id = ?", id).Delete(&models.ProductCategory{}).Error; err != nil {
				return apperr.Internal("CATEGORY_UNLINK", "cannot unlink categories", err)
			}
			if err := linkCategories(tx, id, *in.CategoryIDs); err != nil {
				return err
			}
		}
		if in.Hashtags != nil {
			if err := tx.Where("product_id = ?", id).Delete(&models.ProductHashtag{}).Error; err != nil {
				return apperr.Internal("HASHTAG_UNLINK", "cannot unlink hashtags", err)
			}
			if err := linkHashtags(tx, id, *in.Hashtags); err != nil {
				return err
			}
		}
		if in.Photos != nil {
			if err := tx.Where("product_id = ?", id).Delete(&models.ProductPhoto{}).Error; err != nil {
				return apperr.Internal("PRODUCT_PHOTOS_DELETE", "cannot delete product photos", err)
			}
			if err := writePhotos(tx, id, *in.Photos); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id)
}

func (s *ProductService) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return apperr.Internal("PRODUCT_DELETE", "cannot delete product", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("PRODUCT_NOT_FOUND", id, "product not found")
		}
		for _, m := range []any{&models.ProductCategory{}, &models.ProductHashtag{}, &models.ProductPhoto{}, &models.ProductOption{}} {
			if err := tx.Where("product_id = ?", id).Delete(m).Error; err != nil {
				return apperr.Internal("PRODUCT_DELETE", "cannot delete product associations", err)
			}
		}
		return nil
	})
}

// AddOption appends a bookable option to an existing product.
func (s *ProductService) AddOption(ctx context.Context, productID uint, in OptionInput) (*models.ProductOption, error) {
	var prod models.Product
	if err := s.DB.WithContext(ctx).First(&prod, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("PRODUCT_NOT_FOUND", productID, "product not found")
		}
		return nil, apperr.Internal("PRODUCT_GET", "cannot get product", err)
	}
	opt := models.ProductOption{
		ProductID: productID,
		Name:      in.Name,
		Price:     in.Price,
		Date:      in.Date,
		MaxCount:  in.MaxCount,
	}
	if err := s.DB.WithContext(ctx).Create(&opt).Error; err != nil {
		return nil, apperr.Internal("PRODUCT_OPTION_CREATE", "cannot create product option", err)
	}
	return &opt, nil
}

func (s *ProductService) GetOption(ctx context.Context, optionID uint) (*models.ProductOption, error) {
	var opt models.ProductOption
	if err := s.DB.WithContext(ctx).First(&opt, optionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("OPTION_NOT_FOUND", optionID, "product option not found")
		}
		return nil, apperr.Internal("OPTION_GET", "cannot get product option", err)
	}
	return &opt, nil
}

// DeleteOption hard-deletes only when no order item references the option;
// otherwise the option is retired in place. Returns true when retired.
func (s *ProductService) DeleteOption(ctx context.Context, optionID uint) (bool, error) {
	db := s.DB.WithContext(ctx)

	var opt models.ProductOption
	if err := db.First(&opt, optionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperr.NotFound("OPTION_NOT_FOUND", optionID, "product option not found")
		}
		return false, apperr.Internal("OPTION_GET", "cannot get product option", err)
	}

	var refs int64
	if err := db.Model(&models.OrderItem{}).Where("option_id = ?", optionID).Count(&refs).Error; err != nil {
		return false, apperr.Internal("OPTION_REFS", "cannot count option references", err)
	}

	if refs > 0 {
		if err := db.Model(&opt).Update("is_old", true).Error; err != nil {
			return false, apperr.Internal("OPTION_RETIRE", "cannot retire product option", err)
		}
		return true, nil
	}

	if err := db.Delete(&opt).Error; err != nil {
		return false, apperr.Internal("OPTION_DELETE", "cannot delete product option", err)
	}
	return false, nil
}
