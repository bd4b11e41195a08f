package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/funday-app/funday-server/internal/apperr"
	"github.com/funday-app/funday-server/internal/models"
)

type CouponService struct {
	DB *gorm.DB
}

type IssueCouponInput struct {
	Name      string    `json:"name"`
	Discount  float64   `json:"discount"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    *uint     `json:"user_id"`
}

type PatchCouponInput struct {
	Name      *string    `json:"name"`
	Discount  *float64   `json:"discount"`
	ExpiresAt *time.Time `json:"expires_at"`
	IsUsed    *bool      `json:"is_used"`

	// UserID is nullable, so the overlay has to see the difference between a
	// missing key and an explicit null that clears the assignment.
	UserID Optional[uint] `json:"user_id"`
}

// Coupon filter states. Usability is derived from the used flag and expiry,
// never from row deletion.
const (
	CouponStateActive  = "active"
	CouponStateUsed    = "used"
	CouponStateExpired = "expired"
)

type CouponFilter struct {
	State  string
	UserID uint
}

func (s *CouponService) Issue(ctx context.Context, in IssueCouponInput) (*models.Coupon, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: coupon name is required", ErrValidation)
	}
	if in.Discount <= 0 {
		return nil, fmt.Errorf("%w: discount must be positive", ErrValidation)
	}
	if !in.ExpiresAt.After(time.Now()) {
		return nil, fmt.Errorf("%w: expiry must be in the future", ErrValidation)
	}

	coupon := models.Coupon{
		Code:      uuid.NewString(),
		Name:      in.Name,
		Discount:  in.Discount,
		ExpiresAt: in.ExpiresAt,
		UserID:    in.UserID,
	}
	if err := s.DB.WithContext(ctx).Create(&coupon).Error; err != nil {
		return nil, apperr.Internal("COUPON_CREATE", "cannot create coupon", err)
	}
	return &coupon, nil
}

func (s *CouponService) GetByID(ctx context.Context, id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := s.DB.WithContext(ctx).First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("COUPON_NOT_FOUND", id, "coupon not found")
		}
		return nil, apperr.Internal("COUPON_GET", "cannot get coupon", err)
	}
	return &coupon, nil
}

func (s *CouponService) List(ctx context.Context, f CouponFilter, offset, limit int) (int64, []models.Coupon, error) {
	q := s.DB.WithContext(ctx).Model(&models.Coupon{})

	switch f.State {
	case CouponStateActive:
		q = q.Where("is_used = ? AND expires_at > ?", false, time.Now())
	case CouponStateUsed:
		q = q.Where("is_used = ?", true)
	case CouponStateExpired:
		q = q.Where("is_used = ? AND expires_at <= ?", false, time.Now())
	case "":
	default:
		return 0, nil, fmt.Errorf("%w: unknown coupon state %q", ErrValidation, f.State)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, apperr.Internal("COUPON_COUNT", "cannot count coupons", err)
	}

	var items []models.Coupon
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, apperr.Internal("COUPON_LIST", "cannot list coupons", err)
	}

	return total, items, nil
}

func (s *CouponService) Patch(ctx context.Context, id uint, in PatchCouponInput) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := s.DB.WithContext(ctx).First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("COUPON_NOT_FOUND", id, "coupon not found")
		}
		return nil, apperr.Internal("COUPON_GET", "cannot get coupon", err)
	}

	if in.Name != nil {
		coupon.Name = *in.Name
	}
	if in.Discount != nil {
		coupon.Discount = *in.Discount
	}
	if in.ExpiresAt != nil {
		coupon.ExpiresAt = *in.ExpiresAt
	}
	if in.IsUsed != nil {
		coupon.IsUsed = *in.IsUsed
	}
	if in.UserID.Set {
		if in.UserID.Valid {
			uid := in.UserID.Value
			coupon.UserID = &uid
		} else {
			coupon.UserID = nil
		}
	}

	if err := s.DB.WithContext(ctx).Save(&coupon).Error; err != nil {
		return nil, apperr.Internal("COUPON_SAVE", "cannot save coupon", err)
	}
	return &coupon, nil
}

func (s *CouponService) Delete(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Coupon{}, id)
	if res.Error != nil {
		return apperr.Internal("COUPON_DELETE", "cannot delete coupon", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("COUPON_NOT_FOUND", id, "coupon not found")
	}
	return nil
}
