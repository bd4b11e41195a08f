package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/funday-app/funday-server/internal/apperr"
	"github.com/funday-app/funday-server/internal/eventbus"
	"github.com/funday-app/funday-server/internal/models"
)

type OrderService struct {
	DB  *gorm.DB
	Bus *eventbus.Bus
}

type OrderItemInput struct {
	OptionID uint `json:"option_id"`
	Count    uint `json:"count"`
}

type CreateOrderInput struct {
	UserID       *uint            `json:"-"`
	OrdererName  string           `json:"orderer_name"`
	OrdererPhone string           `json:"orderer_phone"`
	OrdererEmail string           `json:"orderer_email"`
	ProductID    uint             `json:"product_id"`
	CouponID     *uint            `json:"coupon_id"`
	Items        []OrderItemInput `json:"items"`
}

type OrderFilter struct {
	UserID uint
	Status string
}

// Create books the order: order row, item rows and the coupon flag flip all
// commit together or not at all. Coupon usability is checked inside the
// transaction so a concurrent use cannot double-spend it.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one item", ErrValidation)
	}
	if in.UserID == nil && (in.OrdererName == "" || in.OrdererPhone == "") {
		return nil, fmt.Errorf("%w: non-member orders need orderer name and phone", ErrValidation)
	}

	var order models.Order

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, in.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("PRODUCT_NOT_FOUND", in.ProductID, "product not found")
			}
			return apperr.Internal("PRODUCT_GET", "cannot get product", err)
		}

		var total float64
		items := make([]models.OrderItem, 0, len(in.Items))
		for _, it := range in.Items {
			var opt models.ProductOption
			if err := tx.First(&opt, it.OptionID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.BadRequest("OPTION_NOT_FOUND", fmt.Sprintf("option %d does not exist", it.OptionID))
				}
				return apperr.Internal("OPTION_GET", "cannot get option", err)
			}
			if opt.ProductID != in.ProductID {
				return apperr.BadRequest("OPTION_MISMATCH", fmt.Sprintf("option %d does not belong to product %d", it.OptionID, in.ProductID))
			}
			if opt.IsOld {
				return apperr.BadRequest("OPTION_RETIRED", fmt.Sprintf("option %d is no longer bookable", it.OptionID))
			}
			count := it.Count
			if count < 1 {
				count = 1
			}
			total += float64(count) * opt.Price
			items = append(items, models.OrderItem{OptionID: opt.ID, Count: count, Price: opt.Price})
		}

		if in.CouponID != nil {
			var coupon models.Coupon
			if err := tx.First(&coupon, *in.CouponID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.BadRequest("COUPON_NOT_FOUND", fmt.Sprintf("coupon %d does not exist", *in.CouponID))
				}
				return apperr.Internal("COUPON_GET", "cannot get coupon", err)
			}
			// The flip doubles as the usability check: the guarded update
			// matches only a live coupon, so a concurrent use cannot
			// double-spend it.
			res := tx.Model(&models.Coupon{}).
				Where("id = ? AND is_used = ? AND expires_at > ?", coupon.ID, false, time.Now()).
				Update("is_used", true)
			if res.Error != nil {
				return apperr.Internal("COUPON_USE", "cannot mark coupon used", res.Error)
			}
			if res.RowsAffected == 0 {
				return apperr.BadRequest("COUPON_UNUSABLE", "coupon is expired or already used")
			}
			total -= coupon.Discount
			if total < 0 {
				total = 0
			}
		}

		order = models.Order{
			UserID:       in.UserID,
			OrdererName:  in.OrdererName,
			OrdererPhone: in.OrdererPhone,
			OrdererEmail: in.OrdererEmail,
			ProductID:    in.ProductID,
			CouponID:     in.CouponID,
			Status:       models.OrderStatusPending,
			TotalPrice:   total,
		}
		if err := tx.Create(&order).Error; err != nil {
			return apperr.Internal("ORDER_CREATE", "cannot create order", err)
		}
		for i := range items {
			items[i].OrderID = order.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return apperr.Internal("ORDER_ITEM_CREATE", "cannot create order item", err)
			}
		}
		order.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Bus != nil {
		s.Bus.Publish(ctx, eventbus.New(eventbus.TypeOrderCreated, order.ID, map[string]any{
			"order_id":    order.ID,
			"product_id":  order.ProductID,
			"total_price": order.TotalPrice,
		}))
	}

	return &order, nil
}

func (s *OrderService) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := s.DB.WithContext(ctx).Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("ORDER_NOT_FOUND", id, "order not found")
		}
		return nil, apperr.Internal("ORDER_GET", "cannot get order", err)
	}
	return &order, nil
}

func (s *OrderService) List(ctx context.Context, f OrderFilter, offset, limit int) (int64, []models.Order, error) {
	q := s.DB.WithContext(ctx).Model(&models.Order{})

	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, apperr.Internal("ORDER_COUNT", "cannot count orders", err)
	}

	var items []models.Order
	if err := q.Preload("Items").Order("id DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, apperr.Internal("ORDER_LIST", "cannot list orders", err)
	}

	return total, items, nil
}

func (s *OrderService) PatchStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	switch status {
	case models.OrderStatusPending, models.OrderStatusPaid, models.OrderStatusCancelled:
	default:
		return nil, fmt.Errorf("%w: unknown order status %q", ErrValidation, status)
	}

	var order models.Order
	if err := s.DB.WithContext(ctx).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("ORDER_NOT_FOUND", id, "order not found")
		}
		return nil, apperr.Internal("ORDER_GET", "cannot get order", err)
	}

	order.Status = status
	if err := s.DB.WithContext(ctx).Save(&order).Error; err != nil {
		return nil, apperr.Internal("ORDER_SAVE", "cannot save order", err)
	}
	return &order, nil
}

func (s *OrderService) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Order{}, id)
		if res.Error != nil {
			return apperr.Internal("ORDER_DELETE", "cannot delete order", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("ORDER_NOT_FOUND", id, "order not found")
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return apperr.Internal("ORDER_DELETE", "cannot delete order items", err)
		}
		return nil
	})
}
