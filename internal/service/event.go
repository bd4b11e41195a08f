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

type EventService struct {
	DB *gorm.DB
}

type CreateEventInput struct {
	Title      string       `json:"title"`
	Body       string       `json:"body"`
	Status     string       `json:"status"`
	StartAt    time.Time    `json:"start_at"`
	EndAt      time.Time    `json:"end_at"`
	ProductIDs []uint       `json:"products"`
	Photos     []PhotoInput `json:"photos"`
}

type PatchEventInput struct {
	Title      *string       `json:"title"`
	Body       *string       `json:"body"`
	Status     *string       `json:"status"`
	StartAt    *time.Time    `json:"start_at"`
	EndAt      *time.Time    `json:"end_at"`
	ProductIDs *[]uint       `json:"products"`
	Photos     *[]PhotoInput `json:"photos"`
}

type EventFilter struct {
	From   time.Time
	To     time.Time
	Status string
}

type EventDetail struct {
	models.Event
	Products []models.Product `json:"products"`
}

// Create writes the event row, its photos and product links in one
// transaction.
func (s *EventService) Create(ctx context.Context, in CreateEventInput) (*EventDetail, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if !in.EndAt.After(in.StartAt) {
		return nil, fmt.Errorf("%w: end_at must be after start_at", ErrValidation)
	}

	status := in.Status
	if status == "" {
		status = models.EventStatusUpcoming
	}

	event := models.Event{
		Title:   in.Title,
		Body:    in.Body,
		Status:  status,
		StartAt: in.StartAt,
		EndAt:   in.EndAt,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&event).Error; err != nil {
			return apperr.Internal("EVENT_CREATE", "cannot create event", err)
		}
		if err := linkEventProducts(tx, event.ID, in.ProductIDs); err != nil {
			return err
		}
		for _, p := range in.Photos {
			photo := models.EventPhoto{EventID: event.ID, URL: p.URL, Sort: p.Sort}
			if err := tx.Create(&photo).Error; err != nil {
				return apperr.Internal("EVENT_PHOTO_CREATE", "cannot create event photo", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, event.ID)
}

func linkEventProducts(tx *gorm.DB, eventID uint, productIDs []uint) error {
	seen := make(map[uint]bool, len(productIDs))
	for _, pid := range productIDs {
		if seen[pid] {
			continue
		}
		seen[pid] = true
		var prod models.Product
		if err := tx.First(&prod, pid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.BadRequest("EVENT_PRODUCT_NOT_FOUND", fmt.Sprintf("product %d does not exist", pid))
			}
			return apperr.Internal("EVENT_PRODUCT_LOOKUP", "cannot look up product", err)
		}
		link := models.EventProduct{EventID: eventID, ProductID: pid}
		if err := tx.Create(&link).Error; err != nil {
			return apperr.Internal("EVENT_PRODUCT_LINK", "cannot link product", err)
		}
	}
	return nil
}

func (s *EventService) GetByID(ctx context.Context, id uint) (*EventDetail, error) {
	db := s.DB.WithContext(ctx)

	var event models.Event
	if err := db.First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("EVENT_NOT_FOUND", id, "event not found")
		}
		return nil, apperr.Internal("EVENT_GET", "cannot get event", err)
	}
	if err := db.Where("event_id = ?", id).Order("sort ASC, id ASC").Find(&event.Photos).Error; err != nil {
		return nil, apperr.Internal("EVENT_PHOTOS_GET", "cannot get event photos", err)
	}

	detail := EventDetail{Event: event}
	if err := db.Model(&models.Product{}).
		Joins("JOIN event_products ep ON ep.product_id = products.id").
		Where("ep.event_id = ?", id).
		Order("products.id ASC").
		Find(&detail.Products).Error; err != nil {
		return nil, apperr.Internal("EVENT_PRODUCTS_GET", "cannot get event products", err)
	}

	return &detail, nil
}

// List returns events overlapping the [From, To] window; zero bounds are
// open-ended.
func (s *EventService) List(ctx context.Context, f EventFilter, offset, limit int) (int64, []models.Event, error) {
	q := s.DB.WithContext(ctx).Model(&models.Event{})

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if !f.From.IsZero() {
		q = q.Where("end_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("start_at <= ?", f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, apperr.Internal("EVENT_COUNT", "cannot count events", err)
	}

	var items []models.Event
	if err := q.Order("start_at ASC, id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, apperr.Internal("EVENT_LIST", "cannot list events", err)
	}

	return total, items, nil
}

func (s *EventService) Patch(ctx context.Context, id uint, in PatchEventInput) (*EventDetail, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.First(&event, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("EVENT_NOT_FOUND", id, "event not found")
			}
			return apperr.Internal("EVENT_GET", "cannot get event", err)
		}

		if in.Title != nil {
			event.Title = *in.Title
		}
		if in.Body != nil {
			event.Body = *in.Body
		}
		if in.Status != nil {
			event.Status = *in.Status
		}
		if in.StartAt != nil {
			event.StartAt = *in.StartAt
		}
		if in.EndAt != nil {
			event.EndAt = *in.EndAt
		}
		if !event.EndAt.After(event.StartAt) {
			return fmt.Errorf("%w: end_at must be after start_at", ErrValidation)
		}
		if err := tx.Save(&event).Error; err != nil {
			return apperr.Internal("EVENT_SAVE", "cannot save event", err)
		}

		if in.ProductIDs != nil {
			if err := tx.Where("event_id = ?", id).Delete(&models.EventProduct{}).Error; err != nil {
				return apperr.Internal("EVENT_PRODUCT_UNLINK", "cannot unlink products", err)
			}
			if err := linkEventProducts(tx, id, *in.ProductIDs); err != nil {
				return err
			}
		}
		if in.Photos != nil {
			if err := tx.Where("event_id = ?", id).Delete(&models.EventPhoto{}).Error; err != nil {
				return apperr.Internal("EVENT_PHOTOS_DELETE", "cannot delete event photos", err)
			}
			for _, p := range *in.Photos {
				photo := models.EventPhoto{EventID: id, URL: p.URL, Sort: p.Sort}
				if err := tx.Create(&photo).Error; err != nil {
					return apperr.Internal("EVENT_PHOTO_CREATE", "cannot create event photo", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id)
}

func (s *EventService) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Event{}, id)
		if res.Error != nil {
			return apperr.Internal("EVENT_DELETE", "cannot delete event", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("EVENT_NOT_FOUND", id, "event not found")
		}
		if err := tx.Where("event_id = ?", id).Delete(&models.EventProduct{}).Error; err != nil {
			return apperr.Internal("EVENT_DELETE", "cannot delete event product links", err)
		}
		if err := tx.Where("event_id = ?", id).Delete(&models.EventPhoto{}).Error; err != nil {
			return apperr.Internal("EVENT_DELETE", "cannot delete event photos", err)
		}
		return nil
	})
}
