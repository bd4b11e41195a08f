package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/funday-app/funday-server/internal/apperr"
	"github.com/funday-app/funday-server/internal/eventbus"
	"github.com/funday-app/funday-server/internal/models"
)

// TombstoneText replaces the body of a deleted review that still has replies.
const TombstoneText = "This comment has been deleted."

type ReviewService struct {
	DB  *gorm.DB
	Bus *eventbus.Bus
}

type CreateReviewInput struct {
	AuthorID uint   `json:"-"`
	Score    uint   `json:"score"`
	Text     string `json:"text"`
}

type PatchReviewInput struct {
	Score *uint   `json:"score"`
	Text  *string `json:"text"`
}

func (s *ReviewService) publish(ctx context.Context, eventType string, review *models.Review, extra map[string]any) {
	if s.Bus == nil {
		return
	}
	payload := map[string]any{
		"author_id": review.AuthorID,
		"score":     review.Score,
		"text":      review.Text,
	}
	for k, v := range extra {
		payload[k] = v
	}
	s.Bus.Publish(ctx, eventbus.New(eventType, review.ID, payload))
}

// CreateForPayment attaches a product review to a completed payment.
func (s *ReviewService) CreateForPayment(ctx context.Context, paymentID uint, in CreateReviewInput) (*models.Review, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("%w: review text is required", ErrValidation)
	}

	var payment models.Payment
	if err := s.DB.WithContext(ctx).First(&payment, paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("PAYMENT_NOT_FOUND", paymentID, "payment not found")
		}
		return nil, apperr.Internal("PAYMENT_GET", "cannot get payment", err)
	}

	review := models.Review{
		PaymentID: &payment.ID,
		AuthorID:  in.AuthorID,
		Score:     in.Score,
		Text:      in.Text,
	}
	if err := s.DB.WithContext(ctx).Create(&review).Error; err != nil {
		return nil, apperr.Internal("REVIEW_CREATE", "cannot create review", err)
	}

	s.publish(ctx, eventbus.TypeReviewCreated, &review, map[string]any{"payment_id": payment.ID})
	return &review, nil
}

// CreateForEvent attaches a review to an event.
func (s *ReviewService) CreateForEvent(ctx context.Context, eventID uint, in CreateReviewInput) (*models.Review, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("%w: review text is required", ErrValidation)
	}

	var event models.Event
	if err := s.DB.WithContext(ctx).First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("EVENT_NOT_FOUND", eventID, "event not found")
		}
		return nil, apperr.Internal("EVENT_GET", "cannot get event", err)
	}

	review := models.Review{
		EventID:  &event.ID,
		AuthorID: in.AuthorID,
		Score:    in.Score,
		Text:     in.Text,
	}
	if err := s.DB.WithContext(ctx).Create(&review).Error; err != nil {
		return nil, apperr.Internal("REVIEW_CREATE", "cannot create review", err)
	}

	s.publish(ctx, eventbus.TypeReviewCreated, &review, map[string]any{"event_id": event.ID})
	return &review, nil
}

// Reply creates a child review under an existing one. A missing parent is a
// bad request, not a not-found: the client acted on stale thread state.
func (s *ReviewService) Reply(ctx context.Context, parentID uint, in CreateReviewInput) (*models.Review, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("%w: reply text is required", ErrValidation)
	}

	var parent models.Review
	if err := s.DB.WithContext(ctx).First(&parent, parentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.BadRequest("REVIEW_PARENT_MISSING", fmt.Sprintf("parent review %d does not exist", parentID))
		}
		return nil, apperr.Internal("REVIEW_GET", "cannot get parent review", err)
	}

	reply := models.Review{
		PaymentID: parent.PaymentID,
		EventID:   parent.EventID,
		AuthorID:  in.AuthorID,
		ParentID:  &parent.ID,
		Score:     in.Score,
		Text:      in.Text,
	}
	if err := s.DB.WithContext(ctx).Create(&reply).Error; err != nil {
		return nil, apperr.Internal("REVIEW_CREATE", "cannot create reply", err)
	}

	s.publish(ctx, eventbus.TypeReviewReplied, &reply, map[string]any{"parent_id": parent.ID})
	return &reply, nil
}

func (s *ReviewService) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	if err := s.DB.WithContext(ctx).First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("REVIEW_NOT_FOUND", id, "review not found")
		}
		return nil, apperr.Internal("REVIEW_GET", "cannot get review", err)
	}
	return &review, nil
}

// ListByProduct returns reviews whose payment belongs to an order for the
// product, replies included.
func (s *ReviewService) ListByProduct(ctx context.Context, productID uint, offset, limit int) (int64, []models.Review, error) {
	q := s.DB.WithContext(ctx).Model(&models.Review{}).
		Joins("JOIN payments ON payments.id = reviews.payment_id").
		Joins("JOIN orders ON orders.id = payments.order_id").
		Where("orders.product_id = ?", productID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, apperr.Internal("REVIEW_COUNT", "cannot count reviews", err)
	}

	var items []models.Review
	if err := q.Select("reviews.*").Order("reviews.id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, apperr.Internal("REVIEW_LIST", "cannot list reviews", err)
	}

	return total, items, nil
}

func (s *ReviewService) ListByEvent(ctx context.Context, eventID uint, offset, limit int) (int64, []models.Review, error) {
	q := s.DB.WithContext(ctx).Model(&models.Review{}).Where("event_id = ?", eventID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, apperr.Internal("REVIEW_COUNT", "cannot count reviews", err)
	}

	var items []models.Review
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, apperr.Internal("REVIEW_LIST", "cannot list reviews", err)
	}

	return total, items, nil
}

func (s *ReviewService) Patch(ctx context.Context, id uint, in PatchReviewInput) (*models.Review, error) {
	var review models.Review
	if err := s.DB.WithContext(ctx).First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("REVIEW_NOT_FOUND", id, "review not found")
		}
		return nil, apperr.Internal("REVIEW_GET", "cannot get review", err)
	}
	if review.IsDeleted {
		return nil, apperr.BadRequest("REVIEW_DELETED", "cannot edit a deleted review")
	}

	if in.Score != nil {
		review.Score = *in.Score
	}
	if in.Text != nil {
		if strings.TrimSpace(*in.Text) == "" {
			return nil, fmt.Errorf("%w: review text cannot be empty", ErrValidation)
		}
		review.Text = *in.Text
	}
	if err := s.DB.WithContext(ctx).Save(&review).Error; err != nil {
		return nil, apperr.Internal("REVIEW_SAVE", "cannot save review", err)
	}
	return &review, nil
}

// Delete removes a leaf outright. A review with replies keeps its row so the
// thread stays intact; only the text is replaced with the tombstone.
func (s *ReviewService) Delete(ctx context.Context, id uint) error {
	db := s.DB.WithContext(ctx)

	var review models.Review
	if err := db.First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("REVIEW_NOT_FOUND", id, "review not found")
		}
		return apperr.Internal("REVIEW_GET", "cannot get review", err)
	}

	var children int64
	if err := db.Model(&models.Review{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
		return apperr.Internal("REVIEW_CHILDREN", "cannot count replies", err)
	}

	if children > 0 {
		updates := map[string]any{"text": TombstoneText, "is_deleted": true}
		if err := db.Model(&review).Updates(updates).Error; err != nil {
			return apperr.Internal("REVIEW_TOMBSTONE", "cannot tombstone review", err)
		}
		return nil
	}

	if err := db.Delete(&review).Error; err != nil {
		return apperr.Internal("REVIEW_DELETE", "cannot delete review", err)
	}
	return nil
}
