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

type PaymentService struct {
	DB  *gorm.DB
	Bus *eventbus.Bus
}

type CreatePaymentInput struct {
	OrderID    uint    `json:"order_id"`
	Amount     float64 `json:"amount"`
	Method     string  `json:"method"`
	PgProvider string  `json:"pg_provider"`
	PgTID      string  `json:"pg_tid"`
}

// Create records the payment and flips the order status in one transaction,
// then publishes payment.completed. The publish happens after commit; a
// failing notification cannot undo a captured payment.
func (s *PaymentService) Create(ctx context.Context, in CreatePaymentInput) (*models.Payment, error) {
	if in.Method == "" {
		return nil, fmt.Errorf("%w: payment method is required", ErrValidation)
	}

	var (
		payment models.Payment
		order   models.Order
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, in.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("ORDER_NOT_FOUND", in.OrderID, "order not found")
			}
			return apperr.Internal("ORDER_GET", "cannot get order", err)
		}
		if order.Status == models.OrderStatusCancelled {
			return apperr.BadRequest("ORDER_CANCELLED", "cannot pay a cancelled order")
		}

		var existing models.Payment
		err := tx.Where("order_id = ?", in.OrderID).First(&existing).Error
		if err == nil {
			return apperr.BadRequest("ORDER_ALREADY_PAID", "order already has a payment")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Internal("PAYMENT_LOOKUP", "cannot look up payment", err)
		}

		if in.Amount != order.TotalPrice {
			return apperr.BadRequest("AMOUNT_MISMATCH", fmt.Sprintf("amount %.0f does not match order total %.0f", in.Amount, order.TotalPrice))
		}

		payment = models.Payment{
			OrderID:    order.ID,
			Amount:     in.Amount,
			Method:     in.Method,
			PgProvider: in.PgProvider,
			PgTID:      in.PgTID,
			Status:     models.PaymentStatusPaid,
			PaidAt:     time.Now(),
		}
		if err := tx.Create(&payment).Error; err != nil {
			return apperr.Internal("PAYMENT_CREATE", "cannot create payment", err)
		}

		order.Status = models.OrderStatusPaid
		if err := tx.Save(&order).Error; err != nil {
			return apperr.Internal("ORDER_SAVE", "cannot update order status", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Bus != nil {
		name, phone, email := s.ordererContact(ctx, &order)
		s.Bus.Publish(ctx, eventbus.New(eventbus.TypePaymentCompleted, payment.ID, map[string]any{
			"order_id":      order.ID,
			"amount":        payment.Amount,
			"orderer_name":  name,
			"orderer_phone": phone,
			"orderer_email": email,
		}))
	}

	return &payment, nil
}

// ordererContact resolves who to notify: the member account when one exists,
// the orderer columns otherwise.
func (s *PaymentService) ordererContact(ctx context.Context, order *models.Order) (name, phone, email string) {
	name, phone, email = order.OrdererName, order.OrdererPhone, order.OrdererEmail
	if order.UserID == nil {
		return name, phone, email
	}
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, *order.UserID).Error; err == nil {
		if name == "" {
			name = user.Name
		}
		if email == "" {
			email = user.Email
		}
	}
	return name, phone, email
}

func (s *PaymentService) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := s.DB.WithContext(ctx).First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("PAYMENT_NOT_FOUND", id, "payment not found")
		}
		return nil, apperr.Internal("PAYMENT_GET", "cannot get payment", err)
	}
	return &payment, nil
}
