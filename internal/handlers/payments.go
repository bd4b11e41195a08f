package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/funday-app/funday-server/internal/authz"
	"github.com/funday-app/funday-server/internal/guard"
	"github.com/funday-app/funday-server/internal/logging"
	"github.com/funday-app/funday-server/internal/service"
	"github.com/funday-app/funday-server/internal/util"
)

type PaymentHandler struct {
	Payments *service.PaymentService
	Guard    *guard.Guard
	Ops      ErrorReporter
}

func (h *PaymentHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payments.create")
	ac := authz.FromContext(ctx)

	var in service.CreatePaymentInput
	if err := c.Bind(&in); err != nil {
		l.Warn("create_payment_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if !h.Guard.OwnsOrder(ctx, ac, in.OrderID) {
		return forbidden(l, "create_payment_denied")
	}

	payment, err := h.Payments.Create(ctx, in)
	if err != nil {
		return respondError(c, l, h.Ops, "create_payment_failed", err)
	}
	l.Info("create_payment_success", "payment_id", payment.ID, "order_id", in.OrderID)
	return c.JSON(http.StatusCreated, payment)
}

func (h *PaymentHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payments.get")
	ac := authz.FromContext(ctx)

	id := uint(util.ParseIntDefault(c.Param("id"), 0))
	if !h.Guard.OwnsPayment(ctx, ac, id) {
		return forbidden(l, "get_payment_denied")
	}

	payment, err := h.Payments.GetByID(ctx, id)
	if err != nil {
		return respondError(c, l, h.Ops, "get_payment_failed", err)
	}
	return c.JSON(http.StatusOK, payment)
}
