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

type OrderHandler struct {
	Orders *service.OrderService
	Guard  *guard.Guard
	Ops    ErrorReporter
}

func (h *OrderHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.create")
	ac := authz.FromContext(ctx)

	var in service.CreateOrderInput
	if err := c.Bind(&in); err != nil {
		l.Warn("create_order_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	uid := ac.UserID
	in.UserID = &uid

	order, err := h.Orders.Create(ctx, in)
	if err != nil {
		return respondError(c, l, h.Ops, "create_order_failed", err)
	}
	l.Info("create_order_success", "order_id", order.ID, "total", order.TotalPrice)
	return c.JSON(http.StatusCreated, order)
}

// CreateGuest books an order without an account; the orderer contact fields
// stand in for the missing user.
func (h *OrderHandler) CreateGuest(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.create_guest")

	var in service.CreateOrderInput
	if err := c.Bind(&in); err != nil {
		l.Warn("create_guest_order_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	in.UserID = nil

	order, err := h.Orders.Create(ctx, in)
	if err != nil {
		return respondError(c, l, h.Ops, "create_guest_order_failed", err)
	}
	l.Info("create_guest_order_success", "order_id", order.ID, "total", order.TotalPrice)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.get")
	ac := authz.FromContext(ctx)

	id := uint(util.ParseIntDefault(c.Param("id"), 0))
	if !h.Guard.OwnsOrder(ctx, ac, id) {
		return forbidden(l, "get_order_denied")
	}

	order, err := h.Orders.GetByID(ctx, id)
	if err != nil {
		return respondError(c, l, h.Ops, "get_order_failed", err)
	}
	return c.JSON(http.StatusOK, order)
}

// List returns the caller's own orders; admins see everyone's.
func (h *OrderHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.list")
	ac := authz.FromContext(ctx)

	f := service.OrderFilter{Status: c.QueryParam("status")}
	if h.Guard.IsAdmin(ctx, ac) {
		f.UserID = uint(util.ParseIntDefault(c.QueryParam("user"), 0))
	} else {
		f.UserID = ac.UserID
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Orders.List(ctx, f, offset, limit)
	if err != nil {
		return respondError(c, l, h.Ops, "list_orders_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": orders,
		"meta": util.Meta(page, limit, offset, total),
	})
}

func (h *OrderHandler) PatchStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.patch_status")
	ac := authz.FromContext(ctx)

	if !h.Guard.IsAdmin(ctx, ac) {
		return forbidden(l, "patch_order_denied")
	}

	id := uint(util.ParseIntDefault(c.Param("id"), 0))

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("patch_order_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Orders.PatchStatus(ctx, id, req.Status)
	if err != nil {
		return respondError(c, l, h.Ops, "patch_order_failed", err)
	}
	l.Info("patch_order_success", "order_id", id, "order_status", order.Status)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.delete")
	ac := authz.FromContext(ctx)

	if !h.Guard.IsAdmin(ctx, ac) {
		return forbidden(l, "delete_order_denied")
	}

	id := uint(util.ParseIntDefault(c.Param("id"), 0))
	if err := h.Orders.Delete(ctx, id); err != nil {
		return respondError(c, l, h.Ops, "delete_order_failed", err)
	}
	l.Info("delete_order_success", "order_id", id)
	return c.NoContent(http.StatusNoContent)
}
