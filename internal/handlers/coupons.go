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

type CouponHandler struct {
	Coupons *service.CouponService
	Guard   *guard.Guard
	Ops     ErrorReporter
}

func (h *CouponHandler) Issue(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupons.issue")
	ac := authz.FromContext(ctx)

	if !h.Guard.IsAdmin(ctx, ac) {
		return forbidden(l, "issue_coupon_denied")
	}

	var in service.IssueCouponInput
	if err := c.Bind(&in); err != nil {
		l.Warn("issue_coupon_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	coupon, err := h.Coupons.Issue(ctx, in)
	if err != nil {
		return respondError(c, l, h.Ops, "issue_coupon_failed", err)
	}
	l.Info("issue_coupon_success", "coupon_id", coupon.ID)
	return c.JSON(http.StatusCreated, coupon)
}

func (h *CouponHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupons.get")
	ac := authz.FromContext(ctx)

	id := uint(util.ParseIntDefault(c.Param("id"), 0))
	if !h.Guard.OwnsCoupon(ctx, ac, id) {
		return forbidden(l, "get_coupon_denied")
	}

	coupon, err := h.Coupons.GetByID(ctx, id)
	if err != nil {
		return respondError(c, l, h.Ops, "get_coupon_failed", err)
	}
	return c.JSON(http.StatusOK, coupon)
}

// list serves the state-scoped coupon collections. Non-admins only ever see
// their own coupons.
func (h *CouponHandler) list(c echo.Context, state string) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupons.list")
	ac := authz.FromContext(ctx)

	f := service.CouponFilter{State: state}
	if h.Guard.IsAdmin(ctx, ac) {
		f.UserID = uint(util.ParseIntDefault(c.QueryParam("user"), 0))
	} else {
		f.UserID = ac.UserID
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, coupons, err := h.Coupons.List(ctx, f, offset, limit)
	if err != nil {
		return respondError(c, l, h.Ops, "list_coupons_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": coupons,
		"meta": util.Meta(page, limit, offset, total),
	})
}

func (h *CouponHandler) ListActive(c echo.Context) error {
	return h.list(c, service.CouponStateActive)
}

func (h *CouponHandler) ListUsed(c echo.Context) error {
	return h.list(c, service.CouponStateUsed)
}

func (h *CouponHandler) ListExpired(c echo.Context) error {
	return h.list(c, service.CouponStateExpired)
}

func (h *CouponHandler) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupons.patch")
	ac := authz.FromContext(ctx)

	if !h.Guard.IsAdmin(ctx, ac) {
		return forbidden(l, "patch_coupon_denied")
	}

	id := uint(util.ParseIntDefault(c.Param("id"), 0))

	var in service.PatchCouponInput
	if err := c.Bind(&in); err != nil {
		l.Warn("patch_coupon_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	coupon, err := h.Coupons.Patch(ctx, id, in)
	if err != nil {
		return respondError(c, l, h.Ops, "patch_coupon_failed", err)
	}
	l.Info("patch_coupon_success", "coupon_id", id)
	return c.JSON(http.StatusOK, coupon)
}

func (h *CouponHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupons.delete")
	ac := authz.FromContext(ctx)

	if !h.Guard.IsAdmin(ctx, ac) {
		return forbidden(l, "delete_coupon_denied")
	}

	id := uint(util.ParseIntDefault(c.Param("id"), 0))
	if err := h.Coupons.Delete(ctx, id); err != nil {
		return respondError(c, l, h.Ops, "delete_coupon_failed", err)
	}
	l.Info("delete_coupon_success", "coupon_id", id)
	return c.NoContent(http.StatusNoContent)
}
