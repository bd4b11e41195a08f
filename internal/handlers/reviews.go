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

type ReviewHandler struct {
	Reviews *service.ReviewService
	Guard   *guard.Guard
	Ops     ErrorReporter
}

// CreateForPayment posts a product review tied to a payment the caller made.
func (h *ReviewHandler) CreateForPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reviews.create")
	ac := authz.FromContext(ctx)

	var req struct {
		PaymentID uint   `json:"payment_id"`
		Score     uint   `json:"score"`
		Text      string `json:"text"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("create_review_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if !h.Guard.OwnsPayment(ctx, ac, req.PaymentID) {
		return forbidden(l, "create_review_denied")
	}

	review, err := h.Reviews.CreateForPayment(ctx, req.PaymentID, service.CreateReviewInput{
		AuthorID: ac.UserID,
		Score:    req.Score,
		Text:     req.Text,
	})
	if err != nil {
		return respondError(c, l, h.Ops, "create_review_failed", err)
	}
	l.Info("create_review_success", "review_id", review.ID, "payment_id", req.PaymentID)
	return c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) CreateForEvent(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reviews.create_event")
	ac := authz.FromContext(ctx)

	var req struct {
		EventID uint   `json:"event_id"`
		Score   uint   `json:"score"`
		Text    string `json:"text"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("create_event_review_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	review, err := h.Reviews.CreateForEvent(ctx, req.EventID, service.CreateReviewInput{
		AuthorID: ac.UserID,
		Score:    req.Score,
		Text:     req.Text,
	})
	if err != nil {
		return respondError(c, l, h.Ops, "create_event_review_failed", err)
	}
	l.Info("create_event_review_success", "review_id", review.ID, "event_id", req.EventID)
	return c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) Reply(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reviews.reply")
	ac := authz.FromContext(ctx)

	parentID := uint(util.ParseIntDefault(c.Param("id"), 0))

	var req struct {
		Score uint   `json:"score"`
		Text  string `json:"text"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("reply_review_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	review, err := h.Reviews.Reply(ctx, parentID, service.CreateReviewInput{
		AuthorID: ac.UserID,
		Score:    req.Score,
		Text:     req.Text,
	})
	if err != nil {
		return respondError(c, l, h.Ops, "reply_review_failed", err)
	}
	l.Info("reply_review_success", "review_id", review.ID, "parent_id", parentID)
	return c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reviews.get")

	id := uint(util.ParseIntDefault(c.Param("id"), 0))
	review, err := h.Reviews.GetByID(ctx, id)
	if err != nil {
		return respondError(c, l, h.Ops, "get_review_failed", err)
	}
	return c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) ListByProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reviews.list_product")

	productID := uint(util.ParseIntDefault(c.QueryParam("product"), 0))
	if productID == 0 {
		l.Warn("list_reviews_failed", "status", 400, "reason", "missing product")
		return echo.NewHTTPError(http.StatusBadRequest, "product is required")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, reviews, err := h.Reviews.ListByProduct(ctx, productID, offset, limit)
	if err != nil {
		return respondError(c, l, h.Ops, "list_reviews_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": reviews,
		"meta": util.Meta(page, limit, offset, total),
	})
}

func (h *ReviewHandler) ListByEvent(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reviews.list_event")

	eventID := uint(util.ParseIntDefault(c.QueryParam("event"), 0))
	if eventID == 0 {
		l.Warn("list_event_reviews_failed", "status", 400, "reason", "missing event")
		return echo.NewHTTPError(http.StatusBadRequest, "event is required")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, reviews, err := h.Reviews.ListByEvent(ctx, eventID, offset, limit)
	if err != nil {
		return respondError(c, l, h.Ops, "list_event_reviews_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": reviews,
		"meta": util.Meta(page, limit, offset, total),
	})
}

func (h *ReviewHandler) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reviews.patch")
	ac := authz.FromContext(ctx)

	id := uint(util.ParseIntDefault(c.Param("id"), 0))
	if !h.Guard.OwnsReview(ctx, ac, id) {
		return forbidden(l, "patch_review_denied")
	}

	var in service.PatchReviewInput
	if err := c.Bind(&in); err != nil {
		l.Warn("patch_review_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	review, err := h.Reviews.Patch(ctx, id, in)
	if err != nil {
		return respondError(c, l, h.Ops, "patch_review_failed", err)
	}
	l.Info("patch_review_success", "review_id", id)
	return c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reviews.delete")
	ac := authz.FromContext(ctx)

	id := uint(util.ParseIntDefault(c.Param("id"), 0))
	if !h.Guard.OwnsReview(ctx, ac, id) {
		return forbidden(l, "delete_review_denied")
	}

	if err := h.Reviews.Delete(ctx, id); err != nil {
		return respondError(c, l, h.Ops, "delete_review_failed", err)
	}
	l.Info("delete_review_success", "review_id", id)
	return c.NoContent(http.StatusNoContent)
}
