package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/funday-app/funday-server/internal/authz"
	"github.com/funday-app/funday-server/internal/guard"
	"github.com/funday-app/funday-server/internal/logging"
	"github.com/funday-app/funday-server/internal/service"
	"github.com/funday-app/funday-server/internal/service/search"
	"github.com/funday-app/funday-server/internal/util"
)

type ProductHandler struct {
	Products *service.ProductService
	Guard    *guard.Guard
	ES       *elasticsearch.Client
	ESIndex  string
	Ops      ErrorReporter
}

func (h *ProductHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.create")
	ac := authz.FromContext(ctx)

	var in service.CreateProductInput
	if err := c.Bind(&in); err != nil {
		l.Warn("create_product_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	in.HostID = ac.UserID

	detail, err := h.Products.Create(ctx, in)
	if err != nil {
		return respondError(c, l, h.Ops, "create_product_failed", err)
	}

	h.index(c, l, detail)

	l.Info("create_product_success", "product_id", detail.ID)
	return c.JSON(http.StatusCreated, detail)
}

func (h *ProductHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.get")

	id := uint(util.ParseIntDefault(c.Param("id"), 0))
	detail, err := h.Products.GetByID(ctx, id)
	if err != nil {
		return respondError(c, l, h.Ops, "get_product_failed", err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *ProductHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.list")

	f := service.ProductFilter{
		CategoryID:  uint(util.ParseIntDefault(c.QueryParam("category"), 0)),
		HashtagName: c.QueryParam("hashtag"),
		HostID:      uint(util.ParseIntDefault(c.QueryParam("host"), 0)),
		Status:      c.QueryParam("status"),
	}
	if v := c.QueryParam("date_from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.DateFrom = t
		}
	}
	if v := c.QueryParam("date_to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.DateTo = t
		}
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, products, err := h.Products.List(ctx, f, offset, limit)
	if err != nil {
		return respondError(c, l, h.Ops, "list_products_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": products,
		"meta": util.Meta(page, limit, offset, total),
	})
}

// Search queries the product index; it needs a configured search backend.
func (h *ProductHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.search")

	q := c.QueryParam("q")
	if q == "" {
		l.Warn("search_products_failed", "status", 400, "reason", "empty query")
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	if h.ES == nil {
		l.Warn("search_products_failed", "status", 503, "reason", "search backend not configured")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is unavailable")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, products, err := search.Search(ctx, h.ES, h.ESIndex, q, offset, limit)
	if err != nil {
		return respondError(c, l, h.Ops, "search_products_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": products,
		"meta": util.Meta(page, limit, offset, total),
	})
}

func (h *ProductHandler) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.patch")
	ac := authz.FromContext(ctx)

	id := uint(util.ParseIntDefault(c.Param("id"), 0))
	if !h.Guard.CanEditProduct(ctx, ac, id) {
		return forbidden(l, "patch_product_denied")
	}

	var in service.PatchProductInput
	if err := c.Bind(&in); err != nil {
		l.Warn("patch_product_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	detail, err := h.Products.Patch(ctx, id, in)
	if err != nil {
		return respondError(c, l, h.Ops, "patch_product_failed", err)
	}

	h.index(c, l, detail)

	l.Info("patch_product_success", "product_id", id)
	return c.JSON(http.StatusOK, detail)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.delete")
	ac := authz.FromContext(ctx)

	id := uint(util.ParseIntDefault(c.Param("id"), 0))
	if !h.Guard.CanEditProduct(ctx, ac, id) {
		return forbidden(l, "delete_product_denied")
	}

	if err := h.Products.Delete(ctx, id); err != nil {
		return respondError(c, l, h.Ops, "delete_product_failed", err)
	}

	if h.ES != nil {
		if err := search.DeleteProduct(ctx, h.ES, h.ESIndex, id); err != nil {
			l.Error("deindex_product_failed", "product_id", id, "error", err)
		}
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) AddOption(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.add_option")
	ac := authz.FromContext(ctx)

	id := uint(util.ParseIntDefault(c.Param("id"), 0))
	if !h.Guard.CanEditProduct(ctx, ac, id) {
		return forbidden(l, "add_option_denied")
	}

	var in service.OptionInput
	if err := c.Bind(&in); err != nil {
		l.Warn("add_option_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	opt, err := h.Products.AddOption(ctx, id, in)
	if err != nil {
		return respondError(c, l, h.Ops, "add_option_failed", err)
	}
	l.Info("add_option_success", "product_id", id, "option_id", opt.ID)
	return c.JSON(http.StatusCreated, opt)
}

func (h *ProductHandler) DeleteOption(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.delete_option")
	ac := authz.FromContext(ctx)

	optionID := uint(util.ParseIntDefault(c.Param("optionId"), 0))

	opt, err := h.Products.GetOption(ctx, optionID)
	if err != nil {
		return respondError(c, l, h.Ops, "delete_option_failed", err)
	}
	if !h.Guard.CanEditProduct(ctx, ac, opt.ProductID) {
		return forbidden(l, "delete_option_denied")
	}

	retired, err := h.Products.DeleteOption(ctx, optionID)
	if err != nil {
		return respondError(c, l, h.Ops, "delete_option_failed", err)
	}
	l.Info("delete_option_success", "option_id", optionID, "retired", retired)
	return c.JSON(http.StatusOK, echo.Map{"retired": retired})
}

// index pushes the product document to the search backend, best effort. A
// search outage must not fail the write that already committed.
func (h *ProductHandler) index(c echo.Context, l *slog.Logger, detail *service.ProductDetail) {
	if h.ES == nil {
		return
	}
	if err := search.IndexProduct(c.Request().Context(), h.ES, h.ESIndex, &detail.Product); err != nil {
		l.Error("index_product_failed", "product_id", detail.ID, "error", err)
	}
}
