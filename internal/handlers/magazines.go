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

type MagazineHandler struct {
	Magazines *service.MagazineService
	Guard     *guard.Guard
	Ops       ErrorReporter
}

func (h *MagazineHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "magazines.create")
	ac := authz.FromContext(ctx)

	if !h.Guard.IsEditorOrAdmin(ctx, ac) {
		return forbidden(l, "create_magazine_denied")
	}

	var in service.CreateMagazineInput
	if err := c.Bind(&in); err != nil {
		l.Warn("create_magazine_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	in.AuthorID = ac.UserID

	magazine, err := h.Magazines.Create(ctx, in)
	if err != nil {
		return respondError(c, l, h.Ops, "create_magazine_failed", err)
	}
	l.Info("create_magazine_success", "magazine_id", magazine.ID)
	return c.JSON(http.StatusCreated, magazine)
}

func (h *MagazineHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "magazines.get")

	id := uint(util.ParseIntDefault(c.Param("id"), 0))
	magazine, err := h.Magazines.GetByID(ctx, id)
	if err != nil {
		return respondError(c, l, h.Ops, "get_magazine_failed", err)
	}
	return c.JSON(http.StatusOK, magazine)
}

func (h *MagazineHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "magazines.list")

	authorID := uint(util.ParseIntDefault(c.QueryParam("author"), 0))

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, magazines, err := h.Magazines.List(ctx, authorID, offset, limit)
	if err != nil {
		return respondError(c, l, h.Ops, "list_magazines_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": magazines,
		"meta": util.Meta(page, limit, offset, total),
	})
}

func (h *MagazineHandler) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "magazines.patch")
	ac := authz.FromContext(ctx)

	id := uint(util.ParseIntDefault(c.Param("id"), 0))
	if !h.Guard.CanEditMagazine(ctx, ac, id) {
		return forbidden(l, "patch_magazine_denied")
	}

	var in service.PatchMagazineInput
	if err := c.Bind(&in); err != nil {
		l.Warn("patch_magazine_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	magazine, err := h.Magazines.Patch(ctx, id, in)
	if err != nil {
		return respondError(c, l, h.Ops, "patch_magazine_failed", err)
	}
	l.Info("patch_magazine_success", "magazine_id", id)
	return c.JSON(http.StatusOK, magazine)
}

func (h *MagazineHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "magazines.delete")
	ac := authz.FromContext(ctx)

	id := uint(util.ParseIntDefault(c.Param("id"), 0))
	if !h.Guard.CanEditMagazine(ctx, ac, id) {
		return forbidden(l, "delete_magazine_denied")
	}

	if err := h.Magazines.Delete(ctx, id); err != nil {
		return respondError(c, l, h.Ops, "delete_magazine_failed", err)
	}
	l.Info("delete_magazine_success", "magazine_id", id)
	return c.NoContent(http.StatusNoContent)
}
