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

type UserHandler struct {
	Users *service.UserService
	Guard *guard.Guard
	Ops   ErrorReporter
}

// Me returns the caller's own profile.
func (h *UserHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.me")
	ac := authz.FromContext(ctx)

	user, err := h.Users.GetByID(ctx, ac.UserID)
	if err != nil {
		return respondError(c, l, h.Ops, "me_failed", err)
	}
	return c.JSON(http.StatusOK, user)
}

// PatchMe updates the caller's own profile.
func (h *UserHandler) PatchMe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.patch_me")
	ac := authz.FromContext(ctx)

	var in service.PatchUserInput
	if err := c.Bind(&in); err != nil {
		l.Warn("patch_me_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Users.Patch(ctx, ac.UserID, in)
	if err != nil {
		return respondError(c, l, h.Ops, "patch_me_failed", err)
	}
	l.Info("patch_me_success", "user_id", ac.UserID)
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.get")
	ac := authz.FromContext(ctx)

	id := uint(util.ParseIntDefault(c.Param("id"), 0))
	if ac.UserID != id && !h.Guard.IsAdmin(ctx, ac) {
		return forbidden(l, "get_user_denied")
	}

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return respondError(c, l, h.Ops, "get_user_failed", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.list")
	ac := authz.FromContext(ctx)

	if !h.Guard.IsAdmin(ctx, ac) {
		return forbidden(l, "list_users_denied")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, users, err := h.Users.List(ctx, offset, limit)
	if err != nil {
		return respondError(c, l, h.Ops, "list_users_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": users,
		"meta": util.Meta(page, limit, offset, total),
	})
}

func (h *UserHandler) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.patch")
	ac := authz.FromContext(ctx)

	id := uint(util.ParseIntDefault(c.Param("id"), 0))
	if ac.UserID != id && !h.Guard.IsAdmin(ctx, ac) {
		return forbidden(l, "patch_user_denied")
	}

	var in service.PatchUserInput
	if err := c.Bind(&in); err != nil {
		l.Warn("patch_user_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Users.Patch(ctx, id, in)
	if err != nil {
		return respondError(c, l, h.Ops, "patch_user_failed", err)
	}
	l.Info("patch_user_success", "user_id", id)
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.delete")
	ac := authz.FromContext(ctx)

	id := uint(util.ParseIntDefault(c.Param("id"), 0))
	if ac.UserID != id && !h.Guard.IsAdmin(ctx, ac) {
		return forbidden(l, "delete_user_denied")
	}

	if err := h.Users.Delete(ctx, id); err != nil {
		return respondError(c, l, h.Ops, "delete_user_failed", err)
	}
	l.Info("delete_user_success", "user_id", id)
	return c.NoContent(http.StatusNoContent)
}
