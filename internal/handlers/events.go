package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/funday-app/funday-server/internal/authz"
	"github.com/funday-app/funday-server/internal/guard"
	"github.com/funday-app/funday-server/internal/logging"
	"github.com/funday-app/funday-server/internal/service"
	"github.com/funday-app/funday-server/internal/util"
)

type EventHandler struct {
	Events *service.EventService
	Guard  *guard.Guard
	Ops    ErrorReporter
}

func (h *EventHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "events.create")
	ac := authz.FromContext(ctx)

	if !h.Guard.IsEditorOrAdmin(ctx, ac) {
		return forbidden(l, "create_event_denied")
	}

	var in service.CreateEventInput
	if err := c.Bind(&in); err != nil {
		l.Warn("create_event_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	detail, err := h.Events.Create(ctx, in)
	if err != nil {
		return respondError(c, l, h.Ops, "create_event_failed", err)
	}
	l.Info("create_event_success", "event_id", detail.ID)
	return c.JSON(http.StatusCreated, detail)
}

func (h *EventHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "events.get")

	id := uint(util.ParseIntDefault(c.Param("id"), 0))
	detail, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return respondError(c, l, h.Ops, "get_event_failed", err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *EventHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "events.list")

	f := service.EventFilter{Status: c.QueryParam("status")}
	if v := c.QueryParam("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.From = t
		}
	}
	if v := c.QueryParam("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.To = t
		}
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, events, err := h.Events.List(ctx, f, offset, limit)
	if err != nil {
		return respondError(c, l, h.Ops, "list_events_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": events,
		"meta": util.Meta(page, limit, offset, total),
	})
}

func (h *EventHandler) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "events.patch")
	ac := authz.FromContext(ctx)

	if !h.Guard.IsEditorOrAdmin(ctx, ac) {
		return forbidden(l, "patch_event_denied")
	}

	id := uint(util.ParseIntDefault(c.Param("id"), 0))

	var in service.PatchEventInput
	if err := c.Bind(&in); err != nil {
		l.Warn("patch_event_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	detail, err := h.Events.Patch(ctx, id, in)
	if err != nil {
		return respondError(c, l, h.Ops, "patch_event_failed", err)
	}
	l.Info("patch_event_success", "event_id", id)
	return c.JSON(http.StatusOK, detail)
}

func (h *EventHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "events.delete")
	ac := authz.FromContext(ctx)

	if !h.Guard.IsEditorOrAdmin(ctx, ac) {
		return forbidden(l, "delete_event_denied")
	}

	id := uint(util.ParseIntDefault(c.Param("id"), 0))
	if err := h.Events.Delete(ctx, id); err != nil {
		return respondError(c, l, h.Ops, "delete_event_failed", err)
	}
	l.Info("delete_event_success", "event_id", id)
	return c.NoContent(http.StatusNoContent)
}
