package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/funday-app/funday-server/internal/apperr"
	"github.com/funday-app/funday-server/internal/service"
)

// ErrorReporter receives internal failures out-of-band (the ops Slack
// channel). Reporting never changes the HTTP response.
type ErrorReporter interface {
	ReportError(ctx context.Context, scope string, err error)
}

// respondError maps service errors to HTTP responses. Internal failures are
// reported to ops and surfaced as a generic 500; the cause never reaches the
// client.
func respondError(c echo.Context, l *slog.Logger, ops ErrorReporter, event string, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation) || apperr.IsBadRequest(err):
		l.Warn(event, "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case apperr.IsNotFound(err) || errors.Is(err, gorm.ErrRecordNotFound):
		l.Warn(event, "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case apperr.IsForbidden(err):
		l.Warn(event, "status", 403, "error", err)
		return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
	default:
		l.Error(event, "status", 500, "error", err)
		if ops != nil {
			ops.ReportError(c.Request().Context(), event, err)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

// forbidden is the uniform guard denial. Guards never explain why.
func forbidden(l *slog.Logger, event string) error {
	l.Warn(event, "status", 403, "reason", "guard denied")
	return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
}
