package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/funday-app/funday-server/internal/hash"
	"github.com/funday-app/funday-server/internal/logging"
	"github.com/funday-app/funday-server/internal/models"
	"github.com/funday-app/funday-server/internal/oauth"
	"github.com/funday-app/funday-server/internal/service"
	"github.com/funday-app/funday-server/internal/token"
)

type AuthHandler struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
	OAuth         *oauth.Client
	Users         *service.UserService
	Ops           ErrorReporter
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("register_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Email) == "" || len(req.Password) < 8 {
		l.Warn("register_failed", "status", 400, "reason", "email and a password of 8+ characters required")
		return echo.NewHTTPError(http.StatusBadRequest, "email and a password of 8+ characters required")
	}

	var existing models.User
	err := h.DB.WithContext(ctx).Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		l.Warn("register_failed", "status", 409, "reason", "email taken")
		return echo.NewHTTPError(http.StatusConflict, "user already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return respondError(c, l, h.Ops, "register_failed", err)
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return respondError(c, l, h.Ops, "register_failed", err)
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashed,
		Role:         models.RoleUser,
		Provider:     "local",
	}
	if err := h.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return respondError(c, l, h.Ops, "register_failed", err)
	}

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var user models.User
	if err := h.DB.WithContext(ctx).Where("email = ?", req.Email).First(&user).Error; err != nil {
		l.Warn("login_failed", "status", 401, "reason", "unknown email")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password", "user_id", user.ID)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	return h.issueTokens(c, l, &user)
}

// OAuthLogin exchanges a provider access token for a local session, creating
// the account on first login.
func (h *AuthHandler) OAuthLogin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.oauth")

	provider := c.Param("provider")

	var req struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.Bind(&req); err != nil || req.AccessToken == "" {
		l.Warn("oauth_failed", "status", 400, "reason", "missing access token", "provider", provider)
		return echo.NewHTTPError(http.StatusBadRequest, "access_token required")
	}

	profile, err := h.OAuth.FetchProfile(ctx, provider, req.AccessToken)
	if err != nil {
		l.Warn("oauth_failed", "status", 401, "reason", "profile fetch failed", "provider", provider, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "cannot verify provider token")
	}

	user, err := h.Users.UpsertOAuth(ctx, profile)
	if err != nil {
		return respondError(c, l, h.Ops, "oauth_failed", err)
	}

	return h.issueTokens(c, l, user)
}

func (h *AuthHandler) issueTokens(c echo.Context, l *slog.Logger, user *models.User) error {
	ctx := c.Request().Context()

	accessToken, err := token.SignAccessToken(user.ID, user.Role, h.JWTSecret)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign access token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	refreshToken, err := token.SignRefreshToken(user.ID, user.Role, h.RefreshSecret)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign refresh token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if err := token.SaveRefreshToken(h.DB.WithContext(ctx), refreshToken, user.ID, user.Role); err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot persist refresh token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	c.SetCookie(token.CreateCookie("accessToken", accessToken, "/", time.Now().Add(token.AccessTTL)))
	c.SetCookie(token.CreateCookie("refreshToken", refreshToken, "/", time.Now().Add(token.RefreshTTL)))

	l.Info("login_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"role":          user.Role,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	refreshCookie, err := c.Cookie("refreshToken")
	if err != nil {
		l.Warn("logout_failed", "status", 400, "reason", "missing refresh cookie")
		return echo.NewHTTPError(http.StatusBadRequest, "missing refresh token")
	}

	result := h.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", refreshCookie.Value).
		Update("revoked", true)
	if result.Error != nil {
		return respondError(c, l, h.Ops, "logout_failed", result.Error)
	}

	expired := time.Now().Add(-1 * time.Hour)
	c.SetCookie(token.CreateCookie("accessToken", "", "/", expired))
	c.SetCookie(token.CreateCookie("refreshToken", "", "/", expired))

	l.Info("logout_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
