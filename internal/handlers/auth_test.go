package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/funday-app/funday-server/internal/hash"
	"github.com/funday-app/funday-server/internal/models"
	"github.com/funday-app/funday-server/internal/service"
)

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func newAuthHandler(t *testing.T) (*AuthHandler, *gorm.DB) {
	db := initTestDB(t)
	return &AuthHandler{
		DB:            db,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		Users:         &service.UserService{DB: db},
	}, db
}

func postJSON(e *echo.Echo, path string, payload any) (echo.Context, *httptest.ResponseRecorder) {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRegister(t *testing.T) {
	h, _ := newAuthHandler(t)
	e := echo.New()

	c, rec := postJSON(e, "/api/auth/register", map[string]string{
		"name":     "Test User",
		"email":    "test@example.com",
		"password": "password123",
	})
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	require.Equal(t, "test@example.com", user.Email)
	require.Equal(t, models.RoleUser, user.Role)
	require.NotEmpty(t, user.ID)
	require.NotContains(t, rec.Body.String(), "password123")

	// duplicate email
	c2, _ := postJSON(e, "/api/auth/register", map[string]string{
		"name":     "Test User",
		"email":    "test@example.com",
		"password": "password123",
	})
	err := h.Register(c2)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusConflict, he.Code)

	// short password
	c3, _ := postJSON(e, "/api/auth/register", map[string]string{
		"email":    "short@example.com",
		"password": "short",
	})
	err = h.Register(c3)
	he, ok = err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestLogin(t *testing.T) {
	h, db := newAuthHandler(t)
	e := echo.New()

	hashed, _ := hash.HashPassword("password123")
	require.NoError(t, db.Create(&models.User{
		Name: "Test User", Email: "test@example.com", PasswordHash: hashed, Role: models.RoleUser,
	}).Error)

	c, rec := postJSON(e, "/api/auth/login", map[string]string{
		"email":    "test@example.com",
		"password": "password123",
	})
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["access_token"])
	require.NotEmpty(t, resp["refresh_token"])

	// refresh token is persisted for revocation
	var stored int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Count(&stored).Error)
	require.EqualValues(t, 1, stored)
}

func TestLoginWrongPasswordIssuesNoToken(t *testing.T) {
	h, db := newAuthHandler(t)
	e := echo.New()

	hashed, _ := hash.HashPassword("password123")
	require.NoError(t, db.Create(&models.User{
		Name: "Test User", Email: "test@example.com", PasswordHash: hashed, Role: models.RoleUser,
	}).Error)

	c, rec := postJSON(e, "/api/auth/login", map[string]string{
		"email":    "test@example.com",
		"password": "wrong-password",
	})
	err := h.Login(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
	require.NotContains(t, rec.Body.String(), "access_token")

	var stored int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Count(&stored).Error)
	require.Zero(t, stored)

	// unknown email gets the same answer
	c2, _ := postJSON(e, "/api/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "password123",
	})
	err = h.Login(c2)
	he, ok = err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestLogout(t *testing.T) {
	h, db := newAuthHandler(t)
	e := echo.New()

	hashed, _ := hash.HashPassword("password123")
	require.NoError(t, db.Create(&models.User{
		Name: "Test User", Email: "test@example.com", PasswordHash: hashed, Role: models.RoleUser,
	}).Error)

	cLogin, recLogin := postJSON(e, "/api/auth/login", map[string]string{
		"email":    "test@example.com",
		"password": "password123",
	})
	require.NoError(t, h.Login(cLogin))
	require.Equal(t, http.StatusOK, recLogin.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(recLogin.Body.Bytes(), &resp))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: resp["refresh_token"]})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var row models.RefreshToken
	require.NoError(t, db.Where("token = ?", resp["refresh_token"]).First(&row).Error)
	require.True(t, row.Revoked)
}
