package token

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/funday-app/funday-server/internal/authz"
	"github.com/funday-app/funday-server/internal/models"
)

var (
	testJWTSecret     = []byte("test-jwt-secret")
	testRefreshSecret = []byte("test-refresh-secret")
)

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.RefreshToken{}, &models.User{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func TestAccessTokenRoundTrip(t *testing.T) {
	raw, err := SignAccessToken(42, models.RoleEditor, testJWTSecret)
	require.NoError(t, err)

	claims, err := ParseAccess(raw, testJWTSecret)
	require.NoError(t, err)
	require.EqualValues(t, 42, claims["sub"])
	require.Equal(t, models.RoleEditor, claims["role"])

	_, err = ParseAccess(raw, []byte("wrong-secret"))
	require.Error(t, err)
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	db := initTestDB(t)

	// an access token signed with the refresh secret still lacks the typ claim
	raw, err := SignAccessToken(1, models.RoleUser, testRefreshSecret)
	require.NoError(t, err)

	_, err = ValidateRefresh(raw, testRefreshSecret, db)
	require.Error(t, err)
}

func TestValidateRefreshChecksStoredRow(t *testing.T) {
	db := initTestDB(t)

	raw, err := SignRefreshToken(7, models.RoleUser, testRefreshSecret)
	require.NoError(t, err)

	// not persisted yet
	_, err = ValidateRefresh(raw, testRefreshSecret, db)
	require.Error(t, err)

	require.NoError(t, SaveRefreshToken(db, raw, 7, models.RoleUser))
	claims, err := ValidateRefresh(raw, testRefreshSecret, db)
	require.NoError(t, err)
	require.EqualValues(t, 7, claims["sub"])

	// revoked rows are dead even with a valid signature
	require.NoError(t, db.Model(&models.RefreshToken{}).Where("token = ?", raw).Update("revoked", true).Error)
	_, err = ValidateRefresh(raw, testRefreshSecret, db)
	require.Error(t, err)
}

func TestRotateIssuesFreshPair(t *testing.T) {
	db := initTestDB(t)
	svc := &Service{DB: db, JWTSecret: testJWTSecret, RefreshSecret: testRefreshSecret}

	raw, err := SignRefreshToken(7, models.RoleUser, testRefreshSecret)
	require.NoError(t, err)
	require.NoError(t, SaveRefreshToken(db, raw, 7, models.RoleUser))

	access, refresh, claims, err := svc.Rotate(raw)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	require.NotEqual(t, raw, refresh)
	require.EqualValues(t, 7, claims["sub"])

	_, err = ParseAccess(access, testJWTSecret)
	require.NoError(t, err)
}

func TestRequireAuthSetsIdentity(t *testing.T) {
	db := initTestDB(t)
	svc := &Service{DB: db, JWTSecret: testJWTSecret, RefreshSecret: testRefreshSecret}

	access, err := SignAccessToken(11, models.RoleUser, testJWTSecret)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen authz.Context
	next := func(c echo.Context) error {
		seen = authz.FromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	}

	require.NoError(t, svc.RequireAuth(next)(c))
	require.True(t, seen.Authenticated)
	require.Equal(t, uint(11), seen.UserID)
	require.Equal(t, models.RoleUser, seen.Role)
}

func TestRequireAuthRejectsMissingCredentials(t *testing.T) {
	db := initTestDB(t)
	svc := &Service{DB: db, JWTSecret: testJWTSecret, RefreshSecret: testRefreshSecret}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	err := svc.RequireAuth(next)(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireAuthRotatesFromRefreshCookie(t *testing.T) {
	db := initTestDB(t)
	svc := &Service{DB: db, JWTSecret: testJWTSecret, RefreshSecret: testRefreshSecret}

	refresh, err := SignRefreshToken(5, models.RoleUser, testRefreshSecret)
	require.NoError(t, err)
	require.NoError(t, SaveRefreshToken(db, refresh, 5, models.RoleUser))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen authz.Context
	next := func(c echo.Context) error {
		seen = authz.FromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	}

	require.NoError(t, svc.RequireAuth(next)(c))
	require.True(t, seen.Authenticated)
	require.Equal(t, uint(5), seen.UserID)

	// fresh cookies were set on the response
	cookies := rec.Result().Cookies()
	var names []string
	for _, ck := range cookies {
		names = append(names, ck.Name)
	}
	require.Contains(t, names, "accessToken")
	require.Contains(t, names, "refreshToken")
}
