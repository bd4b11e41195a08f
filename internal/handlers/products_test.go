package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/funday-app/funday-server/internal/authz"
	"github.com/funday-app/funday-server/internal/guard"
	"github.com/funday-app/funday-server/internal/models"
	"github.com/funday-app/funday-server/internal/service"
)

func newProductHandler(t *testing.T) (*ProductHandler, *gorm.DB) {
	db := initTestDB(t)
	return &ProductHandler{
		Products: &service.ProductService{DB: db},
		Guard:    &guard.Guard{DB: db},
		ESIndex:  "products",
	}, db
}

func requestAs(e *echo.Echo, user models.User, method, path string, payload any) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if payload != nil {
		body, _ := json.Marshal(payload)
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	ac := authz.Context{UserID: user.ID, Role: user.Role, Authenticated: true}
	req = req.WithContext(authz.IntoContext(req.Context(), ac))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestCreateProductSetsHost(t *testing.T) {
	h, db := newProductHandler(t)
	e := echo.New()

	host := models.User{Name: "Host", Email: "host@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(&host).Error)

	c, rec := requestAs(e, host, http.MethodPost, "/api/products", map[string]any{
		"title":       "City walk",
		"description": "Two hour guided walk",
		"price":       15000,
		"host_id":     999,
	})
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var detail service.ProductDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	// the body cannot pick a host, the caller is the host
	require.Equal(t, host.ID, detail.HostID)
}

func TestPatchProductDeniedForStranger(t *testing.T) {
	h, db := newProductHandler(t)
	e := echo.New()

	host := models.User{Name: "Host", Email: "host@example.com", PasswordHash: "x", Role: models.RoleUser}
	stranger := models.User{Name: "Stranger", Email: "stranger@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(&host).Error)
	require.NoError(t, db.Create(&stranger).Error)
	require.NoError(t, db.Create(&models.Product{Title: "t", Description: "d", Price: 1, HostID: host.ID}).Error)

	c, _ := requestAs(e, stranger, http.MethodPatch, "/api/products/1", map[string]any{"title": "hijacked"})
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := h.Patch(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusForbidden, he.Code)

	var kept models.Product
	require.NoError(t, db.First(&kept, 1).Error)
	require.Equal(t, "t", kept.Title)
}

func TestListProductsMeta(t *testing.T) {
	h, db := newProductHandler(t)
	e := echo.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.Product{Title: "p", Description: "d", Price: 1, HostID: 1, Status: models.ProductStatusActive}).Error)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/products?page=1&size=2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.Product `json:"data"`
		Meta map[string]any   `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	require.EqualValues(t, 3, resp.Meta["total"])
	require.Equal(t, true, resp.Meta["has_next"])
}

func TestSearchUnavailableWithoutBackend(t *testing.T) {
	h, _ := newProductHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/products/search?q=pottery", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Search(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusServiceUnavailable, he.Code)
}
