package fakeapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	method string
	path   string
	body   string
	token  string
	cookie *http.Cookie
}

func do(t *testing.T, s *Server, c call) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var body *strings.Reader
	if c.body != "" {
		body = strings.NewReader(c.body)
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(c.method, c.path, body)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func login(t *testing.T, s *Server, email string) (access string, refresh *http.Cookie) {
	t.Helper()
	rec, out := do(t, s, call{method: http.MethodPost, path: "/api/v1/auth/login",
		body: `{"email":"` + email + `","password":"` + DemoPassword + `"}`})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := out["token"].(map[string]any)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == RefreshCookie {
			refresh = ck
		}
	}
	require.NotNil(t, refresh)
	return token["access_token"].(string), refresh
}

func TestLoginSpeaksSnakeCase(t *testing.T) {
	s := New()
	rec, out := do(t, s, call{method: http.MethodPost, path: "/api/v1/auth/login",
		body: `{"email":"` + SellerEmail + `","password":"` + DemoPassword + `"}`})
	require.Equal(t, http.StatusOK, rec.Code)

	token := out["token"].(map[string]any)
	assert.Equal(t, "Bearer", token["type"])
	assert.NotEmpty(t, token["access_token"])
	assert.NotEmpty(t, token["refresh_token"])

	user := out["data"].(map[string]any)
	assert.Equal(t, "u2", user["_id"])
	store := user["store"].(map[string]any)
	assert.Equal(t, SellerStoreID, store["_id"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := New()
	rec, out := do(t, s, call{method: http.MethodPost, path: "/api/v1/auth/login",
		body: `{"email":"` + BuyerEmail + `","password":"wrong"}`})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", out["message"])
}

func TestValidationErrorsAreKeyedBySnakeCaseField(t *testing.T) {
	s := New()
	rec, out := do(t, s, call{method: http.MethodPost, path: "/api/v1/auth/register",
		body: `{"name":"","email":"nope","password":"short"}`})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := out["errors"].(map[string]any)
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := New()
	rec, out := do(t, s, call{method: http.MethodGet, path: "/api/v1/auth/profile"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", out["message"])
}

func TestRefreshWithCookieAfterInvalidation(t *testing.T) {
	s := New()
	access, cookie := login(t, s, BuyerEmail)

	rec, _ := do(t, s, call{method: http.MethodGet, path: "/api/v1/auth/profile", token: access})
	require.Equal(t, http.StatusOK, rec.Code)

	s.InvalidateAccessTokens()
	rec, _ = do(t, s, call{method: http.MethodGet, path: "/api/v1/auth/profile", token: access})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, out := do(t, s, call{method: http.MethodPost, path: "/api/v1/auth/refresh", cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, s.RefreshCalls())

	fresh := out["token"].(map[string]any)["access_token"].(string)
	rec, _ = do(t, s, call{method: http.MethodGet, path: "/api/v1/auth/profile", token: fresh})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutRevokesTokens(t *testing.T) {
	s := New()
	access, cookie := login(t, s, BuyerEmail)

	rec, _ := do(t, s, call{method: http.MethodPost, path: "/api/v1/auth/logout", token: access})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, s, call{method: http.MethodGet, path: "/api/v1/auth/profile", token: access})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = do(t, s, call{method: http.MethodPost, path: "/api/v1/auth/refresh", cookie: cookie})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpiredAccessToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := New(WithAccessTTL(time.Minute), WithClock(func() time.Time { return now }))
	access, _ := login(t, s, BuyerEmail)

	now = now.Add(2 * time.Minute)
	rec, _ := do(t, s, call{method: http.MethodGet, path: "/api/v1/auth/profile", token: access})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListProducts(t *testing.T) {
	s := New()
	tests := []struct {
		name    string
		query   string
		wantIDs []string
		total   float64
		last    float64
	}{
		{name: "defaults sort by id desc", query: "", wantIDs: []string{"p5", "p4", "p3", "p2", "p1"}, total: 5, last: 1},
		{name: "category filter", query: "?category_id=c2&sort=price&direction=asc", wantIDs: []string{"p2", "p5"}, total: 2, last: 1},
		{name: "search", query: "?search=yarn&sort=name&direction=asc", wantIDs: []string{"p2", "p5"}, total: 2, last: 1},
		{name: "in stock", query: "?in_stock=1&category_id=c2", wantIDs: []string{"p2"}, total: 1, last: 1},
		{name: "paging", query: "?limit=5&page=2", wantIDs: []string{}, total: 5, last: 1},
		{name: "invalid values fall back", query: "?limit=7&sort=bogus&direction=up", wantIDs: []string{"p5", "p4", "p3", "p2", "p1"}, total: 5, last: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := do(t, s, call{method: http.MethodGet, path: "/api/v1/products" + tt.query})
			require.Equal(t, http.StatusOK, rec.Code)
			ids := []string{}
			for _, row := range out["data"].([]any) {
				ids = append(ids, row.(map[string]any)["_id"].(string))
			}
			assert.Equal(t, tt.wantIDs, ids)
			meta := out["meta"].(map[string]any)
			assert.Equal(t, tt.total, meta["total"])
			assert.Equal(t, tt.last, meta["last_page"])
		})
	}
}

func TestCreateProductMultipart(t *testing.T) {
	s := New()
	access, _ := login(t, s, SellerEmail)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("name", "Lace Shawl"))
	require.NoError(t, w.WriteField("price", "275000"))
	require.NoError(t, w.WriteField("stock", "4"))
	require.NoError(t, w.WriteField("category_id", "c1"))
	fw, err := w.CreateFormFile("image", "shawl.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out struct {
		Data struct {
			ID       string `json:"_id"`
			ImageURL string `json:"image_url"`
			Store    struct {
				ID string `json:"_id"`
			} `json:"store"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, SellerStoreID, out.Data.Store.ID)
	require.True(t, strings.HasPrefix(out.Data.ImageURL, "/uploads/"))
	assert.True(t, strings.HasSuffix(out.Data.ImageURL, ".png"))

	img := httptest.NewRecorder()
	s.Handler().ServeHTTP(img, httptest.NewRequest(http.MethodGet, out.Data.ImageURL, nil))
	assert.Equal(t, http.StatusOK, img.Code)
	assert.Equal(t, "\x89PNG\r\n\x1a\nfake", img.Body.String())
}

func TestCreateOrderChecksStock(t *testing.T) {
	s := New()
	access, _ := login(t, s, BuyerEmail)

	rec, out := do(t, s, call{method: http.MethodPost, path: "/api/v1/orders", token: access,
		body: `{"items":[{"product_id":"p3","quantity":5},{"product_id":"p1","quantity":1}]}`})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, out["errors"], "items")
	p1, _ := s.Product("p1")
	assert.Equal(t, 12, p1.Stock, "rejected order leaves stock alone")

	rec, out = do(t, s, call{method: http.MethodPost, path: "/api/v1/orders", token: access,
		body: `{"items":[{"product_id":"p1","quantity":2}]}`})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := out["data"].(map[string]any)
	assert.Equal(t, "300000", data["total_amount"])
	assert.Equal(t, "pending", data["status"])
	p1, _ = s.Product("p1")
	assert.Equal(t, 10, p1.Stock)
}

func TestOrderVisibility(t *testing.T) {
	s := New()
	buyer, _ := login(t, s, BuyerEmail)
	seller, _ := login(t, s, SellerEmail)
	admin, _ := login(t, s, AdminEmail)

	for _, token := range []string{buyer, seller, admin} {
		rec, _ := do(t, s, call{method: http.MethodGet, path: "/api/v1/orders/" + SeedOrderID, token: token})
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec, _ := do(t, s, call{method: http.MethodPost, path: "/api/v1/auth/register",
		body: `{"name":"Sari","email":"sari@storefront.test","password":"longenough"}`})
	require.Equal(t, http.StatusCreated, rec.Code)
	stranger, _ := login(t, s, "sari@storefront.test")
	rec, _ = do(t, s, call{method: http.MethodGet, path: "/api/v1/orders/" + SeedOrderID, token: stranger})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboards(t *testing.T) {
	s := New()
	admin, _ := login(t, s, AdminEmail)
	seller, _ := login(t, s, SellerEmail)
	buyer, _ := login(t, s, BuyerEmail)

	rec, out := do(t, s, call{method: http.MethodGet, path: "/api/v1/dashboard/admin", token: admin})
	require.Equal(t, http.StatusOK, rec.Code)
	stats := out["data"].(map[string]any)
	assert.EqualValues(t, 3, stats["total_users"])
	assert.EqualValues(t, 1, stats["total_stores"])
	assert.Equal(t, "70000", stats["total_revenue"])

	rec, _ = do(t, s, call{method: http.MethodGet, path: "/api/v1/dashboard/admin", token: seller})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, out = do(t, s, call{method: http.MethodGet, path: "/api/v1/dashboard/seller", token: seller})
	require.Equal(t, http.StatusOK, rec.Code)
	stats = out["data"].(map[string]any)
	assert.EqualValues(t, 5, stats["total_products"])
	assert.EqualValues(t, 1, stats["total_orders"])
	assert.Len(t, stats["recent_orders"], 1)

	rec, _ = do(t, s, call{method: http.MethodGet, path: "/api/v1/dashboard/seller", token: buyer})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	rec, out := do(t, New(), call{method: http.MethodGet, path: "/api/v1/nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", out["message"])
}
