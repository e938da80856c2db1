package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awmbw/live-mart/internal/auth"
)

func setupRouter(t *testing.T) (*gin.Engine, *auth.Keys) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	keys, err := auth.NewKeys("test-secret")
	require.NoError(t, err)
	m, err := NewMid(keys)
	require.NoError(t, err)

	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) }

	r := gin.New()
	r.Use(Logger())
	protected := r.Group("/")
	protected.Use(m.Authentication())
	protected.PUT("/orders/:id/status", m.Authorize(ok, auth.RoleRetailer, auth.RoleWholesaler))
	protected.GET("/profile", ok)
	return r, keys
}

func doRequest(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticationRejectsMissingToken(t *testing.T) {
	r, _ := setupRouter(t)
	w := doRequest(r, http.MethodGet, "/profile", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticationRejectsGarbageToken(t *testing.T) {
	r, _ := setupRouter(t)
	w := doRequest(r, http.MethodGet, "/profile", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticationAcceptsValidToken(t *testing.T) {
	r, keys := setupRouter(t)
	token, err := keys.GenerateToken("user-1", "a@x.com", auth.RoleCustomer)
	require.NoError(t, err)

	w := doRequest(r, http.MethodGet, "/profile", token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthorizeForbidsCustomerOnStatusUpdate(t *testing.T) {
	r, keys := setupRouter(t)
	token, err := keys.GenerateToken("user-1", "a@x.com", auth.RoleCustomer)
	require.NoError(t, err)

	w := doRequest(r, http.MethodPut, "/orders/abc/status", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthorizeAllowsRetailerOnStatusUpdate(t *testing.T) {
	r, keys := setupRouter(t)
	token, err := keys.GenerateToken("user-1", "r@x.com", auth.RoleRetailer)
	require.NoError(t, err)

	w := doRequest(r, http.MethodPut, "/orders/abc/status", token)
	assert.Equal(t, http.StatusOK, w.Code)
}
