package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/qs3c/salesdash_go_server/config"
	"github.com/qs3c/salesdash_go_server/internal/api/middleware"
	"github.com/qs3c/salesdash_go_server/internal/model/dto"
	"github.com/qs3c/salesdash_go_server/internal/pkg/jwt"
	"github.com/qs3c/salesdash_go_server/internal/pkg/response"
	"github.com/qs3c/salesdash_go_server/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:      "test-secret-key",
			ExpireHours: 24,
		},
		Dashboard: config.DashboardConfig{
			Admins: []config.AdminUser{
				{Username: "admin", PasswordHash: string(hash)},
			},
		},
	}

	authService := service.NewAuthService(cfg, nil, nil)
	return NewAuthHandler(authService)
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func TestAuthHandler_Login_Success(t *testing.T) {
	handler := setupAuthHandler(t)

	router := gin.New()
	router.POST("/login", handler.Login)

	req := dto.LoginRequest{
		Username: "admin",
		Password: "password123",
	}

	w := performRequest(router, "POST", "/login", req)
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	data := resp.Data.(map[string]interface{})
	assert.NotEmpty(t, data["token"])
	assert.Equal(t, "admin", data["username"])
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	handler := setupAuthHandler(t)

	router := gin.New()
	router.POST("/login", handler.Login)

	req := dto.LoginRequest{
		Username: "admin",
		Password: "wrong-password",
	}

	w := performRequest(router, "POST", "/login", req)
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeAuthFailed, resp.Code)
}

func TestAuthHandler_Login_UnknownUser(t *testing.T) {
	handler := setupAuthHandler(t)

	router := gin.New()
	router.POST("/login", handler.Login)

	req := dto.LoginRequest{
		Username: "nobody",
		Password: "password123",
	}

	w := performRequest(router, "POST", "/login", req)
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeAuthFailed, resp.Code)
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	handler := setupAuthHandler(t)

	router := gin.New()
	router.POST("/login", handler.Login)

	w := performRequest(router, "POST", "/login", map[string]string{"username": "admin"})
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestAuthHandler_Me(t *testing.T) {
	handler := setupAuthHandler(t)

	router := gin.New()
	router.GET("/me", middleware.Auth("test-secret-key"), handler.Me)

	token, err := jwt.GenerateToken("admin", "test-secret-key", 24)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "admin", data["username"])
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	handler := setupAuthHandler(t)

	router := gin.New()
	router.GET("/me", middleware.Auth("test-secret-key"), handler.Me)

	w := performRequest(router, "GET", "/me", nil)
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeAuthFailed, resp.Code)
}

func TestAuthHandler_GoogleAuth_NotConfigured(t *testing.T) {
	handler := setupAuthHandler(t)

	router := gin.New()
	router.GET("/google", handler.GoogleAuth)

	w := performRequest(router, "GET", "/google", nil)
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeServerError, resp.Code)
}

func TestAuthHandler_GoogleCallback_MissingParams(t *testing.T) {
	handler := setupAuthHandler(t)

	router := gin.New()
	router.GET("/callback", handler.GoogleCallback)

	w := performRequest(router, "GET", "/callback", nil)
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeParamError, resp.Code)
}
