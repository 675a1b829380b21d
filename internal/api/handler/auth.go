package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/salesdash_go_server/internal/api/middleware"
	"github.com/qs3c/salesdash_go_server/internal/model/dto"
	"github.com/qs3c/salesdash_go_server/internal/pkg/response"
	"github.com/qs3c/salesdash_go_server/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login 用户名密码登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.AuthError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "登录成功", resp)
}

// Me 当前登录用户信息，前端用它校验 token 是否仍有效
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	username, ok := middleware.GetUsername(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	response.Success(c, dto.MeResponse{Username: username})
}

// GoogleAuth 跳转到 Google 授权页
// GET /api/v1/auth/google?redirect_uri=xxx
func (h *AuthHandler) GoogleAuth(c *gin.Context) {
	redirectURI := c.Query("redirect_uri")

	authURL, err := h.authService.GoogleAuthURL(c.Request.Context(), redirectURI)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOAuthNotConfigured):
			response.Error(c, response.CodeServerError, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// GoogleCallback Google OAuth 回调，成功后带 token 跳回前端
// GET /api/v1/auth/google/callback?state=xxx&code=xxx
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		response.ParamError(c, "缺少 state 或 code 参数")
		return
	}

	resp, redirectURI, err := h.authService.GoogleCallback(c.Request.Context(), state, code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOAuthStateInvalid):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrEmailNotAllowed):
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	if redirectURI != "" {
		c.Redirect(http.StatusTemporaryRedirect, fmt.Sprintf("%s?token=%s&username=%s",
			redirectURI, url.QueryEscape(resp.Token), url.QueryEscape(resp.Username)))
		return
	}

	response.SuccessWithMessage(c, "登录成功", resp)
}
