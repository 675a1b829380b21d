package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/qs3c/salesdash_go_server/config"
	"github.com/qs3c/salesdash_go_server/internal/model/dto"
	"github.com/qs3c/salesdash_go_server/internal/pkg/jwt"
	"github.com/qs3c/salesdash_go_server/internal/pkg/oauth"
)

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrEmailNotAllowed    = errors.New("该邮箱未被授权访问看板")
	ErrOAuthNotConfigured = errors.New("未配置 Google 登录")
	ErrOAuthStateInvalid  = errors.New("无效的授权状态")
)

// AuthService 看板登录：配置内置账号 + 可选 Google 登录
type AuthService struct {
	admins        []config.AdminUser
	jwtCfg        *config.JWTConfig
	google        *oauth.GoogleOAuth // 可为 nil
	stateStore    *oauth.StateStore  // 可为 nil
	allowedEmails map[string]bool
}

func NewAuthService(cfg *config.Config, google *oauth.GoogleOAuth, stateStore *oauth.StateStore) *AuthService {
	allowed := make(map[string]bool, len(cfg.OAuth.Google.AllowedEmails))
	for _, email := range cfg.OAuth.Google.AllowedEmails {
		allowed[strings.ToLower(email)] = true
	}
	return &AuthService{
		admins:        cfg.Dashboard.Admins,
		jwtCfg:        &cfg.JWT,
		google:        google,
		stateStore:    stateStore,
		allowedEmails: allowed,
	}
}

// Login 用户名密码登录
func (s *AuthService) Login(username, password string) (*dto.LoginResponse, error) {
	for _, admin := range s.admins {
		if admin.Username != username {
			continue
		}
		if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
			return nil, ErrInvalidCredentials
		}
		return s.issueToken(username)
	}
	return nil, ErrInvalidCredentials
}

// GoogleAuthURL 生成 Google 授权跳转地址
func (s *AuthService) GoogleAuthURL(ctx context.Context, redirectURI string) (string, error) {
	if s.google == nil || s.stateStore == nil {
		return "", ErrOAuthNotConfigured
	}
	state, err := s.stateStore.GenerateState(ctx, redirectURI)
	if err != nil {
		return "", err
	}
	return s.google.GetAuthURL(state), nil
}

// GoogleCallback 处理授权回调，换取 token 并校验邮箱白名单
func (s *AuthService) GoogleCallback(ctx context.Context, state, code string) (*dto.LoginResponse, string, error) {
	if s.google == nil || s.stateStore == nil {
		return nil, "", ErrOAuthNotConfigured
	}

	redirectURI, err := s.stateStore.ValidateState(ctx, state)
	if err != nil {
		return nil, "", ErrOAuthStateInvalid
	}

	token, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, "", err
	}
	user, err := s.google.GetUser(ctx, token)
	if err != nil {
		return nil, "", err
	}

	email := strings.ToLower(user.Email)
	if len(s.allowedEmails) > 0 && !s.allowedEmails[email] {
		return nil, "", ErrEmailNotAllowed
	}

	resp, err := s.issueToken(email)
	if err != nil {
		return nil, "", err
	}
	return resp, redirectURI, nil
}

func (s *AuthService) issueToken(username string) (*dto.LoginResponse, error) {
	token, err := jwt.GenerateToken(username, s.jwtCfg.Secret, s.jwtCfg.ExpireHours)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{Token: token, Username: username}, nil
}
