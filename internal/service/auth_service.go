package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/Dhruv-9927/HostelGig/internal/core/auth"
	"github.com/Dhruv-9927/HostelGig/internal/domain"
	"github.com/Dhruv-9927/HostelGig/pkg/utils"
)

// AuthService 注册/登录/当前用户。密码只存 bcrypt 散列，身份凭证是 HS256 JWT。
type AuthService struct {
	users domain.UserRepository
	jwter *auth.JWTer
}

func NewAuthService(users domain.UserRepository, jwter *auth.JWTer) *AuthService {
	return &AuthService{users: users, jwter: jwter}
}

type SignupInput struct {
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=6"`
	Name     string          `json:"name" binding:"required,max=64"`
	Role     domain.UserRole `json:"role" binding:"omitempty"`
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.User, string, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleBoth
	}
	if !role.Valid() || role == domain.RoleAdmin {
		return nil, "", domain.Invalid("role", "must be hirer, solver or both")
	}
	name := strings.TrimSpace(in.Name)
	u := &domain.User{
		ID:           utils.NewID(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Name:         name,
		PasswordHash: utils.HashPassword(in.Password),
		Role:         role,
		// 默认头像用昵称做种子，前端可覆盖
		Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=" + url.QueryEscape(name),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}
	tok, err := s.jwter.Issue(u.ID, string(u.Role))
	if err != nil {
		return nil, "", err
	}
	return u, tok, nil
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*domain.User, string, error) {
	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		// 不区分“账号不存在”和“密码错误”
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrUnauthenticated
		}
		return nil, "", err
	}
	if !utils.CheckPassword(in.Password, u.PasswordHash) {
		return nil, "", domain.ErrUnauthenticated
	}
	tok, err := s.jwter.Issue(u.ID, string(u.Role))
	if err != nil {
		return nil, "", err
	}
	return u, tok, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.users.FindByID(ctx, userID)
}
