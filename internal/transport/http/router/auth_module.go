package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dhruv-9927/HostelGig/internal/core/auth"
	"github.com/Dhruv-9927/HostelGig/internal/domain"
	"github.com/Dhruv-9927/HostelGig/internal/service"
	"github.com/Dhruv-9927/HostelGig/internal/transport/http/ez"
	mdw "github.com/Dhruv-9927/HostelGig/internal/transport/http/middleware"
)

// AuthModule 注册/登录/当前用户
type AuthModule struct {
	Svc   *service.AuthService
	JWTer *auth.JWTer
}

func NewAuthModule(svc *service.AuthService, jwter *auth.JWTer) *AuthModule {
	return &AuthModule{Svc: svc, JWTer: jwter}
}

// Priority 先挂 auth，再挂业务模块
func (m *AuthModule) Priority() int { return 10 }

type userOut struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Email  string          `json:"email"`
	Role   domain.UserRole `json:"role"`
	Avatar string          `json:"avatar"`
}

type meOut struct {
	userOut
	Skills  string  `json:"skills"`
	Rating  float64 `json:"rating"`
	Reviews int     `json:"reviews"`
}

type tokenOut struct {
	Token string  `json:"token"`
	User  userOut `json:"user"`
}

func viewUser(u *domain.User) userOut {
	return userOut{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Avatar: u.Avatar}
}

func (m *AuthModule) MountAPI(api *gin.RouterGroup) {
	pub := ez.New(api.Group("/auth"))

	ez.RegisterAction(pub, ez.Action[service.SignupInput, tokenOut]{
		Method: http.MethodPost,
		Path:   "/signup",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.SignupInput) (tokenOut, error) {
			u, tok, err := m.Svc.Signup(c.Request.Context(), *in)
			if err != nil {
				return tokenOut{}, err
			}
			return tokenOut{Token: tok, User: viewUser(u)}, nil
		},
	})

	ez.RegisterAction(pub, ez.Action[service.LoginInput, tokenOut]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.LoginInput) (tokenOut, error) {
			u, tok, err := m.Svc.Login(c.Request.Context(), *in)
			if err != nil {
				return tokenOut{}, err
			}
			return tokenOut{Token: tok, User: viewUser(u)}, nil
		},
	})

	authed := api.Group("/auth")
	authed.Use(mdw.AuthJWT(m.JWTer, ""))
	priv := ez.New(authed)

	ez.RegisterAction(priv, ez.Action[struct{}, meOut]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (meOut, error) {
			u, err := m.Svc.Me(c.Request.Context(), c.GetString("userId"))
			if err != nil {
				return meOut{}, err
			}
			return meOut{
				userOut: viewUser(u),
				Skills:  u.Skills, Rating: u.Rating, Reviews: u.Reviews,
			}, nil
		},
	})
}
