package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mongol-shop/internal/core/auth"
	"mongol-shop/internal/domain"
	"mongol-shop/internal/service"
	"mongol-shop/internal/transport/http/ez"
)

// AccountHandler 用户端账号相关接口
type AccountHandler struct {
	svc     *service.AccountService
	jwt     *auth.JWTer
	authMW  gin.HandlerFunc // AuthJWT
	trusted gin.HandlerFunc // 仅内部调用方（OAuth 回调等）
	limitMW gin.HandlerFunc // /auth/* 的每 IP 限速
	log     *zap.Logger
}

type AccountDeps struct {
	Service *service.AccountService
	JWT     *auth.JWTer
	Auth    gin.HandlerFunc
	Trusted gin.HandlerFunc
	Limit   gin.HandlerFunc
	Log     *zap.Logger
}

func NewAccountHandler(d AccountDeps) *AccountHandler {
	return &AccountHandler{
		svc: d.Service, jwt: d.JWT, authMW: d.Auth, trusted: d.Trusted, limitMW: d.Limit,
		log: d.Log,
	}
}

func (h *AccountHandler) Priority() int { return 10 }

type tokenOut struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

type loginIn struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type sessionIn struct {
	Subject string      `json:"subject" binding:"required"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Image   string      `json:"image"`
	Role    domain.Role `json:"role"`
}

// publicUser 按用户名查询时对外可见的字段
type publicUser struct {
	ID             string                `json:"id"`
	Username       string                `json:"username"`
	FirstName      string                `json:"firstName,omitempty"`
	LastName       string                `json:"lastName,omitempty"`
	ProfilePicture string                `json:"profilePicture,omitempty"`
	Role           domain.Role           `json:"role"`
	Seller         *domain.SellerProfile `json:"seller,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
}

func (h *AccountHandler) MountAPI(api *gin.RouterGroup) {
	authGroup := api.Group("/auth")
	if h.limitMW != nil {
		authGroup.Use(h.limitMW)
	}
	pub := ez.New(authGroup, h.log)

	ez.RegisterAction(pub, ez.Action[service.RegisterInput, *service.RegisterResult]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.RegisterInput) (*service.RegisterResult, error) {
			return h.svc.Register(c.Request.Context(), *in)
		},
	})

	ez.RegisterAction(pub, ez.Action[loginIn, tokenOut]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (tokenOut, error) {
			sum, err := h.svc.Login(c.Request.Context(), in.Username, in.Password)
			if err != nil {
				return tokenOut{}, err
			}
			tok, err := h.jwt.Issue(sum.UserID, string(sum.Role), "")
			if err != nil {
				return tokenOut{}, ez.Internal("issue token failed", err)
			}
			return tokenOut{Token: tok, User: sum}, nil
		},
	})

	// 下面两个由前端服务端在完成第三方登录后调用
	internal := authGroup.Group("")
	if h.trusted != nil {
		internal.Use(h.trusted)
	}
	trusted := ez.New(internal, h.log)

	ez.RegisterAction(trusted, ez.Action[service.OAuthInput, tokenOut]{
		Method: http.MethodPost,
		Path:   "/oauth",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.OAuthInput) (tokenOut, error) {
			res, err := h.svc.RegisterOAuthUser(c.Request.Context(), *in)
			if err != nil {
				return tokenOut{}, err
			}
			tok, err := h.jwt.Issue(res.UserID, string(res.Role), "")
			if err != nil {
				return tokenOut{}, ez.Internal("issue token failed", err)
			}
			return tokenOut{Token: tok, User: res}, nil
		},
	})

	ez.RegisterAction(trusted, ez.Action[sessionIn, tokenOut]{
		Method: http.MethodPost,
		Path:   "/session",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *sessionIn) (tokenOut, error) {
			ctx := c.Request.Context()
			id, err := h.svc.UpsertProfile(ctx, in.Subject, service.ProfileInput{
				Name: in.Name, Email: in.Email, Image: in.Image, Role: in.Role,
			})
			if err != nil {
				return tokenOut{}, err
			}
			u, err := h.svc.GetCurrentUser(ctx, service.Principal{UserID: id})
			if err != nil {
				return tokenOut{}, err
			}
			if u.EffectiveStatus() == domain.StatusSuspended {
				return tokenOut{}, domain.Suspended("your account has been suspended, please contact support")
			}
			tok, err := h.jwt.Issue(u.ID, string(u.EffectiveRole()), in.Subject)
			if err != nil {
				return tokenOut{}, ez.Internal("issue token failed", err)
			}
			return tokenOut{Token: tok, User: u.Summary()}, nil
		},
	})

	ez.RegisterAction(ez.New(api, h.log), ez.Action[struct{}, publicUser]{
		Method: http.MethodGet,
		Path:   "/users/:username",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (publicUser, error) {
			u, err := h.svc.GetUserByUsername(c.Request.Context(), c.Param("username"))
			if err != nil {
				return publicUser{}, err
			}
			return publicUser{
				ID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName,
				ProfilePicture: u.ProfilePicture, Role: u.EffectiveRole(), Seller: u.Seller, CreatedAt: u.CreatedAt,
			}, nil
		},
	})

	// 需要登录
	authed := api.Group("")
	authed.Use(h.authMW)
	me := ez.New(authed, h.log)

	ez.RegisterAction(me, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.svc.GetCurrentUser(c.Request.Context(), service.Principal{
				UserID: ez.UserID(c), Subject: ez.Subject(c),
			})
		},
	})

	ez.RegisterAction(me, ez.Action[service.ProfileInput, gin.H]{
		Method: http.MethodPost,
		Path:   "/profile",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.ProfileInput) (gin.H, error) {
			sub := ez.Subject(c)
			if sub == "" {
				return nil, ez.Forbidden("profile sync requires an external session")
			}
			id, err := h.svc.UpsertProfile(c.Request.Context(), sub, *in)
			if err != nil {
				return nil, err
			}
			return gin.H{"userId": id}, nil
		},
	})
}
