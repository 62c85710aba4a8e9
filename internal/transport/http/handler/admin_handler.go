package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mongol-shop/internal/domain"
	"mongol-shop/internal/service"
	"mongol-shop/internal/transport/http/ez"
)

// AdminHandler 后台接口；分组已走 AuthJWT("admin")，服务层再按库里的角色校验一次
type AdminHandler struct {
	accounts *service.AccountService
	catalog  *service.CatalogService
	log      *zap.Logger
}

func NewAdminHandler(accounts *service.AccountService, catalog *service.CatalogService, l *zap.Logger) *AdminHandler {
	return &AdminHandler{accounts: accounts, catalog: catalog, log: l}
}

type roleQ struct {
	Role string `form:"role" binding:"required"`
}

type usersOut struct {
	Total int           `json:"total"`
	Items []domain.User `json:"items"`
}

func users(us []domain.User) usersOut {
	if us == nil {
		us = []domain.User{}
	}
	return usersOut{Total: len(us), Items: us}
}

type statusIn struct {
	Status domain.AccountStatus `json:"status" binding:"required"`
}

type featuredIn struct {
	Featured *bool `json:"featured" binding:"required"`
}

// 后台引擎已在组上校验 admin token，这里再按 action 限定一次，挂到别的组也安全
var adminOnly = []string{string(domain.RoleAdmin)}

func (h *AdminHandler) MountAdmin(admin *gin.RouterGroup) {
	e := ez.New(admin, h.log)

	ez.RegisterAction(e, ez.Action[service.AdminInput, *service.RegisterResult]{
		Method: http.MethodPost,
		Path:   "/admins",
		Binder: ez.BindJSON,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, in *service.AdminInput) (*service.RegisterResult, error) {
			return h.accounts.CreateAdmin(c.Request.Context(), ez.UserID(c), *in)
		},
	})

	// --- GET /admin/v1/users?role=seller ---
	ez.RegisterAction(e, ez.Action[roleQ, usersOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, in *roleQ) (usersOut, error) {
			us, err := h.accounts.GetUsersByRole(c.Request.Context(), domain.Role(in.Role))
			return users(us), err
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, usersOut]{
		Method: http.MethodGet,
		Path:   "/sellers/pending",
		Binder: ez.BindNone,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *struct{}) (usersOut, error) {
			us, err := h.accounts.GetPendingSellers(c.Request.Context())
			return users(us), err
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.User]{
		Method: http.MethodPost,
		Path:   "/sellers/:id/verify",
		Binder: ez.BindNone,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.accounts.VerifySeller(c.Request.Context(), ez.UserID(c), c.Param("id"))
		},
	})

	ez.RegisterAction(e, ez.Action[statusIn, *domain.User]{
		Method: http.MethodPost,
		Path:   "/users/:id/status",
		Binder: ez.BindJSON,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, in *statusIn) (*domain.User, error) {
			return h.accounts.SetAccountStatus(c.Request.Context(), ez.UserID(c), c.Param("id"), in.Status)
		},
	})

	ez.RegisterAction(e, ez.Action[featuredIn, *domain.Product]{
		Method: http.MethodPost,
		Path:   "/products/:id/featured",
		Binder: ez.BindJSON,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, in *featuredIn) (*domain.Product, error) {
			return h.catalog.SetFeatured(c.Request.Context(), ez.UserID(c), c.Param("id"), *in.Featured)
		},
	})
}
