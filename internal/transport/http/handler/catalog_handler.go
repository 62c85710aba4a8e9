package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mongol-shop/internal/domain"
	"mongol-shop/internal/service"
	"mongol-shop/internal/transport/http/ez"
)

type CatalogHandler struct {
	svc    *service.CatalogService
	authMW gin.HandlerFunc
	log    *zap.Logger
}

func NewCatalogHandler(svc *service.CatalogService, authMW gin.HandlerFunc, l *zap.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, authMW: authMW, log: l}
}

func (h *CatalogHandler) Priority() int { return 20 }

type listOut struct {
	Total int              `json:"total"`
	Items []domain.Product `json:"items"`
}

func list(items []domain.Product) listOut {
	if items == nil {
		items = []domain.Product{}
	}
	return listOut{Total: len(items), Items: items}
}

func onlyActive(items []domain.Product) []domain.Product {
	out := make([]domain.Product, 0, len(items))
	for _, p := range items {
		if p.Status == domain.ProductActive {
			out = append(out, p)
		}
	}
	return out
}

func (h *CatalogHandler) MountAPI(api *gin.RouterGroup) {
	pub := ez.New(api, h.log)

	ez.RegisterAction(pub, ez.Action[struct{}, listOut]{
		Method: http.MethodGet,
		Path:   "/products",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (listOut, error) {
			ps, err := h.svc.GetActiveProducts(c.Request.Context())
			return list(ps), err
		},
	})

	ez.RegisterAction(pub, ez.Action[struct{}, listOut]{
		Method: http.MethodGet,
		Path:   "/products/featured",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (listOut, error) {
			ps, err := h.svc.GetFeaturedProducts(c.Request.Context())
			return list(ps), err
		},
	})

	ez.RegisterAction(pub, ez.Action[service.SearchQuery, listOut]{
		Method: http.MethodGet,
		Path:   "/products/search",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *service.SearchQuery) (listOut, error) {
			ps, err := h.svc.SearchProducts(c.Request.Context(), *in)
			return list(ps), err
		},
	})

	ez.RegisterAction(pub, ez.Action[struct{}, listOut]{
		Method: http.MethodGet,
		Path:   "/products/category/:category",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (listOut, error) {
			ps, err := h.svc.GetProductsByCategory(c.Request.Context(), c.Param("category"))
			return list(ps), err
		},
	})

	ez.RegisterAction(pub, ez.Action[struct{}, *domain.Product]{
		Method: http.MethodGet,
		Path:   "/products/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Product, error) {
			return h.svc.GetProduct(c.Request.Context(), c.Param("id"))
		},
	})

	// 店铺页只展示上架商品；草稿等只在 /my/products 里看
	ez.RegisterAction(pub, ez.Action[struct{}, listOut]{
		Method: http.MethodGet,
		Path:   "/sellers/:id/products",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (listOut, error) {
			ps, err := h.svc.GetProductsBySeller(c.Request.Context(), c.Param("id"))
			return list(onlyActive(ps)), err
		},
	})

	authed := api.Group("")
	authed.Use(h.authMW)
	seller := ez.New(authed, h.log)

	ez.RegisterAction(seller, ez.Action[struct{}, listOut]{
		Method: http.MethodGet,
		Path:   "/my/products",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (listOut, error) {
			ps, err := h.svc.GetProductsBySeller(c.Request.Context(), ez.UserID(c))
			return list(ps), err
		},
	})

	ez.RegisterAction(seller, ez.Action[service.ProductInput, gin.H]{
		Method: http.MethodPost,
		Path:   "/products",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.ProductInput) (gin.H, error) {
			id, err := h.svc.CreateProduct(c.Request.Context(), ez.UserID(c), *in)
			if err != nil {
				return nil, err
			}
			return gin.H{"productId": id}, nil
		},
	})

	ez.RegisterAction(seller, ez.Action[domain.ProductPatch, *domain.Product]{
		Method: http.MethodPut,
		Path:   "/products/:id",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *domain.ProductPatch) (*domain.Product, error) {
			return h.svc.UpdateProduct(c.Request.Context(), c.Param("id"), ez.UserID(c), *in)
		},
	})

	ez.RegisterAction(seller, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/products/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := h.svc.DeleteProduct(c.Request.Context(), id, ez.UserID(c)); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})
}
