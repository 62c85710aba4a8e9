package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"mongol-shop/internal/core/cache"
	"mongol-shop/internal/domain"
	"mongol-shop/pkg/utils"
)

// 列表缓存 key
const (
	keyActive      = "products:active"
	keyFeatured    = "products:featured"
	keyCategoryPfx = "products:category:"
)

type CatalogService struct {
	products domain.ProductRepository
	users    domain.UserRepository
	tx       domain.Transactor
	log      *zap.Logger
	cache    cache.Store
	ttl      time.Duration
	now      func() time.Time
}

func NewCatalogService(products domain.ProductRepository, users domain.UserRepository, tx domain.Transactor, log *zap.Logger) *CatalogService {
	return &CatalogService{products: products, users: users, tx: tx, log: log, now: time.Now}
}

// WithCache enables the read-through cache for the public product lists.
func (s *CatalogService) WithCache(c cache.Store, ttl time.Duration) *CatalogService {
	s.cache = c
	s.ttl = ttl
	return s
}

func (s *CatalogService) WithClock(now func() time.Time) *CatalogService {
	s.now = now
	return s
}

type ProductInput struct {
	Title           string             `json:"title" validate:"required,max=255"`
	Description     string             `json:"description"`
	Category        string             `json:"category" validate:"required,max=64"`
	Subcategory     string             `json:"subcategory" validate:"max=64"`
	Price           float64            `json:"price" validate:"gte=0"`
	CompareAtPrice  *float64           `json:"compareAtPrice" validate:"omitempty,gte=0"`
	Currency        string             `json:"currency" validate:"required,len=3"`
	Inventory       int                `json:"inventory" validate:"gte=0"`
	SKU             string             `json:"sku" validate:"max=64"`
	TrackInventory  bool               `json:"trackInventory"`
	Images          []string           `json:"images"`
	Weight          *float64           `json:"weight" validate:"omitempty,gte=0"`
	Dimensions      *domain.Dimensions `json:"dimensions"`
	Attributes      *domain.Attributes `json:"attributes"`
	Tags            []string           `json:"tags"`
	MetaTitle       string             `json:"metaTitle" validate:"max=255"`
	MetaDescription string             `json:"metaDescription"`
}

// CreateProduct lists a new draft product for an active seller.
func (s *CatalogService) CreateProduct(ctx context.Context, sellerID string, in ProductInput) (string, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	if err := validateInput(in); err != nil {
		return "", err
	}

	var id string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		seller, err := s.users.FindByID(ctx, sellerID)
		if err != nil {
			return err
		}
		if seller == nil {
			return domain.NotFound("seller not found")
		}
		if seller.Role != domain.RoleSeller {
			return domain.RoleDenied("user is not a seller")
		}
		if seller.AccountStatus != domain.StatusActive {
			return domain.Inactive("seller account is not active")
		}

		now := s.now()
		p := &domain.Product{
			ID:              utils.NewID(),
			SellerID:        seller.ID,
			Title:           in.Title,
			Description:     in.Description,
			Category:        in.Category,
			Subcategory:     in.Subcategory,
			Price:           in.Price,
			CompareAtPrice:  in.CompareAtPrice,
			Currency:        strings.ToUpper(in.Currency),
			Inventory:       in.Inventory,
			SKU:             in.SKU,
			TrackInventory:  in.TrackInventory,
			Images:          append([]string{}, in.Images...),
			Weight:          in.Weight,
			Dimensions:      in.Dimensions,
			Attributes:      in.Attributes,
			Status:          domain.ProductDraft,
			Tags:            append([]string{}, in.Tags...),
			MetaTitle:       in.MetaTitle,
			MetaDescription: in.MetaDescription,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.products.Create(ctx, p); err != nil {
			return err
		}
		id = p.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	s.log.Info("product created", zap.String("product_id", id), zap.String("seller_id", sellerID))
	return id, nil
}

// UpdateProduct applies the supplied fields of patch to a product owned by
// sellerID. Setting status=active stamps publishedAt on every call.
func (s *CatalogService) UpdateProduct(ctx context.Context, productID, sellerID string, patch domain.ProductPatch) (*domain.Product, error) {
	if err := validateInput(patch); err != nil {
		return nil, err
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, domain.Validation("status", "must be one of: draft active inactive out_of_stock")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, domain.Validation("title", "is required")
	}
	if patch.Category != nil && strings.TrimSpace(*patch.Category) == "" {
		return nil, domain.Validation("category", "is required")
	}

	var (
		out    *domain.Product
		oldCat string
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.owned(ctx, productID, sellerID, "you can only update your own products")
		if err != nil {
			return err
		}
		oldCat = p.Category
		patch.Apply(p)
		now := s.now()
		p.UpdatedAt = now
		if patch.Status != nil && *patch.Status == domain.ProductActive {
			p.PublishedAt = &now
		}
		if err := s.products.Update(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, oldCat, out.Category)
	s.log.Info("product updated", zap.String("product_id", productID), zap.String("seller_id", sellerID))
	return out, nil
}

// DeleteProduct permanently removes a product owned by sellerID.
func (s *CatalogService) DeleteProduct(ctx context.Context, productID, sellerID string) error {
	var cat string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.owned(ctx, productID, sellerID, "you can only delete your own products")
		if err != nil {
			return err
		}
		cat = p.Category
		return s.products.Delete(ctx, p.ID)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, cat)
	s.log.Info("product deleted", zap.String("product_id", productID), zap.String("seller_id", sellerID))
	return nil
}

func (s *CatalogService) owned(ctx context.Context, productID, sellerID, denyMsg string) (*domain.Product, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NotFound("product not found")
	}
	if p.SellerID != sellerID {
		return nil, domain.NotOwner(denyMsg)
	}
	return p, nil
}

// SetFeatured toggles the storefront featured flag. Admin only.
func (s *CatalogService) SetFeatured(ctx context.Context, callerID, productID string, featured bool) (*domain.Product, error) {
	var out *domain.Product
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		caller, err := requireAdmin(ctx, s.users, callerID)
		if err != nil {
			return err
		}
		p, err := s.products.FindByID(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.NotFound("product not found")
		}
		p.Featured = featured
		p.UpdatedAt = s.now()
		if err := s.products.Update(ctx, p); err != nil {
			return err
		}
		s.log.Info("product featured flag changed",
			zap.String("product_id", p.ID),
			zap.Bool("featured", featured),
			zap.String("by", caller.ID),
		)
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, out.Category)
	return out, nil
}

// ---------- reads ----------

// GetProductsBySeller returns every product of a seller, whatever its status.
func (s *CatalogService) GetProductsBySeller(ctx context.Context, sellerID string) ([]domain.Product, error) {
	return s.products.List(ctx, domain.ProductQuery{SellerID: sellerID})
}

func (s *CatalogService) GetActiveProducts(ctx context.Context) ([]domain.Product, error) {
	return s.cachedList(ctx, keyActive, domain.ProductQuery{Status: domain.ProductActive})
}

// GetProductsByCategory 空分类不当作"不过滤"，直接返回空列表
func (s *CatalogService) GetProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	if strings.TrimSpace(category) == "" {
		return []domain.Product{}, nil
	}
	return s.cachedList(ctx, keyCategoryPfx+category, domain.ProductQuery{Status: domain.ProductActive, Category: category})
}

func (s *CatalogService) GetFeaturedProducts(ctx context.Context) ([]domain.Product, error) {
	featured := true
	return s.cachedList(ctx, keyFeatured, domain.ProductQuery{Status: domain.ProductActive, Featured: &featured})
}

// GetProduct returns an active product; drafts and delisted items are not found.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.Status != domain.ProductActive {
		return nil, domain.NotFound("product not found")
	}
	return p, nil
}

type SearchQuery struct {
	Term     string   `form:"q"`
	Category string   `form:"category"`
	MinPrice *float64 `form:"minPrice"`
	MaxPrice *float64 `form:"maxPrice"`
}

// SearchProducts filters active products by category and price range in the
// store, then keeps those whose title, description or tags contain Term.
func (s *CatalogService) SearchProducts(ctx context.Context, q SearchQuery) ([]domain.Product, error) {
	list, err := s.products.List(ctx, domain.ProductQuery{
		Status:   domain.ProductActive,
		Category: q.Category,
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
	})
	if err != nil {
		return nil, err
	}
	// 关键词原样匹配，只有空串才跳过
	if q.Term == "" {
		return list, nil
	}
	out := make([]domain.Product, 0, len(list))
	for i := range list {
		if list[i].Matches(q.Term) {
			out = append(out, list[i])
		}
	}
	return out, nil
}

func (s *CatalogService) cachedList(ctx context.Context, key string, q domain.ProductQuery) ([]domain.Product, error) {
	list, err := cache.GetOrLoadJSON(ctx, s.cache, key, s.ttl, func(ctx context.Context) ([]domain.Product, error) {
		return s.products.List(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		return []domain.Product{}, nil
	}
	return list, nil
}

// invalidate drops the public list keys touched by a mutation. A failed
// delete only logs; entries expire with the TTL.
func (s *CatalogService) invalidate(ctx context.Context, categories ...string) {
	if s.cache == nil {
		return
	}
	keys := []string{keyActive, keyFeatured}
	seen := map[string]bool{}
	for _, c := range categories {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		keys = append(keys, keyCategoryPfx+c)
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.log.Warn("product cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
