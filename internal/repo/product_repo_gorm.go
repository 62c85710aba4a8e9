package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"mongol-shop/internal/domain"
	"mongol-shop/internal/feature/product"
)

type ProductRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	return translate(conn(ctx, r.db).Create(toProductModel(p)).Error)
}

func (r *ProductRepo) Update(ctx context.Context, p *domain.Product) error {
	return translate(conn(ctx, r.db).Save(toProductModel(p)).Error)
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	res := conn(ctx, r.db).Where("id = ?", id).Delete(&product.ProductModel{})
	if res.Error != nil {
		return fmt.Errorf("delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("product not found")
	}
	return nil
}

func (r *ProductRepo) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var m product.ProductModel
	err := conn(ctx, r.db).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return toProduct(&m), nil
}

func (r *ProductRepo) List(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error) {
	tx := conn(ctx, r.db).Model(&product.ProductModel{})
	if q.SellerID != "" {
		tx = tx.Where("seller_id = ?", q.SellerID)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", string(q.Status))
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.Featured != nil {
		tx = tx.Where("featured = ?", *q.Featured)
	}
	if q.MinPrice != nil {
		tx = tx.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", *q.MaxPrice)
	}
	var ms []product.ProductModel
	if err := tx.Order("created_at DESC").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]domain.Product, 0, len(ms))
	for i := range ms {
		out = append(out, *toProduct(&ms[i]))
	}
	return out, nil
}

func toProductModel(p *domain.Product) *product.ProductModel {
	return &product.ProductModel{
		ID:              p.ID,
		SellerID:        p.SellerID,
		Title:           p.Title,
		Description:     p.Description,
		Category:        p.Category,
		Subcategory:     p.Subcategory,
		Price:           p.Price,
		CompareAtPrice:  p.CompareAtPrice,
		Currency:        p.Currency,
		Inventory:       p.Inventory,
		SKU:             p.SKU,
		TrackInventory:  p.TrackInventory,
		Images:          datatypes.JSONSlice[string](p.Images),
		Weight:          p.Weight,
		Dimensions:      datatypes.NewJSONType(p.Dimensions),
		Attributes:      datatypes.NewJSONType(p.Attributes),
		Status:          string(p.Status),
		Featured:        p.Featured,
		Tags:            datatypes.JSONSlice[string](p.Tags),
		MetaTitle:       p.MetaTitle,
		MetaDescription: p.MetaDescription,
		Rating:          p.Rating,
		ReviewCount:     p.ReviewCount,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		PublishedAt:     p.PublishedAt,
	}
}

func toProduct(m *product.ProductModel) *domain.Product {
	p := &domain.Product{
		ID:              m.ID,
		SellerID:        m.SellerID,
		Title:           m.Title,
		Description:     m.Description,
		Category:        m.Category,
		Subcategory:     m.Subcategory,
		Price:           m.Price,
		CompareAtPrice:  m.CompareAtPrice,
		Currency:        m.Currency,
		Inventory:       m.Inventory,
		SKU:             m.SKU,
		TrackInventory:  m.TrackInventory,
		Images:          []string(m.Images),
		Weight:          m.Weight,
		Dimensions:      m.Dimensions.Data(),
		Attributes:      m.Attributes.Data(),
		Status:          domain.ProductStatus(m.Status),
		Featured:        m.Featured,
		Tags:            []string(m.Tags),
		MetaTitle:       m.MetaTitle,
		MetaDescription: m.MetaDescription,
		Rating:          m.Rating,
		ReviewCount:     m.ReviewCount,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		PublishedAt:     m.PublishedAt,
	}
	return p
}
