package domain

import (
	"context"
	"strings"
	"time"
)

type ProductStatus string

const (
	ProductDraft      ProductStatus = "draft"
	ProductActive     ProductStatus = "active"
	ProductInactive   ProductStatus = "inactive"
	ProductOutOfStock ProductStatus = "out_of_stock"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductDraft, ProductActive, ProductInactive, ProductOutOfStock:
		return true
	}
	return false
}

type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit"` // cm / in
}

type Attributes struct {
	Color    string `json:"color,omitempty"`
	Size     string `json:"size,omitempty"`
	Material string `json:"material,omitempty"`
	Brand    string `json:"brand,omitempty"`
	Model    string `json:"model,omitempty"`
}

type Product struct {
	ID              string        `json:"id"`
	SellerID        string        `json:"sellerId"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Category        string        `json:"category"`
	Subcategory     string        `json:"subcategory,omitempty"`
	Price           float64       `json:"price"`
	CompareAtPrice  *float64      `json:"compareAtPrice,omitempty"`
	Currency        string        `json:"currency"`
	Inventory       int           `json:"inventory"`
	SKU             string        `json:"sku,omitempty"`
	TrackInventory  bool          `json:"trackInventory"`
	Images          []string      `json:"images"`
	Weight          *float64      `json:"weight,omitempty"`
	Dimensions      *Dimensions   `json:"dimensions,omitempty"`
	Attributes      *Attributes   `json:"attributes,omitempty"`
	Status          ProductStatus `json:"status"`
	Featured        bool          `json:"featured"`
	Tags            []string      `json:"tags,omitempty"`
	MetaTitle       string        `json:"metaTitle,omitempty"`
	MetaDescription string        `json:"metaDescription,omitempty"`
	Rating          float64       `json:"rating"`
	ReviewCount     int           `json:"reviewCount"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
	PublishedAt     *time.Time    `json:"publishedAt,omitempty"`
}

// Matches reports whether term occurs, case-insensitively, in the title,
// the description or any tag. An empty term matches everything.
func (p *Product) Matches(term string) bool {
	if term == "" {
		return true
	}
	t := strings.ToLower(term)
	if strings.Contains(strings.ToLower(p.Title), t) ||
		strings.Contains(strings.ToLower(p.Description), t) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), t) {
			return true
		}
	}
	return false
}

// ProductPatch 只有非 nil 字段会被写入
type ProductPatch struct {
	Title           *string        `json:"title" validate:"omitempty,max=255"`
	Description     *string        `json:"description"`
	Category        *string        `json:"category" validate:"omitempty,max=64"`
	Subcategory     *string        `json:"subcategory"`
	Price           *float64       `json:"price" validate:"omitempty,gte=0"`
	CompareAtPrice  *float64       `json:"compareAtPrice" validate:"omitempty,gte=0"`
	Inventory       *int           `json:"inventory" validate:"omitempty,gte=0"`
	SKU             *string        `json:"sku"`
	TrackInventory  *bool          `json:"trackInventory"`
	Images          *[]string      `json:"images"`
	Weight          *float64       `json:"weight" validate:"omitempty,gte=0"`
	Dimensions      *Dimensions    `json:"dimensions"`
	Attributes      *Attributes    `json:"attributes"`
	Tags            *[]string      `json:"tags"`
	MetaTitle       *string        `json:"metaTitle"`
	MetaDescription *string        `json:"metaDescription"`
	Status          *ProductStatus `json:"status"`
}

// Apply copies the supplied fields onto p. It does not touch timestamps.
func (pp *ProductPatch) Apply(p *Product) {
	if pp.Title != nil {
		p.Title = *pp.Title
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Category != nil {
		p.Category = *pp.Category
	}
	if pp.Subcategory != nil {
		p.Subcategory = *pp.Subcategory
	}
	if pp.Price != nil {
		p.Price = *pp.Price
	}
	if pp.CompareAtPrice != nil {
		v := *pp.CompareAtPrice
		p.CompareAtPrice = &v
	}
	if pp.Inventory != nil {
		p.Inventory = *pp.Inventory
	}
	if pp.SKU != nil {
		p.SKU = *pp.SKU
	}
	if pp.TrackInventory != nil {
		p.TrackInventory = *pp.TrackInventory
	}
	if pp.Images != nil {
		p.Images = append([]string(nil), (*pp.Images)...)
	}
	if pp.Weight != nil {
		v := *pp.Weight
		p.Weight = &v
	}
	if pp.Dimensions != nil {
		d := *pp.Dimensions
		p.Dimensions = &d
	}
	if pp.Attributes != nil {
		a := *pp.Attributes
		p.Attributes = &a
	}
	if pp.Tags != nil {
		p.Tags = append([]string(nil), (*pp.Tags)...)
	}
	if pp.MetaTitle != nil {
		p.MetaTitle = *pp.MetaTitle
	}
	if pp.MetaDescription != nil {
		p.MetaDescription = *pp.MetaDescription
	}
	if pp.Status != nil {
		p.Status = *pp.Status
	}
}

// ProductQuery 空值/nil 字段不参与过滤
type ProductQuery struct {
	SellerID string
	Status   ProductStatus
	Category string
	Featured *bool
	MinPrice *float64
	MaxPrice *float64
}

// Match applies q to p in memory; the gorm store translates the same
// fields to a WHERE clause.
func (q ProductQuery) Match(p *Product) bool {
	if q.SellerID != "" && p.SellerID != q.SellerID {
		return false
	}
	if q.Status != "" && p.Status != q.Status {
		return false
	}
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if q.Featured != nil && p.Featured != *q.Featured {
		return false
	}
	if q.MinPrice != nil && p.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && p.Price > *q.MaxPrice {
		return false
	}
	return true
}

// ProductRepository returns (nil, nil) from FindByID when no row matches.
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, q ProductQuery) ([]Product, error)
}
