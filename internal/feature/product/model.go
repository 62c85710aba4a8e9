package product

import (
	"time"

	"gorm.io/datatypes"

	"mongol-shop/internal/domain"
)

type ProductModel struct {
	ID       string `gorm:"primaryKey;type:varchar(32)"`
	SellerID string `gorm:"index:idx_products_seller;type:varchar(32);not null"`

	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	Category    string `gorm:"index:idx_products_category;size:64;not null"`
	Subcategory string `gorm:"size:64"`

	Price          float64 `gorm:"index:idx_products_price;not null"`
	CompareAtPrice *float64
	Currency       string `gorm:"size:3;not null"`

	Inventory      int    `gorm:"not null;default:0"`
	SKU            string `gorm:"size:64"`
	TrackInventory bool   `gorm:"not null"`

	Images     datatypes.JSONSlice[string] `gorm:"type:json"`
	Weight     *float64
	Dimensions datatypes.JSONType[*domain.Dimensions] `gorm:"type:json"`
	Attributes datatypes.JSONType[*domain.Attributes] `gorm:"type:json"`

	Status   string `gorm:"index:idx_products_status;size:16;not null"`
	Featured bool   `gorm:"index:idx_products_featured;not null;default:false"`

	Tags            datatypes.JSONSlice[string] `gorm:"type:json"`
	MetaTitle       string                      `gorm:"size:255"`
	MetaDescription string                      `gorm:"size:512"`

	Rating      float64 `gorm:"not null;default:0"`
	ReviewCount int     `gorm:"not null;default:0"`

	CreatedAt   time.Time `gorm:"index:idx_products_created_at"`
	UpdatedAt   time.Time
	PublishedAt *time.Time
}

func (ProductModel) TableName() string { return "products" }
