package catalog

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Product is a catalog record with English and Norwegian text.
type Product struct {
	ID          string              `gorm:"column:id;primaryKey" json:"id"`
	Name        types.LocalizedText `gorm:"column:name;type:text;not null" json:"name"`
	Description types.LocalizedText `gorm:"column:description;type:text;not null" json:"description"`
	Price       decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Stock       *int                `gorm:"column:stock" json:"stock,omitempty"`
	ImageURL    *string             `gorm:"column:image_url" json:"image_url"`
	IsActive    bool                `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt   time.Time           `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time           `gorm:"column:updated_at" json:"updated_at"`
}

func (Product) TableName() string { return "products" }
