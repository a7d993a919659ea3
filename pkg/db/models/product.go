package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/onmall/onmall-backend/pkg/enums"
)

// Product is a catalog entry owned by a vendor.
type Product struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID        uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null;index"`
	CategoryID      *uuid.UUID          `gorm:"column:category_id;type:uuid;index"`
	Title           string              `gorm:"column:title;not null"`
	Slug            string              `gorm:"column:slug;not null;uniqueIndex"`
	Description     *string             `gorm:"column:description"`
	Price           decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	DiscountPercent int                 `gorm:"column:discount_percent;not null;default:0"`
	Stock           int                 `gorm:"column:stock;not null;default:0"`
	ImageAssetIDs   pq.StringArray      `gorm:"column:image_asset_ids;type:text[]"`
	Status          enums.ProductStatus `gorm:"column:status;type:product_status;not null;default:'DRAFT'"`
	Vendor          *Vendor             `gorm:"foreignKey:VendorID"`
	Category        *Category           `gorm:"foreignKey:CategoryID"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePrice applies the discount percentage to the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPercent <= 0 {
		return p.Price
	}
	factor := decimal.NewFromInt(int64(100 - p.DiscountPercent)).Div(decimal.NewFromInt(100))
	return p.Price.Mul(factor).Round(2)
}
