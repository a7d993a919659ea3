package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/onmall/onmall-backend/pkg/db/models"
	"github.com/onmall/onmall-backend/pkg/enums"
)

// ProductDTO is the API shape of a catalog entry. EffectivePrice carries
// the discounted price buyers actually pay.
type ProductDTO struct {
	ID              uuid.UUID           `json:"id"`
	VendorID        uuid.UUID           `json:"vendor_id"`
	VendorShopName  string              `json:"vendor_shop_name,omitempty"`
	VendorApproved  bool                `json:"vendor_approved"`
	CategoryID      *uuid.UUID          `json:"category_id,omitempty"`
	Title           string              `json:"title"`
	Slug            string              `json:"slug"`
	Description     *string             `json:"description,omitempty"`
	Price           decimal.Decimal     `json:"price"`
	DiscountPercent int                 `json:"discount_percent"`
	EffectivePrice  decimal.Decimal     `json:"effective_price"`
	Stock           int                 `json:"stock"`
	ImageAssetIDs   []string            `json:"image_asset_ids"`
	Status          enums.ProductStatus `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// FromModel maps a product row, flattening the vendor preload when present.
func FromModel(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:              product.ID,
		VendorID:        product.VendorID,
		CategoryID:      product.CategoryID,
		Title:           product.Title,
		Slug:            product.Slug,
		Description:     product.Description,
		Price:           product.Price,
		DiscountPercent: product.DiscountPercent,
		EffectivePrice:  product.EffectivePrice(),
		Stock:           product.Stock,
		ImageAssetIDs:   product.ImageAssetIDs,
		Status:          product.Status,
		CreatedAt:       product.CreatedAt,
		UpdatedAt:       product.UpdatedAt,
	}
	if dto.ImageAssetIDs == nil {
		dto.ImageAssetIDs = []string{}
	}
	if product.Vendor != nil {
		dto.VendorShopName = product.Vendor.ShopName
		dto.VendorApproved = product.Vendor.Approved
	}
	return dto
}
