package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/onmall/onmall-backend/pkg/db/models"
)

// ItemView is one rendered cart line.
type ItemView struct {
	ProductID uuid.UUID       `json:"product_id"`
	Title     string          `json:"title"`
	Slug      string          `json:"slug"`
	Images    []string        `json:"images"`
	ShopName  string          `json:"shop_name,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	AddedAt   time.Time       `json:"added_at"`
}

// View is the rendered cart returned to clients. An owner without a
// persisted cart gets an empty view with a nil CartID.
type View struct {
	CartID *uuid.UUID      `json:"cart_id,omitempty"`
	Items  []ItemView      `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

// EmptyView renders the cart an owner has before anything is added.
func EmptyView() *View {
	return &View{
		Items: []ItemView{},
		Total: decimal.Zero,
	}
}

func toView(cart *models.Cart) *View {
	if cart == nil {
		return EmptyView()
	}

	items := make([]ItemView, len(cart.Items))
	for i, row := range cart.Items {
		item := ItemView{
			ProductID: row.ProductID,
			Quantity:  row.Quantity,
			UnitPrice: row.UnitPrice,
			LineTotal: lineTotal(row),
			AddedAt:   row.CreatedAt,
		}
		if row.Product != nil {
			item.Title = row.Product.Title
			item.Slug = row.Product.Slug
			item.Images = append([]string{}, row.Product.ImageAssetIDs...)
			if row.Product.Vendor != nil {
				item.ShopName = row.Product.Vendor.ShopName
			}
		}
		items[i] = item
	}

	cartID := cart.ID
	return &View{
		CartID: &cartID,
		Items:  items,
		Total:  cartTotal(cart.Items),
	}
}

func lineTotal(item models.CartItem) decimal.Decimal {
	return item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
}

func cartTotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(lineTotal(item))
	}
	return total.Round(2)
}
