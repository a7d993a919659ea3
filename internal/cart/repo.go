package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/onmall/onmall-backend/internal/identity"
	"github.com/onmall/onmall-backend/pkg/db/models"
)

// Repository exposes cart persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository scoped to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func ownerClause(query *gorm.DB, owner identity.Identity) *gorm.DB {
	if userID, ok := owner.UserID(); ok {
		return query.Where("user_id = ?", userID)
	}
	if guestID, ok := owner.GuestID(); ok {
		return query.Where("guest_id = ?", guestID)
	}
	// Unreachable for validated identities; matches nothing otherwise.
	return query.Where("1 = 0")
}

// FindByOwner loads the owner's cart with items and product snapshots.
func (r *Repository) FindByOwner(ctx context.Context, owner identity.Identity) (*models.Cart, error) {
	var cart models.Cart
	query := ownerClause(r.db.WithContext(ctx), owner).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.created_at ASC")
		}).
		Preload("Items.Product.Vendor")
	if err := query.First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetOrCreateByOwner returns the owner's cart, creating an empty one when
// none exists yet. The unique owner indexes make concurrent creates safe:
// the losing insert falls back to reading the winner's row.
func (r *Repository) GetOrCreateByOwner(ctx context.Context, owner identity.Identity) (*models.Cart, error) {
	cart, err := r.FindByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	fresh := &models.Cart{}
	if userID, ok := owner.UserID(); ok {
		fresh.UserID = &userID
	}
	if guestID, ok := owner.GuestID(); ok {
		fresh.GuestID = &guestID
	}

	createErr := r.db.WithContext(ctx).Create(fresh).Error
	if createErr == nil {
		return fresh, nil
	}
	if cart, err := r.FindByOwner(ctx, owner); err == nil {
		return cart, nil
	}
	return nil, createErr
}

// UpsertItem inserts a cart line or bumps the quantity when the product
// is already present. The stored unit price is the snapshot taken on the
// first insert; conflicts never overwrite it.
func (r *Repository) UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int, unitPrice decimal.Decimal) error {
	item := models.CartItem{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + ?", quantity),
				"updated_at": gorm.Expr("now()"),
			}),
		}).
		Create(&item).Error
}

// SetItemQuantity overwrites the quantity of one line. It reports the
// number of affected rows so callers can detect missing lines.
func (r *Repository) SetItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Update("quantity", quantity)
	return result.RowsAffected, result.Error
}

// DeleteItem removes one line from the cart.
func (r *Repository) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{}).Error
}

// ClearItems removes every line from the cart.
func (r *Repository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}
