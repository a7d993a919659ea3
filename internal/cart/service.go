package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/onmall/onmall-backend/internal/identity"
	"github.com/onmall/onmall-backend/pkg/db/models"
	"github.com/onmall/onmall-backend/pkg/enums"
	pkgerrors "github.com/onmall/onmall-backend/pkg/errors"
)

type cartRepository interface {
	FindByOwner(ctx context.Context, owner identity.Identity) (*models.Cart, error)
	GetOrCreateByOwner(ctx context.Context, owner identity.Identity) (*models.Cart, error)
	UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int, unitPrice decimal.Decimal) error
	SetItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) (int64, error)
	DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes the cart read and mutation semantics shared by guests
// and registered users.
type Service interface {
	GetCart(ctx context.Context, owner identity.Identity) (*View, error)
	AddItem(ctx context.Context, owner identity.Identity, productID uuid.UUID, quantity int) (*View, error)
	SetItemQuantity(ctx context.Context, owner identity.Identity, productID uuid.UUID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, owner identity.Identity, productID uuid.UUID) (*View, error)
	Clear(ctx context.Context, owner identity.Identity) error
}

type service struct {
	repo     cartRepository
	products productLoader
}

// NewService builds a cart service backed by the provided repositories.
func NewService(repo cartRepository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{
		repo:     repo,
		products: products,
	}, nil
}

func (s *service) GetCart(ctx context.Context, owner identity.Identity) (*View, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Reading never materializes a cart row.
			return EmptyView(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return toView(cart), nil
}

func (s *service) AddItem(ctx context.Context, owner identity.Identity, productID uuid.UUID, quantity int) (*View, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup product")
	}
	if product.Status != enums.ProductStatusPublished {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is not available")
	}
	if product.Stock < quantity {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")
	}

	cart, err := s.repo.GetOrCreateByOwner(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "materialize cart")
	}

	// The snapshot is the discounted price at add time. Repeat adds bump
	// quantity and keep the original snapshot.
	if err := s.repo.UpsertItem(ctx, cart.ID, productID, quantity, product.EffectivePrice()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert cart item")
	}

	return s.reload(ctx, owner)
}

func (s *service) SetItemQuantity(ctx context.Context, owner identity.Identity, productID uuid.UUID, quantity int) (*View, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Nothing to update; the owner simply has an empty cart.
			return EmptyView(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if quantity == 0 {
		if err := s.repo.DeleteItem(ctx, cart.ID, productID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
		}
		return s.reload(ctx, owner)
	}

	// Setting a quantity on a line that was never added is treated as a
	// no-op rather than an error, same as the absent-cart case.
	if _, err := s.repo.SetItemQuantity(ctx, cart.ID, productID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}

	return s.reload(ctx, owner)
}

func (s *service) RemoveItem(ctx context.Context, owner identity.Identity, productID uuid.UUID) (*View, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}

	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmptyView(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if err := s.repo.DeleteItem(ctx, cart.ID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return s.reload(ctx, owner)
}

func (s *service) Clear(ctx context.Context, owner identity.Identity) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if err := s.repo.ClearItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) reload(ctx context.Context, owner identity.Identity) (*View, error) {
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmptyView(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return toView(cart), nil
}
